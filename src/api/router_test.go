package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"smartspend-server/src/ai"
	"smartspend-server/src/automation"
	"smartspend-server/src/config"
)

func testRouter(demo bool) http.Handler {
	clock := automation.FixedClock{T: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)}
	return NewRouter(Deps{
		Config: config.Config{
			JWTSecret:      "secret",
			TokenTTL:       time.Hour,
			AllowedOrigins: []string{"https://app.example"},
			DemoMode:       demo,
		},
		Scheduler: automation.NewScheduler(nil, nil, clock),
		Clock:     clock,
		AI:        ai.NewService(nil),
	})
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := testRouter(false)
	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/me"},
		{http.MethodGet, "/api/transactions"},
		{http.MethodPost, "/api/recurring-rules"},
		{http.MethodPost, "/api/recurring-rules/run"},
		{http.MethodPut, "/api/budgets/Food"},
		{http.MethodGet, "/api/summary"},
		{http.MethodGet, "/api/ai/insights"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
	}
}

func TestDemoModeBlocksWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(true).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/transactions", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogoutWithoutToken(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(false).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/logout", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
