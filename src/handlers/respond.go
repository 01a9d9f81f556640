package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"smartspend-server/src/automation"
	db "smartspend-server/src/db/sql"
	"smartspend-server/src/middleware"
	"smartspend-server/src/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

// statusFor maps store and validation errors to HTTP status codes.
func statusFor(err error) int {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrConflict), errors.Is(err, automation.ErrAlreadyMaterialized):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError replies with the status for err. Validation messages are shown to
// the client, everything else gets msg.
func writeError(w http.ResponseWriter, err error, msg string) {
	status := statusFor(err)
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		msg = verr.Error()
	}
	http.Error(w, msg, status)
}

// currentUserID must only be called behind JWTAuthMiddleware.
func currentUserID(r *http.Request) int64 {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		panic("handlers: request has no authenticated user")
	}
	return id
}

// parseMonth reads a YYYY-MM value. An empty value selects the month of now.
func parseMonth(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	m, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, &models.ValidationError{Field: "month", Message: fmt.Sprintf("expected YYYY-MM, got %q", s)}
	}
	return m, nil
}
