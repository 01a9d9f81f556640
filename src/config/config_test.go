package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/smartspend")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	for _, key := range []string{"PORT", "GEMINI_API_KEY", "GEMINI_MODEL", "TIMEZONE", "ALLOWED_ORIGINS", "DEMO_MODE", "TOKEN_TTL_HOURS", "SESSION_IDLE_MINUTES"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.False(t, cfg.DemoMode)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Empty(t, cfg.GeminiAPIKey)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "Asia/Kolkata")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("TOKEN_TTL_HOURS", "2")
	t.Setenv("SESSION_IDLE_MINUTES", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", cfg.Location.String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.DemoMode)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Zero(t, cfg.SessionIdle)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": ""}},
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}},
		{"bad demo flag", map[string]string{"DEMO_MODE": "maybe"}},
		{"bad ttl", map[string]string{"TOKEN_TTL_HOURS": "0"}},
		{"bad idle", map[string]string{"SESSION_IDLE_MINUTES": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("TIMEZONE", "")
			t.Setenv("DEMO_MODE", "")
			t.Setenv("TOKEN_TTL_HOURS", "")
			t.Setenv("SESSION_IDLE_MINUTES", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
