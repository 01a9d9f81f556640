package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	GeminiAPIKey   string
	GeminiModel    string
	Location       *time.Location
	AllowedOrigins []string
	DemoMode       bool
	TokenTTL       time.Duration
	SessionIdle    time.Duration
}

func Load() (Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return cfg, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.DemoMode, err = strconv.ParseBool(getEnv("DEMO_MODE", "false")); err != nil {
		return cfg, fmt.Errorf("invalid DEMO_MODE: %w", err)
	}

	hours, err := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "168"))
	if err != nil || hours <= 0 {
		return cfg, fmt.Errorf("invalid TOKEN_TTL_HOURS %q", os.Getenv("TOKEN_TTL_HOURS"))
	}
	cfg.TokenTTL = time.Duration(hours) * time.Hour

	minutes, err := strconv.Atoi(getEnv("SESSION_IDLE_MINUTES", "30"))
	if err != nil || minutes < 0 {
		return cfg, fmt.Errorf("invalid SESSION_IDLE_MINUTES %q", os.Getenv("SESSION_IDLE_MINUTES"))
	}
	cfg.SessionIdle = time.Duration(minutes) * time.Minute

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
