package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"smartspend-server/src/automation"
	"smartspend-server/src/config"
	db "smartspend-server/src/db/sql"
	"smartspend-server/src/middleware"
	"smartspend-server/src/models"
	"smartspend-server/src/util"
)

func Register(pool *pgxpool.Pool, cfg config.Config, sched *automation.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode register request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		req.Name = strings.TrimSpace(req.Name)

		if !util.ValidateEmail(req.Email) {
			log.Printf("ERROR: Email validation failed during registration - Email: %s", req.Email)
			http.Error(w, "invalid email format", http.StatusBadRequest)
			return
		}

		if !util.ValidateName(req.Name) {
			log.Printf("ERROR: Name validation failed during registration - Email: %s", req.Email)
			http.Error(w, "name must be between 1 and 60 characters", http.StatusBadRequest)
			return
		}

		if !util.ValidatePassword(req.Password) {
			log.Printf("ERROR: Password validation failed during registration - Email: %s", req.Email)
			http.Error(w, "password must be at least 8 characters with uppercase, lowercase, digit, and special character", http.StatusBadRequest)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("ERROR: Failed to hash password for %s: %v", req.Email, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		user, err := db.CreateUser(r.Context(), pool, req, hashedPassword)
		if err != nil {
			if errors.Is(err, db.ErrConflict) {
				log.Printf("ERROR: Registration failed - email already exists - Email: %s", req.Email)
				http.Error(w, "email already exists", http.StatusConflict)
				return
			}
			log.Printf("ERROR: Failed to create user %s: %v", req.Email, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		log.Printf("INFO: Successful registration - Email: %s, ID: %d", user.Email, user.ID)

		token, err := middleware.IssueToken([]byte(cfg.JWTSecret), user.ID, user.Email, cfg.TokenTTL)
		if err != nil {
			log.Printf("ERROR: Failed to generate JWT token for user %d: %v", user.ID, err)
			http.Error(w, "Error generating token", http.StatusInternalServerError)
			return
		}
		sched.Begin(user.ID)

		writeJSON(w, http.StatusCreated, models.RegisterResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Token: token,
		})
	}
}

func Login(pool *pgxpool.Pool, cfg config.Config, sched *automation.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var credentials struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}

		if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
			log.Printf("ERROR: Failed to decode login request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		user, err := db.GetUserByEmail(r.Context(), pool, strings.TrimSpace(credentials.Email))
		if err != nil {
			log.Printf("ERROR: Failed to find user during login - Email: %s: %v", credentials.Email, err)
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}

		if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(credentials.Password)); err != nil {
			log.Printf("ERROR: Invalid password attempt for email %s from IP %s", credentials.Email, r.RemoteAddr)
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}

		token, err := middleware.IssueToken([]byte(cfg.JWTSecret), user.ID, user.Email, cfg.TokenTTL)
		if err != nil {
			log.Printf("ERROR: Failed to generate JWT token for user %d: %v", user.ID, err)
			http.Error(w, "Error generating token", http.StatusInternalServerError)
			return
		}

		if err := db.UpdateUserLastLogin(r.Context(), pool, user.ID); err != nil {
			log.Printf("ERROR: Failed to update last_login for user %d: %v", user.ID, err)
		}
		sched.Begin(user.ID)

		log.Printf("INFO: Successful login - Email: %s, ID: %d", user.Email, user.ID)

		writeJSON(w, http.StatusOK, map[string]string{
			"token": token,
		})
	}
}

// Logout ends the automation session. Tokens are stateless, the client drops
// its copy.
func Logout(cfg config.Config, sched *automation.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.ParseTokenFromRequest(r, []byte(cfg.JWTSecret))
		if err == nil {
			if id, ok := claims["user_id"].(float64); ok {
				sched.End(int64(id))
				log.Printf("INFO: Logout - ID: %d", int64(id))
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
