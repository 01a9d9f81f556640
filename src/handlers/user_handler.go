package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"smartspend-server/src/automation"
	cache "smartspend-server/src/db"
	db "smartspend-server/src/db/sql"
	"smartspend-server/src/util"
)

func GetMe(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)

		user, err := db.GetUserByID(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get user - user_id: %d: %v", userID, err)
			writeError(w, err, "user not found")
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

func ChangePassword(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)

		var req struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode change password request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		user, err := db.GetUserByID(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get user for password change - user_id: %d: %v", userID, err)
			writeError(w, err, "user not found")
			return
		}

		if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.CurrentPassword)); err != nil {
			log.Printf("ERROR: Invalid current password attempt for user %d", userID)
			http.Error(w, "current password is incorrect", http.StatusUnauthorized)
			return
		}

		if !util.ValidatePassword(req.NewPassword) {
			log.Printf("ERROR: Password validation failed during change password - User: %d", userID)
			http.Error(w, "password must be at least 8 characters with uppercase, lowercase, digit, and special character", http.StatusBadRequest)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("ERROR: Failed to hash new password for user %d: %v", userID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if err := db.UpdateUserPassword(r.Context(), pool, userID, hashedPassword); err != nil {
			log.Printf("ERROR: Failed to update user password - user_id: %d: %v", userID, err)
			writeError(w, err, "internal error")
			return
		}

		log.Printf("INFO: User password changed - User: %d", userID)

		writeJSON(w, http.StatusOK, map[string]string{
			"message": "password changed successfully",
		})
	}
}

// DeleteMe removes the account with all its data and closes its automation
// session first so no pass writes for a deleted user.
func DeleteMe(pool *pgxpool.Pool, sched *automation.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)

		log.Printf("INFO: Deleting user %d and all associated data", userID)
		sched.End(userID)

		if err := db.DeleteUser(r.Context(), pool, userID); err != nil {
			log.Printf("ERROR: Failed to delete user %d: %v", userID, err)
			writeError(w, err, "failed to delete user")
			return
		}
		cache.DelSummaryCache(userID)

		log.Printf("INFO: User %d deleted", userID)
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "user deleted",
		})
	}
}
