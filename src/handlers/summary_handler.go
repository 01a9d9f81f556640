package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"smartspend-server/src/aggregate"
	"smartspend-server/src/automation"
	cache "smartspend-server/src/db"
	db "smartspend-server/src/db/sql"
	"smartspend-server/src/models"
)

const defaultDailyLimit = 7

// GetSummary returns the all-time income, expenses and balance. The result is
// cached until the next transaction write of the user.
func GetSummary(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		if summary, ok := cache.GetSummaryCache(userID); ok {
			writeJSON(w, http.StatusOK, summary)
			return
		}

		gen := cache.SummaryGeneration(userID)
		txns, err := db.GetAllTransactions(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get transactions for summary of user %d: %v", userID, err)
			http.Error(w, "failed to get summary", http.StatusInternalServerError)
			return
		}
		summary := aggregate.Summarize(txns)
		cache.SetSummaryCache(userID, gen, summary)
		writeJSON(w, http.StatusOK, summary)
	}
}

func GetMonthlySummary(pool *pgxpool.Pool, clock automation.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		start, err := parseMonth(r.URL.Query().Get("month"), clock.Now())
		if err != nil {
			writeError(w, err, "invalid month")
			return
		}

		txns, err := db.GetTransactionsBetween(r.Context(), pool, userID, start, start.AddDate(0, 1, 0))
		if err != nil {
			log.Printf("ERROR: Failed to get transactions for monthly summary of user %d: %v", userID, err)
			http.Error(w, "failed to get monthly summary", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, aggregate.Monthly(txns, start.Year(), start.Month()))
	}
}

func GetCategorySummary(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		txns, err := db.GetAllTransactions(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get transactions for category summary of user %d: %v", userID, err)
			http.Error(w, "failed to get category summary", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, aggregate.ExpensesByCategory(txns))
	}
}

func GetDailySummary(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		limit, err := parseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			writeError(w, err, "invalid limit")
			return
		}

		txns, err := db.GetAllTransactions(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get transactions for daily summary of user %d: %v", userID, err)
			http.Error(w, "failed to get daily summary", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, aggregate.Daily(txns, limit))
	}
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return defaultDailyLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 366 {
		return 0, &models.ValidationError{Field: "limit", Message: "must be between 1 and 366"}
	}
	return n, nil
}
