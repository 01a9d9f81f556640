package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"smartspend-server/src/aggregate"
	"smartspend-server/src/automation"
	db "smartspend-server/src/db/sql"
	"smartspend-server/src/models"
)

func UpsertBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		category, err := models.ParseCategory(models.Expense, chi.URLParam(r, "category"))
		if err != nil {
			log.Printf("ERROR: Invalid budget category for user %d: %v", userID, err)
			writeError(w, err, "invalid category")
			return
		}

		var req struct {
			Limit decimal.Decimal `json:"limit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode budget request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := models.ValidateAmount("limit", req.Limit); err != nil {
			writeError(w, err, "invalid limit")
			return
		}

		budget, err := db.UpsertBudget(r.Context(), pool, &models.Budget{
			UserID:   userID,
			Category: category,
			Limit:    req.Limit,
		})
		if err != nil {
			log.Printf("ERROR: Failed to save budget for user %d: %v", userID, err)
			writeError(w, err, "failed to save budget")
			return
		}

		log.Printf("INFO: Saved budget for user %d, category %s, limit %s", userID, budget.Category, budget.Limit)
		writeJSON(w, http.StatusOK, budget)
	}
}

func GetAllBudgetsForUser(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		budgets, err := db.GetAllBudgetsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get budgets for user %d: %v", userID, err)
			http.Error(w, "failed to get budgets", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, budgets)
	}
}

func DeleteBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		category, err := models.ParseCategory(models.Expense, chi.URLParam(r, "category"))
		if err != nil {
			writeError(w, err, "invalid category")
			return
		}
		if err := db.DeleteBudget(r.Context(), pool, userID, category); err != nil {
			log.Printf("ERROR: Failed to delete budget %s for user %d: %v", category, userID, err)
			writeError(w, err, "failed to delete budget")
			return
		}
		log.Printf("INFO: Deleted budget %s for user %d", category, userID)
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetBudgetStatus compares the expenses of one month with the budgets.
func GetBudgetStatus(pool *pgxpool.Pool, clock automation.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		start, err := parseMonth(r.URL.Query().Get("month"), clock.Now())
		if err != nil {
			writeError(w, err, "invalid month")
			return
		}

		budgets, err := db.GetAllBudgetsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get budgets for user %d: %v", userID, err)
			http.Error(w, "failed to get budget status", http.StatusInternalServerError)
			return
		}
		txns, err := db.GetTransactionsBetween(r.Context(), pool, userID, start, start.AddDate(0, 1, 0))
		if err != nil {
			log.Printf("ERROR: Failed to get transactions for budget status of user %d: %v", userID, err)
			http.Error(w, "failed to get budget status", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, aggregate.BudgetStatuses(txns, budgets))
	}
}
