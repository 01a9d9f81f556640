package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartspend-server/src/automation"
	db "smartspend-server/src/db/sql"
	"smartspend-server/src/models"
)

func CreateRecurringRule(pool *pgxpool.Pool, sched *automation.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		var req models.CreateRecurringRuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode create recurring rule request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		rule, err := req.Rule(userID)
		if err != nil {
			log.Printf("ERROR: Rejected recurring rule for user %d: %v", userID, err)
			writeError(w, err, "invalid recurring rule")
			return
		}

		created, err := db.CreateRecurringRule(r.Context(), pool, rule)
		if err != nil {
			log.Printf("ERROR: Failed to create recurring rule for user %d: %v", userID, err)
			writeError(w, err, "failed to create recurring rule")
			return
		}
		sched.Notify(userID)

		log.Printf("INFO: Created recurring rule %s for user %d, day %d", created.ID, userID, created.DayOfMonth)
		writeJSON(w, http.StatusCreated, created)
	}
}

func GetRecurringRuleByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		ruleID := chi.URLParam(r, "rule_id")

		rule, err := db.GetRecurringRuleByID(r.Context(), pool, userID, ruleID)
		if err != nil {
			log.Printf("ERROR: Recurring rule %s not found for user %d: %v", ruleID, userID, err)
			writeError(w, err, "recurring rule not found")
			return
		}
		writeJSON(w, http.StatusOK, rule)
	}
}

func GetAllRecurringRules(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		rules, err := db.GetAllRecurringRules(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get recurring rules for user %d: %v", userID, err)
			http.Error(w, "failed to get recurring rules", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rules)
	}
}

// DeleteRecurringRule stops future materializations. Transactions the rule
// already produced stay.
func DeleteRecurringRule(pool *pgxpool.Pool, sched *automation.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		ruleID := chi.URLParam(r, "rule_id")

		if err := db.DeleteRecurringRule(r.Context(), pool, userID, ruleID); err != nil {
			log.Printf("ERROR: Failed to delete recurring rule %s for user %d: %v", ruleID, userID, err)
			writeError(w, err, "failed to delete recurring rule")
			return
		}
		sched.Notify(userID)

		log.Printf("INFO: Deleted recurring rule %s for user %d", ruleID, userID)
		w.WriteHeader(http.StatusNoContent)
	}
}

// RunRecurringRules runs one automation pass right away and returns what it
// did.
func RunRecurringRules(sched *automation.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)

		effects, err := sched.RunNow(r.Context(), userID)
		if err != nil {
			log.Printf("ERROR: Failed to run recurring rules for user %d: %v", userID, err)
			http.Error(w, "failed to run recurring rules", http.StatusInternalServerError)
			return
		}
		if effects == nil {
			effects = []automation.Effect{}
		}

		log.Printf("INFO: Ran recurring rules for user %d, %d effects", userID, len(effects))
		writeJSON(w, http.StatusOK, map[string]any{
			"effects": effects,
		})
	}
}
