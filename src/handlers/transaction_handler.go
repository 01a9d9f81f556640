package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartspend-server/src/aggregate"
	"smartspend-server/src/automation"
	cache "smartspend-server/src/db"
	db "smartspend-server/src/db/sql"
	"smartspend-server/src/models"
)

func CreateTransaction(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		var req models.CreateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode create transaction request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		draft, err := req.Draft()
		if err != nil {
			log.Printf("ERROR: Rejected transaction for user %d: %v", userID, err)
			writeError(w, err, "invalid transaction")
			return
		}

		created, err := db.CreateTransaction(r.Context(), pool, userID, *draft)
		if err != nil {
			log.Printf("ERROR: Failed to create transaction for user %d: %v", userID, err)
			writeError(w, err, "failed to create transaction")
			return
		}
		cache.DelSummaryCache(userID)

		log.Printf("INFO: Created transaction %s for user %d, %s %s", created.ID, userID, created.Type, created.Amount)
		writeJSON(w, http.StatusCreated, created)
	}
}

// GetTransactions lists transactions newest first. month=YYYY-MM restricts
// the list to one month and q filters by note, category or amount.
func GetTransactions(pool *pgxpool.Pool, clock automation.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		query := r.URL.Query()

		var (
			txns []models.Transaction
			err  error
		)
		if month := query.Get("month"); month != "" {
			start, perr := parseMonth(month, clock.Now())
			if perr != nil {
				writeError(w, perr, "invalid month")
				return
			}
			txns, err = db.GetTransactionsBetween(r.Context(), pool, userID, start, start.AddDate(0, 1, 0))
		} else {
			txns, err = db.GetAllTransactions(r.Context(), pool, userID)
		}
		if err != nil {
			log.Printf("ERROR: Failed to get transactions for user %d: %v", userID, err)
			http.Error(w, "failed to get transactions", http.StatusInternalServerError)
			return
		}

		txns = aggregate.Search(txns, query.Get("q"))
		aggregate.NewestFirst(txns)
		writeJSON(w, http.StatusOK, txns)
	}
}

func DeleteTransaction(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		id := chi.URLParam(r, "transaction_id")

		if err := db.DeleteTransaction(r.Context(), pool, userID, id); err != nil {
			log.Printf("ERROR: Failed to delete transaction %s for user %d: %v", id, userID, err)
			writeError(w, err, "failed to delete transaction")
			return
		}
		cache.DelSummaryCache(userID)

		log.Printf("INFO: Deleted transaction %s for user %d", id, userID)
		w.WriteHeader(http.StatusNoContent)
	}
}
