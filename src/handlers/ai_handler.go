package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"smartspend-server/src/aggregate"
	"smartspend-server/src/ai"
	db "smartspend-server/src/db/sql"
)

const (
	maxReceiptBytes     = 10 << 20
	insightTransactions = 50
)

// AnalyzeReceipt reads the multipart field "image" and returns the draft the
// model proposes. 204 means nothing usable was found.
func AnalyzeReceipt(svc *ai.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		r.Body = http.MaxBytesReader(w, r.Body, maxReceiptBytes)

		file, header, err := r.FormFile("image")
		if err != nil {
			log.Printf("ERROR: Failed to read receipt upload for user %d: %v", userID, err)
			http.Error(w, "image is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		image, err := io.ReadAll(file)
		if err != nil {
			log.Printf("ERROR: Failed to read receipt image for user %d: %v", userID, err)
			http.Error(w, "invalid image", http.StatusBadRequest)
			return
		}
		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = http.DetectContentType(image)
		}

		draft, err := svc.AnalyzeReceipt(r.Context(), image, mimeType)
		if err != nil {
			log.Printf("WARN: No receipt draft for user %d: %v", userID, err)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, draft)
	}
}

func GetInsights(pool *pgxpool.Pool, svc *ai.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		txns, err := db.GetAllTransactions(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get transactions for insights of user %d: %v", userID, err)
			http.Error(w, "failed to get insights", http.StatusInternalServerError)
			return
		}
		aggregate.NewestFirst(txns)
		if len(txns) > insightTransactions {
			txns = txns[:insightTransactions]
		}

		writeJSON(w, http.StatusOK, map[string][]string{
			"insights": svc.Insights(r.Context(), txns),
		})
	}
}

func SuggestCategory(svc *ai.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Note   string          `json:"note"`
			Amount decimal.Decimal `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode categorize request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"category": string(svc.SuggestCategory(r.Context(), req.Note, req.Amount)),
		})
	}
}
