package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartspend-server/src/automation"
	"smartspend-server/src/models"
)

const transactionColumns = `id, user_id, amount::text, category, date, note, type, receipt_url, idempotency_key, created_at`

// CreateTransaction stores draft for userID. A draft carrying an idempotency
// key that the user already has returns automation.ErrAlreadyMaterialized.
func CreateTransaction(ctx context.Context, pool *pgxpool.Pool, userID int64, draft models.TransactionDraft) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (id, user_id, amount, category, date, note, type, receipt_url, idempotency_key)
		VALUES ($1, $2, $3::text::numeric, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING
		RETURNING ` + transactionColumns

	row := pool.QueryRow(ctx, query,
		uuid.NewString(),
		userID,
		draft.Amount.String(),
		string(draft.Category),
		draft.Date,
		draft.Note,
		string(draft.Type),
		draft.ReceiptURL,
		draft.IdempotencyKey,
	)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, automation.ErrAlreadyMaterialized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return txn, nil
}

func GetAllTransactions(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// GetTransactionsBetween returns transactions dated in [from, to).
func GetTransactionsBetween(ctx context.Context, pool *pgxpool.Pool, userID int64, from, to time.Time) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date < $3
		ORDER BY date DESC, created_at DESC
	`
	rows, err := pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

func DeleteTransaction(ctx context.Context, pool *pgxpool.Pool, userID int64, id string) error {
	cmd, err := pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *txn)
	}
	return transactions, rows.Err()
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var (
		t        models.Transaction
		amount   string
		category string
		typ      string
	)
	err := row.Scan(&t.ID, &t.UserID, &amount, &category, &t.Date, &t.Note, &typ, &t.ReceiptURL, &t.IdempotencyKey, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if t.Amount, err = parseAmount(amount); err != nil {
		return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Category = models.Category(category)
	t.Type = models.TransactionType(typ)
	return &t, nil
}
