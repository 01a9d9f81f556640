package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"smartspend-server/src/models"
)

// UpsertBudget writes the limit of (user, category), replacing any previous one.
func UpsertBudget(ctx context.Context, pool *pgxpool.Pool, budget *models.Budget) (*models.Budget, error) {
	query := `
		INSERT INTO budgets (user_id, category, "limit", updated_at)
		VALUES ($1, $2, $3::text::numeric, NOW())
		ON CONFLICT (user_id, category) DO UPDATE SET "limit" = EXCLUDED."limit", updated_at = NOW()
		RETURNING user_id, category, "limit"::text, updated_at
	`
	var (
		b        models.Budget
		category string
		limit    string
	)
	err := pool.QueryRow(ctx, query, budget.UserID, string(budget.Category), budget.Limit.String()).
		Scan(&b.UserID, &category, &limit, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert budget: %w", err)
	}
	b.Category = models.Category(category)
	if b.Limit, err = parseAmount(limit); err != nil {
		return nil, err
	}
	return &b, nil
}

func GetAllBudgetsForUser(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Budget, error) {
	query := `
		SELECT user_id, category, "limit"::text, updated_at
		FROM budgets WHERE user_id = $1
		ORDER BY category
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	budgets := []models.Budget{}
	for rows.Next() {
		var (
			b        models.Budget
			category string
			limit    string
		)
		if err := rows.Scan(&b.UserID, &category, &limit, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.Category = models.Category(category)
		if b.Limit, err = parseAmount(limit); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func DeleteBudget(ctx context.Context, pool *pgxpool.Pool, userID int64, category models.Category) error {
	cmd, err := pool.Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND category = $2`, userID, string(category))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
