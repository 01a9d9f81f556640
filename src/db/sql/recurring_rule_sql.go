package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartspend-server/src/models"
)

const recurringRuleColumns = `id, user_id, type, category, amount::text, day_of_month, note, last_processed_date, created_at`

func CreateRecurringRule(ctx context.Context, pool *pgxpool.Pool, rule *models.RecurringRule) (*models.RecurringRule, error) {
	query := `
		INSERT INTO recurring_rules (id, user_id, type, category, amount, day_of_month, note, last_processed_date)
		VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7, NULL)
		RETURNING ` + recurringRuleColumns

	row := pool.QueryRow(ctx, query,
		uuid.NewString(),
		rule.UserID,
		string(rule.Type),
		string(rule.Category),
		rule.Amount.String(),
		rule.DayOfMonth,
		rule.Note,
	)
	created, err := scanRecurringRule(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert recurring rule: %w", err)
	}
	return created, nil
}

func GetRecurringRuleByID(ctx context.Context, pool *pgxpool.Pool, userID int64, ruleID string) (*models.RecurringRule, error) {
	query := `SELECT ` + recurringRuleColumns + ` FROM recurring_rules WHERE id = $1 AND user_id = $2`
	rule, err := scanRecurringRule(pool.QueryRow(ctx, query, ruleID, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return rule, nil
}

// GetAllRecurringRules returns the rule snapshot of a user in creation order.
func GetAllRecurringRules(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.RecurringRule, error) {
	query := `
		SELECT ` + recurringRuleColumns + `
		FROM recurring_rules
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []models.RecurringRule{}
	for rows.Next() {
		r, err := scanRecurringRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}
	return rules, rows.Err()
}

// SetRuleLastProcessed writes the execution marker. It is the only update a
// rule ever receives.
func SetRuleLastProcessed(ctx context.Context, pool *pgxpool.Pool, userID int64, ruleID string, at time.Time) error {
	query := `UPDATE recurring_rules SET last_processed_date = $1 WHERE id = $2 AND user_id = $3`
	cmd, err := pool.Exec(ctx, query, at, ruleID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func DeleteRecurringRule(ctx context.Context, pool *pgxpool.Pool, userID int64, ruleID string) error {
	cmd, err := pool.Exec(ctx, `DELETE FROM recurring_rules WHERE id = $1 AND user_id = $2`, ruleID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecurringRule(row pgx.Row) (*models.RecurringRule, error) {
	var (
		r        models.RecurringRule
		typ      string
		category string
		amount   string
	)
	err := row.Scan(&r.ID, &r.UserID, &typ, &category, &amount, &r.DayOfMonth, &r.Note, &r.LastProcessedDate, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if r.Amount, err = parseAmount(amount); err != nil {
		return nil, fmt.Errorf("recurring rule %s: %w", r.ID, err)
	}
	r.Type = models.TransactionType(typ)
	r.Category = models.Category(category)
	return &r, nil
}
