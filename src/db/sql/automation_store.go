package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"smartspend-server/src/automation"
	cache "smartspend-server/src/db"
	"smartspend-server/src/models"
)

// AutomationStore backs the recurring rule automation with Postgres.
type AutomationStore struct {
	Pool *pgxpool.Pool
}

var (
	_ automation.Store      = AutomationStore{}
	_ automation.RuleSource = AutomationStore{}
)

func (s AutomationStore) ListRecurringRules(ctx context.Context, userID int64) ([]models.RecurringRule, error) {
	return GetAllRecurringRules(ctx, s.Pool, userID)
}

func (s AutomationStore) InsertTransaction(ctx context.Context, userID int64, draft models.TransactionDraft) (*models.Transaction, error) {
	txn, err := CreateTransaction(ctx, s.Pool, userID, draft)
	if err != nil {
		return nil, err
	}
	cache.DelSummaryCache(userID)
	return txn, nil
}

func (s AutomationStore) MarkRuleProcessed(ctx context.Context, userID int64, ruleID string, at time.Time) error {
	return SetRuleLastProcessed(ctx, s.Pool, userID, ruleID, at)
}
