package automation

import (
	"context"
	"errors"
	"log"
	"time"

	"smartspend-server/src/models"
)

// ErrAlreadyMaterialized is returned by Store.InsertTransaction when a
// transaction with the same idempotency key already exists.
var ErrAlreadyMaterialized = errors.New("transaction already materialized for this period")

// Store is the persistence a pass needs. Every call is scoped to userID.
type Store interface {
	InsertTransaction(ctx context.Context, userID int64, draft models.TransactionDraft) (*models.Transaction, error)
	MarkRuleProcessed(ctx context.Context, userID int64, ruleID string, at time.Time) error
}

// RuleSource returns the current rule snapshot of a user.
type RuleSource interface {
	ListRecurringRules(ctx context.Context, userID int64) ([]models.RecurringRule, error)
}

type Outcome string

const (
	// Materialized: transaction stored and marker updated.
	Materialized Outcome = "materialized"
	// Repaired: the period already had its transaction; only the marker was written.
	Repaired Outcome = "repaired"
	// InsertFailed: nothing was written, the rule stays due.
	InsertFailed Outcome = "insert_failed"
	// MarkerFailed: the transaction exists but the marker was not updated.
	MarkerFailed Outcome = "marker_failed"
)

// Effect records what a pass did for one due rule.
type Effect struct {
	RuleID      string              `json:"rule_id"`
	Outcome     Outcome             `json:"outcome"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// RunPass evaluates every rule of one snapshot once, in order, and commits
// each due rule before looking at the next one. Rules that are not due produce
// no effect and no writes. A cancelled ctx stops the pass between rules.
func RunPass(ctx context.Context, userID int64, rules []models.RecurringRule, now time.Time, store Store) []Effect {
	var effects []Effect
	for _, rule := range rules {
		if ctx.Err() != nil {
			log.Printf("WARN: Automation pass for user %d stopped after %d effects: %v", userID, len(effects), ctx.Err())
			break
		}
		if rule.UserID != 0 && rule.UserID != userID {
			log.Printf("ERROR: Skipping rule %s owned by user %d in pass for user %d", rule.ID, rule.UserID, userID)
			continue
		}
		if !IsDue(rule, now) {
			continue
		}
		effects = append(effects, commit(ctx, userID, rule, now, store))
	}
	return effects
}

func commit(ctx context.Context, userID int64, rule models.RecurringRule, now time.Time, store Store) Effect {
	effect := Effect{RuleID: rule.ID, Outcome: Materialized}

	txn, err := store.InsertTransaction(ctx, userID, Materialize(rule, now))
	switch {
	case errors.Is(err, ErrAlreadyMaterialized):
		effect.Outcome = Repaired
	case err != nil:
		log.Printf("ERROR: Failed to materialize rule %s for user %d: %v", rule.ID, userID, err)
		effect.Outcome = InsertFailed
		effect.Error = err.Error()
		return effect
	default:
		effect.Transaction = txn
	}

	if err := store.MarkRuleProcessed(ctx, userID, rule.ID, now); err != nil {
		log.Printf("ERROR: Rule %s for user %d materialized but marker update failed: %v", rule.ID, userID, err)
		effect.Outcome = MarkerFailed
		effect.Error = err.Error()
		return effect
	}

	if effect.Outcome == Repaired {
		log.Printf("INFO: Rule %s for user %d already materialized for %s, marker repaired", rule.ID, userID, now.Format("2006-01"))
	} else {
		log.Printf("INFO: Materialized rule %s for user %d as transaction %s", rule.ID, userID, txn.ID)
	}
	return effect
}
