package automation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartspend-server/src/models"
)

// memStore keeps rules and transactions in memory and enforces the
// idempotency key the way the Postgres unique index does.
type memStore struct {
	mu        sync.Mutex
	rules     map[string]models.RecurringRule
	txns      []models.Transaction
	keys      map[string]bool
	insertErr func(models.TransactionDraft) error
	markErr   func(ruleID string) error
	listCalls int
	listHook  func()
}

func newMemStore(rules ...models.RecurringRule) *memStore {
	s := &memStore{rules: make(map[string]models.RecurringRule), keys: make(map[string]bool)}
	for _, r := range rules {
		s.rules[r.ID] = r
	}
	return s
}

func (s *memStore) ListRecurringRules(_ context.Context, userID int64) ([]models.RecurringRule, error) {
	s.mu.Lock()
	s.listCalls++
	hook := s.listHook
	var out []models.RecurringRule
	for _, r := range s.rules {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) InsertTransaction(_ context.Context, userID int64, draft models.TransactionDraft) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		if err := s.insertErr(draft); err != nil {
			return nil, err
		}
	}
	if draft.IdempotencyKey != nil {
		if s.keys[*draft.IdempotencyKey] {
			return nil, ErrAlreadyMaterialized
		}
		s.keys[*draft.IdempotencyKey] = true
	}
	txn := models.Transaction{
		ID:             fmt.Sprintf("txn-%d", len(s.txns)+1),
		UserID:         userID,
		Amount:         draft.Amount,
		Category:       draft.Category,
		Date:           draft.Date,
		Note:           draft.Note,
		Type:           draft.Type,
		IdempotencyKey: draft.IdempotencyKey,
	}
	s.txns = append(s.txns, txn)
	return &txn, nil
}

func (s *memStore) MarkRuleProcessed(_ context.Context, userID int64, ruleID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		if err := s.markErr(ruleID); err != nil {
			return err
		}
	}
	r, ok := s.rules[ruleID]
	if !ok || r.UserID != userID {
		return errors.New("rule not found")
	}
	r.LastProcessedDate = &at
	s.rules[ruleID] = r
	return nil
}

func (s *memStore) transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Transaction(nil), s.txns...)
}

func (s *memStore) rule(id string) models.RecurringRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules[id]
}

func rule(id string, dom int) models.RecurringRule {
	return models.RecurringRule{
		ID:         id,
		UserID:     1,
		Type:       models.Expense,
		Category:   models.CategoryBills,
		Amount:     decimal.NewFromInt(120),
		DayOfMonth: dom,
		Note:       id,
	}
}

func TestRunPassMaterializesDueRules(t *testing.T) {
	store := newMemStore(rentRule(nil), rule("later", 20))
	now := day(2026, time.March, 5)
	rules, _ := store.ListRecurringRules(context.Background(), 1)

	effects := RunPass(context.Background(), 1, rules, now, store)

	require.Len(t, effects, 1)
	assert.Equal(t, "rule-rent", effects[0].RuleID)
	assert.Equal(t, Materialized, effects[0].Outcome)
	require.NotNil(t, effects[0].Transaction)

	txns := store.transactions()
	require.Len(t, txns, 1)
	assert.Equal(t, "2026-03-03", txns[0].Date.Format(time.DateOnly))
	assert.True(t, txns[0].Amount.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, models.CategoryRent, txns[0].Category)

	marked := store.rule("rule-rent").LastProcessedDate
	require.NotNil(t, marked)
	assert.True(t, marked.Equal(now))
	assert.Nil(t, store.rule("later").LastProcessedDate)
}

func TestRunPassNoDueRulesWritesNothing(t *testing.T) {
	last := day(2026, time.March, 3)
	store := newMemStore(rentRule(&last), rule("later", 20))
	store.insertErr = func(models.TransactionDraft) error { return errors.New("unexpected insert") }
	store.markErr = func(string) error { return errors.New("unexpected mark") }
	rules, _ := store.ListRecurringRules(context.Background(), 1)

	effects := RunPass(context.Background(), 1, rules, day(2026, time.March, 10), store)

	assert.Empty(t, effects)
	assert.Empty(t, store.transactions())
}

func TestRunPassTwiceOnFreshSnapshotsProducesOneTransaction(t *testing.T) {
	store := newMemStore(rentRule(nil))
	now := day(2026, time.March, 5)

	for i := 0; i < 2; i++ {
		rules, _ := store.ListRecurringRules(context.Background(), 1)
		RunPass(context.Background(), 1, rules, now, store)
	}
	assert.Len(t, store.transactions(), 1)
}

func TestRunPassTwiceOnStaleSnapshotProducesOneTransaction(t *testing.T) {
	store := newMemStore(rentRule(nil))
	now := day(2026, time.March, 5)
	stale, _ := store.ListRecurringRules(context.Background(), 1)

	first := RunPass(context.Background(), 1, stale, now, store)
	second := RunPass(context.Background(), 1, stale, now, store)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, Materialized, first[0].Outcome)
	assert.Equal(t, Repaired, second[0].Outcome)
	assert.Nil(t, second[0].Transaction)
	assert.Len(t, store.transactions(), 1)
}

func TestRunPassInsertFailureDoesNotBlockOtherRules(t *testing.T) {
	store := newMemStore(rule("a", 1), rule("b", 1), rule("c", 1))
	store.insertErr = func(d models.TransactionDraft) error {
		if d.Note == "b (Auto)" {
			return errors.New("connection reset")
		}
		return nil
	}
	rules, _ := store.ListRecurringRules(context.Background(), 1)

	effects := RunPass(context.Background(), 1, rules, day(2026, time.March, 5), store)

	require.Len(t, effects, 3)
	assert.Equal(t, Materialized, effects[0].Outcome)
	assert.Equal(t, InsertFailed, effects[1].Outcome)
	assert.Equal(t, "connection reset", effects[1].Error)
	assert.Equal(t, Materialized, effects[2].Outcome)
	assert.Len(t, store.transactions(), 2)
	assert.Nil(t, store.rule("b").LastProcessedDate, "failed rule stays due")

	// The next pass retries only the failed rule.
	store.insertErr = nil
	rules, _ = store.ListRecurringRules(context.Background(), 1)
	retry := RunPass(context.Background(), 1, rules, day(2026, time.March, 6), store)
	require.Len(t, retry, 1)
	assert.Equal(t, "b", retry[0].RuleID)
	assert.Equal(t, Materialized, retry[0].Outcome)
	assert.Len(t, store.transactions(), 3)
}

func TestRunPassMarkerFailureIsRepairedWithoutDuplicate(t *testing.T) {
	store := newMemStore(rentRule(nil))
	store.markErr = func(string) error { return errors.New("timeout") }
	now := day(2026, time.March, 5)

	rules, _ := store.ListRecurringRules(context.Background(), 1)
	effects := RunPass(context.Background(), 1, rules, now, store)
	require.Len(t, effects, 1)
	assert.Equal(t, MarkerFailed, effects[0].Outcome)
	require.NotNil(t, effects[0].Transaction)
	assert.Nil(t, store.rule("rule-rent").LastProcessedDate)

	store.markErr = nil
	rules, _ = store.ListRecurringRules(context.Background(), 1)
	effects = RunPass(context.Background(), 1, rules, now.Add(time.Hour), store)
	require.Len(t, effects, 1)
	assert.Equal(t, Repaired, effects[0].Outcome)
	assert.NotNil(t, store.rule("rule-rent").LastProcessedDate)
	assert.Len(t, store.transactions(), 1)
}

func TestRunPassNextMonth(t *testing.T) {
	store := newMemStore(rentRule(nil))

	for _, now := range []time.Time{
		day(2026, time.March, 5),
		day(2026, time.March, 20),
		day(2026, time.April, 2),
		day(2026, time.April, 3),
		day(2026, time.April, 28),
		day(2026, time.May, 31),
	} {
		rules, _ := store.ListRecurringRules(context.Background(), 1)
		RunPass(context.Background(), 1, rules, now, store)
	}

	var dates []string
	for _, txn := range store.transactions() {
		dates = append(dates, txn.Date.Format(time.DateOnly))
	}
	assert.Equal(t, []string{"2026-03-03", "2026-04-03", "2026-05-03"}, dates)
}

func TestRunPassStopsWhenCancelled(t *testing.T) {
	store := newMemStore(rule("a", 1), rule("b", 1))
	ctx, cancel := context.WithCancel(context.Background())
	store.markErr = func(ruleID string) error {
		if ruleID == "a" {
			cancel()
		}
		return nil
	}
	rules, _ := store.ListRecurringRules(context.Background(), 1)

	effects := RunPass(ctx, 1, rules, day(2026, time.March, 5), store)

	require.Len(t, effects, 1)
	assert.Equal(t, "a", effects[0].RuleID)
	assert.Len(t, store.transactions(), 1)
}

func TestRunPassSkipsRulesOfOtherUsers(t *testing.T) {
	foreign := rule("foreign", 1)
	foreign.UserID = 2
	store := newMemStore(foreign)

	effects := RunPass(context.Background(), 1, []models.RecurringRule{foreign}, day(2026, time.March, 5), store)

	assert.Empty(t, effects)
	assert.Empty(t, store.transactions())
}
