package db

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartspend-server/src/aggregate"
	"smartspend-server/src/automation"
	cache "smartspend-server/src/db"
	"smartspend-server/src/models"
)

// testPool connects to DATABASE_URL and applies the schema. Tests using it
// are skipped without a database.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := cache.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, cache.Migrate(ctx, pool))
	return pool
}

func testUser(t *testing.T, pool *pgxpool.Pool) int64 {
	t.Helper()
	ctx := context.Background()
	user, err := CreateUser(ctx, pool, models.RegisterRequest{
		Name:  "Test",
		Email: uuid.NewString() + "@example.com",
	}, []byte("hash"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = DeleteUser(context.Background(), pool, user.ID) })
	return user.ID
}

func TestCreateTransactionIdempotencyKey(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	userID := testUser(t, pool)

	rule := models.RecurringRule{
		ID:         uuid.NewString(),
		Type:       models.Expense,
		Category:   models.CategoryRent,
		Amount:     decimal.NewFromInt(25000),
		DayOfMonth: 3,
		Note:       "Apartment",
	}
	draft := automation.Materialize(rule, time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC))

	first, err := CreateTransaction(ctx, pool, userID, draft)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-03", first.Date.Format(time.DateOnly))
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(25000)))

	_, err = CreateTransaction(ctx, pool, userID, draft)
	assert.True(t, errors.Is(err, automation.ErrAlreadyMaterialized))

	// Manual transactions carry no key and never collide.
	manual := models.TransactionDraft{
		Amount:   decimal.RequireFromString("4500.50"),
		Category: models.CategoryFood,
		Date:     time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC),
		Type:     models.Expense,
	}
	for i := 0; i < 2; i++ {
		_, err := CreateTransaction(ctx, pool, userID, manual)
		require.NoError(t, err)
	}

	txns, err := GetAllTransactions(ctx, pool, userID)
	require.NoError(t, err)
	assert.Len(t, txns, 3)
	assert.True(t, aggregate.Expenses(txns).Equal(decimal.RequireFromString("34001")))
}

func TestAutomationStoreDropsSummaryCache(t *testing.T) {
	pool := testPool(t)
	require.NoError(t, cache.InitCache())
	t.Cleanup(func() {
		cache.Cache.Close()
		cache.Cache = nil
	})
	userID := testUser(t, pool)
	store := AutomationStore{Pool: pool}

	require.True(t, cache.SetSummaryCache(userID, cache.SummaryGeneration(userID), aggregate.Summary{}))
	cache.Cache.Wait()

	_, err := store.InsertTransaction(context.Background(), userID, models.TransactionDraft{
		Amount:   decimal.NewFromInt(100),
		Category: models.CategorySalary,
		Date:     time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Type:     models.Income,
	})
	require.NoError(t, err)

	_, ok := cache.GetSummaryCache(userID)
	assert.False(t, ok)
}

// waitForUser returns true if a rule notification for userID arrives within d.
func waitForUser(t *testing.T, conn *pgx.Conn, userID int64, d time.Duration) bool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return false
		}
		if n.Channel == cache.RuleChannel && n.Payload == strconv.FormatInt(userID, 10) {
			return true
		}
	}
}

func TestRuleTriggerIgnoresMarkerWrites(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	userID := testUser(t, pool)

	conn, err := pgx.Connect(ctx, os.Getenv("DATABASE_URL"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(context.Background()) })
	_, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{cache.RuleChannel}.Sanitize())
	require.NoError(t, err)

	created, err := CreateRecurringRule(ctx, pool, &models.RecurringRule{
		UserID:     userID,
		Type:       models.Expense,
		Category:   models.CategoryBills,
		Amount:     decimal.NewFromInt(120),
		DayOfMonth: 1,
	})
	require.NoError(t, err)
	assert.True(t, waitForUser(t, conn, userID, 2*time.Second), "insert notifies")

	require.NoError(t, SetRuleLastProcessed(ctx, pool, userID, created.ID, time.Now()))
	assert.False(t, waitForUser(t, conn, userID, 300*time.Millisecond), "marker write does not notify")

	require.NoError(t, DeleteRecurringRule(ctx, pool, userID, created.ID))
	assert.True(t, waitForUser(t, conn, userID, 2*time.Second), "delete notifies")

	err = SetRuleLastProcessed(ctx, pool, userID, created.ID, time.Now())
	assert.True(t, errors.Is(err, ErrNotFound))
}
