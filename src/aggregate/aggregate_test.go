package aggregate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartspend-server/src/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func txn(t models.TransactionType, c models.Category, amount string, date string, note string) models.Transaction {
	d, _ := time.Parse(time.DateOnly, date)
	return models.Transaction{Type: t, Category: c, Amount: dec(amount), Date: d, Note: note}
}

func sample() []models.Transaction {
	return []models.Transaction{
		txn(models.Income, models.CategorySalary, "85000", "2026-03-01", "Monthly Salary"),
		txn(models.Expense, models.CategoryRent, "25000", "2026-03-03", "Apartment Rent (Auto)"),
		txn(models.Expense, models.CategoryFood, "4500", "2026-03-05", "Grocery Run"),
	}
}

func TestBalance(t *testing.T) {
	txns := sample()
	assert.True(t, Income(txns).Equal(dec("85000")))
	assert.True(t, Expenses(txns).Equal(dec("29500")))
	assert.True(t, Balance(txns).Equal(dec("55500")), "got %s", Balance(txns))
}

func TestSumsAreExact(t *testing.T) {
	var txns []models.Transaction
	for i := 0; i < 10; i++ {
		txns = append(txns, txn(models.Expense, models.CategoryFood, "0.1", "2026-03-05", ""))
	}
	assert.Equal(t, "1", Expenses(txns).String())
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.True(t, s.Income.IsZero())
	assert.True(t, s.Expenses.IsZero())
	assert.True(t, s.Balance.IsZero())
}

func TestMonthly(t *testing.T) {
	txns := append(sample(), txn(models.Expense, models.CategoryBills, "120", "2026-04-10", "Electricity"))

	march := Monthly(txns, 2026, time.March)
	assert.Equal(t, "2026-03", march.Month)
	assert.True(t, march.Savings.Equal(dec("55500")))

	april := Monthly(txns, 2026, time.April)
	assert.True(t, april.Income.IsZero())
	assert.True(t, april.Expense.Equal(dec("120")))
	assert.True(t, april.Savings.Equal(dec("-120")))
}

func TestSearch(t *testing.T) {
	txns := sample()
	assert.Len(t, Search(txns, ""), 3)
	assert.Len(t, Search(txns, "grocery"), 1)
	assert.Len(t, Search(txns, "RENT"), 1)
	assert.Len(t, Search(txns, "4500"), 1)
	assert.Len(t, Search(txns, "(auto)"), 1)
	assert.Empty(t, Search(txns, "travel"))
}

func TestNewestFirst(t *testing.T) {
	txns := sample()
	NewestFirst(txns)
	assert.Equal(t, "Grocery Run", txns[0].Note)
	assert.Equal(t, "Monthly Salary", txns[2].Note)
}

func TestExpensesByCategory(t *testing.T) {
	txns := append(sample(), txn(models.Expense, models.CategoryFood, "500", "2026-03-08", ""))
	got := ExpensesByCategory(txns)
	require.Len(t, got, 2)
	assert.Equal(t, models.CategoryRent, got[0].Category)
	assert.Equal(t, models.CategoryFood, got[1].Category)
	assert.True(t, got[1].Total.Equal(dec("5000")))
}

func TestDaily(t *testing.T) {
	txns := append(sample(), txn(models.Expense, models.CategoryFood, "500", "2026-03-05", ""))

	all := Daily(txns, 0)
	require.Len(t, all, 3)
	assert.Equal(t, "2026-03-01", all[0].Date)
	assert.True(t, all[2].Expense.Equal(dec("5000")))
	assert.True(t, all[2].Income.IsZero())

	last := Daily(txns, 2)
	require.Len(t, last, 2)
	assert.Equal(t, "2026-03-03", last[0].Date)
}

func TestBudgetStatuses(t *testing.T) {
	txns := append(sample(), txn(models.Expense, models.CategoryTravel, "45", "2026-03-06", "Uber"))
	budgets := []models.Budget{
		{Category: models.CategoryFood, Limit: dec("4000")},
		{Category: models.CategoryTravel, Limit: dec("200")},
	}

	statuses := BudgetStatuses(txns, budgets)
	require.Len(t, statuses, len(models.ExpenseCategories))

	byCat := make(map[models.Category]models.BudgetStatus)
	for _, s := range statuses {
		byCat[s.Category] = s
	}

	food := byCat[models.CategoryFood]
	assert.True(t, food.Exceeded)
	assert.True(t, food.Remaining.IsZero())
	assert.True(t, food.Percent.Equal(dec("112.5")))

	travel := byCat[models.CategoryTravel]
	assert.False(t, travel.Exceeded)
	assert.True(t, travel.Remaining.Equal(dec("155")))
	assert.True(t, travel.Percent.Equal(dec("22.5")))

	rent := byCat[models.CategoryRent]
	assert.True(t, rent.Limit.IsZero())
	assert.True(t, rent.Spent.Equal(dec("25000")))
	assert.False(t, rent.Exceeded)
	assert.True(t, rent.Percent.IsZero())
}
