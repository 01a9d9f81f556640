// Package aggregate holds the read-side folds over a user's transactions that
// the dashboard, budget and report views are built from.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"smartspend-server/src/models"
)

var hundred = decimal.NewFromInt(100)

func SumWhere(txns []models.Transaction, t models.TransactionType) decimal.Decimal {
	sum := decimal.Zero
	for _, txn := range txns {
		if txn.Type == t {
			sum = sum.Add(txn.Amount)
		}
	}
	return sum
}

func Income(txns []models.Transaction) decimal.Decimal {
	return SumWhere(txns, models.Income)
}

func Expenses(txns []models.Transaction) decimal.Decimal {
	return SumWhere(txns, models.Expense)
}

// Balance is income minus expenses.
func Balance(txns []models.Transaction) decimal.Decimal {
	return Income(txns).Sub(Expenses(txns))
}

type Summary struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

func Summarize(txns []models.Transaction) Summary {
	income, expenses := Income(txns), Expenses(txns)
	return Summary{Income: income, Expenses: expenses, Balance: income.Sub(expenses)}
}

// InMonth keeps the transactions dated in the given calendar month.
func InMonth(txns []models.Transaction, year int, month time.Month) []models.Transaction {
	var out []models.Transaction
	for _, txn := range txns {
		if txn.Date.Year() == year && txn.Date.Month() == month {
			out = append(out, txn)
		}
	}
	return out
}

// Search keeps transactions whose note, category or amount contains term,
// ignoring case. An empty term keeps everything.
func Search(txns []models.Transaction, term string) []models.Transaction {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return txns
	}
	var out []models.Transaction
	for _, txn := range txns {
		if strings.Contains(strings.ToLower(txn.Note), term) ||
			strings.Contains(strings.ToLower(string(txn.Category)), term) ||
			strings.Contains(txn.Amount.String(), term) {
			out = append(out, txn)
		}
	}
	return out
}

// NewestFirst sorts by date descending, then by creation time descending.
func NewestFirst(txns []models.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.After(txns[j].Date)
		}
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})
}

type MonthlyStats struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Savings decimal.Decimal `json:"savings"`
}

func Monthly(txns []models.Transaction, year int, month time.Month) MonthlyStats {
	s := Summarize(InMonth(txns, year, month))
	return MonthlyStats{
		Month:   time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
		Income:  s.Income,
		Expense: s.Expenses,
		Savings: s.Balance,
	}
}

type CategoryTotal struct {
	Category models.Category `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// ExpensesByCategory totals expenses per category, largest first.
func ExpensesByCategory(txns []models.Transaction) []CategoryTotal {
	totals := make(map[models.Category]decimal.Decimal)
	for _, txn := range txns {
		if txn.Type != models.Expense {
			continue
		}
		totals[txn.Category] = totals[txn.Category].Add(txn.Amount)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for c, total := range totals {
		out = append(out, CategoryTotal{Category: c, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Total.Cmp(out[j].Total); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

type DailyTotal struct {
	Date    string          `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Daily totals income and expense per calendar day, oldest first, keeping the
// last limit days that have activity. limit <= 0 keeps all of them.
func Daily(txns []models.Transaction, limit int) []DailyTotal {
	byDay := make(map[string]*DailyTotal)
	for _, txn := range txns {
		key := txn.Date.Format(time.DateOnly)
		d, ok := byDay[key]
		if !ok {
			d = &DailyTotal{Date: key, Income: decimal.Zero, Expense: decimal.Zero}
			byDay[key] = d
		}
		switch txn.Type {
		case models.Income:
			d.Income = d.Income.Add(txn.Amount)
		case models.Expense:
			d.Expense = d.Expense.Add(txn.Amount)
		}
	}

	out := make([]DailyTotal, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// BudgetStatuses reports every expense category against its budget. Categories
// without a budget have a zero limit and are never marked exceeded.
func BudgetStatuses(txns []models.Transaction, budgets []models.Budget) []models.BudgetStatus {
	limits := make(map[models.Category]decimal.Decimal, len(budgets))
	for _, b := range budgets {
		limits[b.Category] = b.Limit
	}

	out := make([]models.BudgetStatus, 0, len(models.ExpenseCategories))
	for _, c := range models.ExpenseCategories {
		limit := limits[c]
		spent := decimal.Zero
		for _, txn := range txns {
			if txn.Type == models.Expense && txn.Category == c {
				spent = spent.Add(txn.Amount)
			}
		}

		status := models.BudgetStatus{
			Category:  c,
			Limit:     limit,
			Spent:     spent,
			Remaining: decimal.Max(decimal.Zero, limit.Sub(spent)),
			Percent:   decimal.Zero,
		}
		if limit.IsPositive() {
			status.Percent = spent.Div(limit).Mul(hundred).Round(2)
			status.Exceeded = spent.GreaterThan(limit)
		}
		out = append(out, status)
	}
	return out
}
