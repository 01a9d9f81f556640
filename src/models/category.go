package models

import (
	"fmt"
	"strings"
)

type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type Category string

const (
	CategoryFood       Category = "Food"
	CategoryTravel     Category = "Travel"
	CategoryRent       Category = "Rent"
	CategoryBills      Category = "Bills"
	CategoryShopping   Category = "Shopping"
	CategorySalary     Category = "Salary"
	CategoryInvestment Category = "Investment"
	CategoryFreelance  Category = "Freelance"
	CategoryCustom     Category = "Custom"
)

// ExpenseCategories and IncomeCategories are the closed category sets per
// transaction type. Custom belongs to both.
var (
	ExpenseCategories = []Category{CategoryFood, CategoryTravel, CategoryRent, CategoryBills, CategoryShopping, CategoryCustom}
	IncomeCategories  = []Category{CategorySalary, CategoryInvestment, CategoryFreelance, CategoryCustom}
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", &ValidationError{Field: "type", Message: fmt.Sprintf("unknown transaction type %q", s)}
}

// CategoriesFor returns the categories allowed for a transaction type.
func CategoriesFor(t TransactionType) []Category {
	switch t {
	case Income:
		return IncomeCategories
	case Expense:
		return ExpenseCategories
	}
	return nil
}

// ParseCategory matches s case-insensitively against the categories allowed
// for t.
func ParseCategory(t TransactionType, s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range CategoriesFor(t) {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "category", Message: fmt.Sprintf("category %q is not valid for %s", s, t)}
}

// ValidCategory reports whether c belongs to the set of t.
func ValidCategory(t TransactionType, c Category) bool {
	for _, allowed := range CategoriesFor(t) {
		if allowed == c {
			return true
		}
	}
	return false
}

// ValidationError is returned for input rejected before it reaches the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
