package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is keyed by (UserID, Category); saving it again replaces the limit.
type Budget struct {
	UserID    int64           `json:"user_id"`
	Category  Category        `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BudgetStatus is the spending of one expense category against its limit.
type BudgetStatus struct {
	Category  Category        `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Percent   decimal.Decimal `json:"percent"`
	Exceeded  bool            `json:"exceeded"`
}
