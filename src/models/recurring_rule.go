package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurringRule is a monthly transaction template. LastProcessedDate is nil
// until the rule has been materialized once.
type RecurringRule struct {
	ID                string          `json:"id"`
	UserID            int64           `json:"user_id"`
	Type              TransactionType `json:"type"`
	Category          Category        `json:"category"`
	Amount            decimal.Decimal `json:"amount"`
	DayOfMonth        int             `json:"day_of_month"`
	Note              string          `json:"note"`
	LastProcessedDate *time.Time      `json:"last_processed_date"`
	CreatedAt         time.Time       `json:"created_at"`
}

type CreateRecurringRuleRequest struct {
	Type       string          `json:"type"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	DayOfMonth int             `json:"day_of_month"`
	Note       string          `json:"note"`
}

// Rule validates the request and builds the rule it describes.
func (req CreateRecurringRuleRequest) Rule(userID int64) (*RecurringRule, error) {
	t, err := ParseTransactionType(req.Type)
	if err != nil {
		return nil, err
	}
	c, err := ParseCategory(t, req.Category)
	if err != nil {
		return nil, err
	}
	if err := ValidateAmount("amount", req.Amount); err != nil {
		return nil, err
	}
	if req.DayOfMonth < 1 || req.DayOfMonth > 31 {
		return nil, &ValidationError{Field: "day_of_month", Message: "must be between 1 and 31"}
	}
	return &RecurringRule{
		UserID:     userID,
		Type:       t,
		Category:   c,
		Amount:     req.Amount,
		DayOfMonth: req.DayOfMonth,
		Note:       req.Note,
	}, nil
}
