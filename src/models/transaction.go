package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction dates are calendar dates stored at 00:00 UTC.
type Transaction struct {
	ID             string          `json:"id"`
	UserID         int64           `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	Category       Category        `json:"category"`
	Date           time.Time       `json:"date"`
	Note           string          `json:"note"`
	Type           TransactionType `json:"type"`
	ReceiptURL     *string         `json:"receipt_url"`
	IdempotencyKey *string         `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TransactionDraft is a transaction that has not been stored yet.
type TransactionDraft struct {
	Amount         decimal.Decimal
	Category       Category
	Date           time.Time
	Note           string
	Type           TransactionType
	ReceiptURL     *string
	IdempotencyKey *string
}

type CreateTransactionRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category"`
	Date       string          `json:"date"`
	Note       string          `json:"note"`
	Type       string          `json:"type"`
	ReceiptURL *string         `json:"receipt_url"`
}

func (req CreateTransactionRequest) Draft() (*TransactionDraft, error) {
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
	date, err := ParseCalendarDate(req.Date)
	if err != nil {
		return nil, err
	}

	var receipt *string
	if req.ReceiptURL != nil && strings.TrimSpace(*req.ReceiptURL) != "" {
		receipt = req.ReceiptURL
	}

	return &TransactionDraft{
		Amount:     req.Amount,
		Category:   c,
		Date:       date,
		Note:       strings.TrimSpace(req.Note),
		Type:       t,
		ReceiptURL: receipt,
	}, nil
}

// ParseCalendarDate accepts YYYY-MM-DD or RFC3339 and returns the calendar day
// it names at 00:00 UTC. For RFC3339 the day is read in the value's own offset.
func ParseCalendarDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Message: "expected YYYY-MM-DD or RFC3339"}
	}
	return CalendarDate(ts), nil
}

// CalendarDate drops the clock of t, keeping the year, month and day as seen
// in t's location.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
