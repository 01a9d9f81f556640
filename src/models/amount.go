package models

import "github.com/shopspring/decimal"

// Amounts are stored as NUMERIC(18, 2).
var maxAmount = decimal.New(1, 16)

// ValidateAmount rejects amounts the store would round or refuse: zero or
// negative values, more than two decimal places, and values too large for
// the column.
func ValidateAmount(field string, d decimal.Decimal) error {
	switch {
	case !d.IsPositive():
		return &ValidationError{Field: field, Message: "must be greater than zero"}
	case !d.Equal(d.Truncate(2)):
		return &ValidationError{Field: field, Message: "must have at most two decimal places"}
	case d.GreaterThanOrEqual(maxAmount):
		return &ValidationError{Field: field, Message: "is too large"}
	}
	return nil
}
