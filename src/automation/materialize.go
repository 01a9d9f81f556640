package automation

import (
	"fmt"
	"strings"
	"time"

	"smartspend-server/src/models"
)

// AutoNoteSuffix marks notes of transactions created from a rule.
const AutoNoteSuffix = " (Auto)"

// Materialize builds the transaction for rule in the month of now. The date is
// the rule's trigger day at 00:00 UTC, so the stored calendar day is the one
// the user picked regardless of the server's zone.
func Materialize(rule models.RecurringRule, now time.Time) models.TransactionDraft {
	day := TriggerDay(rule.DayOfMonth, now.Year(), now.Month())
	key := PeriodKey(rule.ID, now)
	note := strings.TrimSpace(rule.Note)
	if note == "" {
		note = string(rule.Category)
	}
	return models.TransactionDraft{
		Amount:         rule.Amount,
		Category:       rule.Category,
		Date:           time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, time.UTC),
		Note:           note + AutoNoteSuffix,
		Type:           rule.Type,
		IdempotencyKey: &key,
	}
}

// PeriodKey identifies the one transaction a rule may produce in the month of
// now, e.g. "4f1c...:2026-03".
func PeriodKey(ruleID string, now time.Time) string {
	return fmt.Sprintf("%s:%04d-%02d", ruleID, now.Year(), int(now.Month()))
}
