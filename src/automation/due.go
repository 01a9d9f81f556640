// Package automation materializes recurring rules into transactions.
//
// A rule runs at most once per calendar month, on or after its trigger day.
// Nothing here reads the wall clock; callers pass the evaluation time, and
// its location decides which calendar day "now" is.
package automation

import (
	"time"

	"smartspend-server/src/models"
)

// IsDue reports whether rule should be materialized at now.
func IsDue(rule models.RecurringRule, now time.Time) bool {
	if now.Day() < TriggerDay(rule.DayOfMonth, now.Year(), now.Month()) {
		return false
	}
	if rule.LastProcessedDate == nil {
		return true
	}

	last := rule.LastProcessedDate.In(now.Location())
	if last.Year() != now.Year() {
		return last.Year() < now.Year()
	}
	return last.Month() < now.Month()
}

// TriggerDay clamps dayOfMonth to the length of the given month, so a rule for
// the 31st fires on the 30th of April and the 28th or 29th of February.
func TriggerDay(dayOfMonth, year int, month time.Month) int {
	if n := DaysIn(year, month); dayOfMonth > n {
		return n
	}
	return dayOfMonth
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
