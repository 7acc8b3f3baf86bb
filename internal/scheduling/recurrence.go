package scheduling

import (
	"time"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
)

// NextDueDate returns the occurrence after current for rule. ok is false for
// unrecognized rules, which have no next occurrence.
//
// Month and year steps use time.AddDate, which normalises overflowing days
// forward instead of clamping: 2024-01-31 + 1 month is 2024-03-02 and
// 2024-02-29 + 1 year is 2025-03-01.
func NextDueDate(current time.Time, rule models.Recurrence) (time.Time, bool) {
	switch rule {
	case models.RecurrenceDaily:
		return current.AddDate(0, 0, 1), true
	case models.RecurrenceWeekly:
		return current.AddDate(0, 0, 7), true
	case models.RecurrenceMonthly:
		return current.AddDate(0, 1, 0), true
	case models.RecurrenceQuarterly:
		return current.AddDate(0, 3, 0), true
	case models.RecurrenceHalfYearly:
		return current.AddDate(0, 6, 0), true
	case models.RecurrenceYearly:
		return current.AddDate(1, 0, 0), true
	case models.RecurrenceBiYearly:
		return current.AddDate(2, 0, 0), true
	default:
		return time.Time{}, false
	}
}
