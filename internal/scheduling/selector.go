package scheduling

import (
	"time"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
)

// DueSchedule is a schedule selected for this run together with the due date
// it was selected on.
type DueSchedule struct {
	Schedule models.MaintenanceSchedule
	DueDate  time.Time
	// RawDueDate is next_due_date exactly as stored, used as the expected
	// value when the schedule is advanced.
	RawDueDate string
}

// Today returns the calendar date of now in loc, as midnight UTC so that it
// compares directly with parsed schedule dates.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// SelectDue returns the active schedules due on or before today. Schedules
// without a due date are terminal and skipped; schedules whose due date cannot
// be parsed are returned as rejected instead.
func SelectDue(schedules []models.MaintenanceSchedule, today time.Time) (due []DueSchedule, rejected []Failure) {
	for _, schedule := range schedules {
		if schedule.Status != models.ScheduleActive {
			continue
		}
		dueDate, ok, err := schedule.DueDate()
		if err != nil {
			rejected = append(rejected, Failure{
				ScheduleID: schedule.ID.Hex(),
				Error:      ErrInvalidDueDate.Error() + ": " + err.Error(),
			})
			continue
		}
		if !ok || dueDate.After(today) {
			continue
		}
		due = append(due, DueSchedule{
			Schedule:   schedule,
			DueDate:    dueDate,
			RawDueDate: *schedule.NextDueDate,
		})
	}
	return due, rejected
}
