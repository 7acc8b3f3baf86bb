package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLayout is the wire format for calendar dates (no time component).
const DateLayout = "2006-01-02"

// Recurrence is the interval at which a maintenance schedule repeats.
type Recurrence string

const (
	RecurrenceDaily      Recurrence = "daily"
	RecurrenceWeekly     Recurrence = "weekly"
	RecurrenceMonthly    Recurrence = "monthly"
	RecurrenceQuarterly  Recurrence = "quarterly"
	RecurrenceHalfYearly Recurrence = "half_yearly"
	RecurrenceYearly     Recurrence = "yearly"
	RecurrenceBiYearly   Recurrence = "bi_yearly"
)

// IsKnown reports whether r is one of the supported recurrence rules.
func (r Recurrence) IsKnown() bool {
	switch r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceQuarterly,
		RecurrenceHalfYearly, RecurrenceYearly, RecurrenceBiYearly:
		return true
	default:
		return false
	}
}

// ScheduleStatus is the lifecycle state of a maintenance schedule.
type ScheduleStatus string

const (
	ScheduleActive   ScheduleStatus = "active"
	ScheduleInactive ScheduleStatus = "inactive"
)

// MaintenanceSchedule is a recurring maintenance obligation for a building or asset.
type MaintenanceSchedule struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BuildingID    string             `json:"building_id" bson:"building_id"`
	AssetID       string             `json:"asset_id,omitempty" bson:"asset_id,omitempty"`
	Subject       string             `json:"subject" bson:"subject"`
	Description   string             `json:"description" bson:"description"`
	Category      string             `json:"category" bson:"category"` // "plumbing", "electrical", "hvac", "fire_safety", "lifts", "other"
	Recurrence    Recurrence         `json:"recurrence" bson:"recurrence"`
	NextDueDate   *string            `json:"next_due_date" bson:"next_due_date"` // YYYY-MM-DD, nil when terminal or inactive
	EstimatedCost float64            `json:"estimated_cost" bson:"estimated_cost"`
	Status        ScheduleStatus     `json:"status" bson:"status"`
	WorkOrderIDs  []string           `json:"work_order_ids" bson:"work_order_ids"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

var (
	ErrMissingBuilding = errors.New("building_id is required")
	ErrMissingSubject  = errors.New("subject is required")
	ErrInvalidStatus   = errors.New("status must be active or inactive")
	ErrNegativeCost    = errors.New("estimated_cost must not be negative")
	ErrMissingDueDate  = errors.New("next_due_date is required for an active schedule with a known recurrence")
)

// DueDate parses NextDueDate. ok is false when the schedule has no due date.
func (s *MaintenanceSchedule) DueDate() (due time.Time, ok bool, err error) {
	if s.NextDueDate == nil || strings.TrimSpace(*s.NextDueDate) == "" {
		return time.Time{}, false, nil
	}
	due, err = ParseDate(*s.NextDueDate)
	if err != nil {
		return time.Time{}, false, err
	}
	return due, true, nil
}

// Validate checks the fields required before a schedule is persisted.
// Unknown recurrence values are accepted; they make the schedule terminal after one run.
// An active schedule with a known recurrence must have a due date.
func (s *MaintenanceSchedule) Validate() error {
	if strings.TrimSpace(s.BuildingID) == "" {
		return ErrMissingBuilding
	}
	if strings.TrimSpace(s.Subject) == "" {
		return ErrMissingSubject
	}
	if s.Status != ScheduleActive && s.Status != ScheduleInactive {
		return ErrInvalidStatus
	}
	if s.EstimatedCost < 0 {
		return ErrNegativeCost
	}
	_, ok, err := s.DueDate()
	if err != nil {
		return err
	}
	if !ok && s.Status == ScheduleActive && s.Recurrence.IsKnown() {
		return ErrMissingDueDate
	}
	return nil
}

// NormalizeDueDate rewrites NextDueDate in DateLayout form, clearing blank values.
func (s *MaintenanceSchedule) NormalizeDueDate() error {
	due, ok, err := s.DueDate()
	if err != nil {
		return err
	}
	if !ok {
		s.NextDueDate = nil
		return nil
	}
	s.NextDueDate = DatePtr(FormatDate(due))
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar date into UTC midnight.
// A trailing time component ("2024-01-31T00:00:00Z") is tolerated and dropped.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) > len(DateLayout) && value[len(DateLayout)] == 'T' {
		value = value[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

// FormatDate renders the calendar date of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DatePtr is a convenience for building schedules with a due date.
func DatePtr(value string) *string {
	return &value
}
