package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
)

const (
	defaultCategory   = "other"
	generatedPriority = "medium"
	openStatus        = "open"
)

// NewWorkOrder drafts the work order for one occurrence of schedule. The id is
// left for the store to assign.
func NewWorkOrder(schedule models.MaintenanceSchedule, due time.Time) models.WorkOrder {
	category := strings.TrimSpace(schedule.Category)
	if category == "" {
		category = defaultCategory
	}
	return models.WorkOrder{
		BuildingID:    schedule.BuildingID,
		AssetID:       schedule.AssetID,
		Title:         schedule.Subject,
		Description:   schedule.Description,
		Category:      category,
		Priority:      generatedPriority,
		Status:        openStatus,
		EstimatedCost: schedule.EstimatedCost,
		DueDate:       models.FormatDate(due),
		Notes:         fmt.Sprintf("Auto-generated from maintenance schedule. Frequency: %s", recurrenceLabel(schedule.Recurrence)),
		AutoGenerated: true,
		SourceType:    models.SourceScheduledMaintenance,
		SourceID:      schedule.ID.Hex(),
	}
}

func recurrenceLabel(r models.Recurrence) string {
	if strings.TrimSpace(string(r)) == "" {
		return "unspecified"
	}
	return string(r)
}
