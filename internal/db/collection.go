package db

import (
	"context"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
)

// ScheduleFilter narrows schedule queries. Empty fields are ignored.
type ScheduleFilter struct {
	BuildingID string
	Status     models.ScheduleStatus
}

// WorkOrderFilter narrows work order queries. Empty fields are ignored.
type WorkOrderFilter struct {
	BuildingID string
	SourceID   string
	Limit      int64
}

// ScheduleCollection defines the interface for maintenance schedule operations.
type ScheduleCollection interface {
	InsertSchedule(ctx context.Context, schedule models.MaintenanceSchedule) (string, error)
	FindScheduleByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error)
	FindSchedules(ctx context.Context, filter ScheduleFilter) ([]models.MaintenanceSchedule, error)
	ListActiveSchedules(ctx context.Context) ([]models.MaintenanceSchedule, error)
	AdvanceSchedule(ctx context.Context, id, expectedDue string, nextDue *string, workOrderID string) error
	DeactivateSchedule(ctx context.Context, id string) error
}

// WorkOrderCollection defines the interface for work order operations.
type WorkOrderCollection interface {
	InsertWorkOrder(ctx context.Context, workOrder models.WorkOrder) (string, error)
	FindWorkOrders(ctx context.Context, filter WorkOrderFilter) ([]models.WorkOrder, error)
	DeleteWorkOrder(ctx context.Context, id string) error
}

// BuildingCollection defines the read operations on buildings.
type BuildingCollection interface {
	FindBuildingByID(ctx context.Context, id string) (*models.Building, error)
}

// TaskCollection defines the interface for follow-up task operations.
type TaskCollection interface {
	InsertTask(ctx context.Context, task models.Task) (string, error)
}
