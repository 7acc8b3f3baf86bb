// Package scheduling turns due maintenance schedules into work orders.
//
// A run lists the active schedules once, picks those due on or before the
// run's date, and for each one creates a work order and advances the schedule
// to its next occurrence. Schedules are processed independently: a failure is
// recorded against the schedule and the run carries on.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/db"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/lock"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/metrics"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/notify"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RunLockKey is the lock name shared by every instance running the scheduler.
const RunLockKey = "maintenance-scheduler"

var (
	// ErrRunInProgress is returned when another run holds the run lock.
	ErrRunInProgress = errors.New("a scheduler run is already in progress")
	// ErrScheduleConflict marks a schedule another writer advanced first.
	ErrScheduleConflict = errors.New("schedule was advanced by another run")
	// ErrInvalidDueDate marks a schedule whose next_due_date cannot be parsed.
	ErrInvalidDueDate = errors.New("invalid next_due_date")
	// ErrListSchedules wraps a failure to read the active schedules.
	ErrListSchedules = errors.New("list active schedules")
)

// ScheduleStore is the schedule persistence the runner needs.
type ScheduleStore interface {
	ListActiveSchedules(ctx context.Context) ([]models.MaintenanceSchedule, error)
	FindScheduleByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error)
	AdvanceSchedule(ctx context.Context, id, expectedDue string, nextDue *string, workOrderID string) error
}

// WorkOrderStore is the work order persistence the runner needs.
type WorkOrderStore interface {
	InsertWorkOrder(ctx context.Context, workOrder models.WorkOrder) (string, error)
	DeleteWorkOrder(ctx context.Context, id string) error
}

// Job is anything that performs a scheduler run.
type Job interface {
	Run(ctx context.Context) (*Summary, error)
}

// Failure records why one schedule was not processed.
type Failure struct {
	ScheduleID string `json:"schedule_id"`
	Error      string `json:"error"`
}

// Summary is the outcome of one run.
type Summary struct {
	Success            bool      `json:"success"`
	RunID              string    `json:"run_id"`
	RunDate            string    `json:"run_date"`
	SchedulesProcessed int       `json:"schedules_processed"`
	Due                int       `json:"due"`
	WorkOrdersCreated  int       `json:"work_orders_created"`
	TasksCreated       int       `json:"tasks_created"`
	Skipped            int       `json:"skipped"`
	Failures           []Failure `json:"failures"`
	DurationMS         int64     `json:"duration_ms"`
}

// Dependencies are the collaborators of a Runner. Schedules and WorkOrders are
// required; the rest are optional.
type Dependencies struct {
	Schedules  ScheduleStore
	WorkOrders WorkOrderStore
	Buildings  db.BuildingCollection
	Tasks      db.TaskCollection
	Notifier   notify.Notifier
	Locker     lock.Locker
}

// Options tune a Runner.
type Options struct {
	// Workers bounds how many schedules are processed at once.
	Workers int
	// Timeout bounds the whole run.
	Timeout time.Duration
	// Location decides which calendar day "today" is.
	Location *time.Location
	// LockTTL is how long the run lock survives a crashed holder.
	LockTTL time.Duration
	// Now is the clock; it is read once per run.
	Now func() time.Time
}

// Runner executes scheduler runs.
type Runner struct {
	deps   Dependencies
	opts   Options
	logger *log.Entry
}

// NewRunner builds a Runner, filling defaults for unset options.
func NewRunner(deps Dependencies, opts Options, logger *log.Entry) *Runner {
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewLocalLocker()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = opts.Timeout + time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Runner{deps: deps, opts: opts, logger: logger.WithField("component", "scheduler")}
}

type itemResult struct {
	scheduleID  string
	workOrderID string
	taskCreated bool
	skipped     bool
	reason      string
	err         error
}

// Run performs one pass over the active schedules. The only errors returned
// are ErrRunInProgress, a lock backend failure, or a failure to list the
// schedules; everything else is reported in the Summary.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	started := r.opts.Now()
	runID := uuid.NewString()
	logger := r.logger.WithField("run_id", runID)

	release, err := r.deps.Locker.Acquire(ctx, RunLockKey, r.opts.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			metrics.SchedulerRunsTotal.WithLabelValues("locked").Inc()
			logger.Info("scheduler run skipped, another run holds the lock")
			return nil, ErrRunInProgress
		}
		metrics.SchedulerRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			logger.WithError(err).Warn("failed to release run lock")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	today := Today(started, r.opts.Location)

	schedules, err := r.deps.Schedules.ListActiveSchedules(ctx)
	if err != nil {
		metrics.SchedulerRunsTotal.WithLabelValues("error").Inc()
		logger.WithError(err).Error("failed to list active schedules")
		return nil, fmt.Errorf("%w: %w", ErrListSchedules, err)
	}

	due, rejected := SelectDue(schedules, today)
	for _, failure := range rejected {
		metrics.ScheduleFailuresTotal.WithLabelValues("invalid_due_date").Inc()
		logger.WithFields(log.Fields{
			"schedule_id": failure.ScheduleID,
			"error":       failure.Error,
		}).Warn("schedule has an unparseable due date")
	}

	logger.WithFields(log.Fields{
		"run_date": models.FormatDate(today),
		"active":   len(schedules),
		"due":      len(due),
	}).Info("scheduler run started")

	results := make([]itemResult, len(due))
	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i := range due {
		i := i
		g.Go(func() error {
			results[i] = r.process(ctx, logger, runID, due[i])
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{
		Success:            true,
		RunID:              runID,
		RunDate:            models.FormatDate(today),
		SchedulesProcessed: len(schedules),
		Due:                len(due),
		Failures:           append([]Failure{}, rejected...),
	}
	for _, res := range results {
		switch {
		case res.skipped:
			summary.Skipped++
		case res.err != nil:
			metrics.ScheduleFailuresTotal.WithLabelValues(res.reason).Inc()
			summary.Failures = append(summary.Failures, Failure{ScheduleID: res.scheduleID, Error: res.err.Error()})
		default:
			summary.WorkOrdersCreated++
			if res.taskCreated {
				summary.TasksCreated++
			}
		}
	}

	elapsed := r.opts.Now().Sub(started)
	summary.DurationMS = elapsed.Milliseconds()
	metrics.SchedulerRunsTotal.WithLabelValues("completed").Inc()
	metrics.WorkOrdersCreatedTotal.Add(float64(summary.WorkOrdersCreated))
	metrics.RunDurationSeconds.Observe(elapsed.Seconds())

	logger.WithFields(log.Fields{
		"schedules_processed": summary.SchedulesProcessed,
		"work_orders_created": summary.WorkOrdersCreated,
		"tasks_created":       summary.TasksCreated,
		"skipped":             summary.Skipped,
		"failures":            len(summary.Failures),
	}).Info("scheduler run completed")

	return summary, nil
}

// process handles one due schedule. The work order is written before the
// schedule so that every stored work order has been recorded on its schedule,
// unless the schedule update fails, in which case the work order is removed.
// An update that errored is re-read first, since it may have been applied.
func (r *Runner) process(ctx context.Context, logger *log.Entry, runID string, d DueSchedule) itemResult {
	scheduleID := d.Schedule.ID.Hex()
	res := itemResult{scheduleID: scheduleID}
	logger = logger.WithField("schedule_id", scheduleID)

	if err := ctx.Err(); err != nil {
		res.reason = "timeout"
		res.err = fmt.Errorf("run deadline reached before processing: %w", err)
		return res
	}

	workOrder := NewWorkOrder(d.Schedule, d.DueDate)
	workOrderID, err := r.deps.WorkOrders.InsertWorkOrder(ctx, workOrder)
	if err != nil {
		res.reason = "create_work_order"
		res.err = fmt.Errorf("create work order: %w", err)
		logger.WithError(err).Error("failed to create work order")
		return res
	}

	var nextDue *string
	if next, ok := NextDueDate(d.DueDate, d.Schedule.Recurrence); ok {
		formatted := models.FormatDate(next)
		nextDue = &formatted
	} else {
		logger.WithField("recurrence", d.Schedule.Recurrence).Warn("unrecognized recurrence, schedule will not run again")
	}

	if err := r.deps.Schedules.AdvanceSchedule(ctx, scheduleID, d.RawDueDate, nextDue, workOrderID); err != nil {
		if errors.Is(err, db.ErrConflict) {
			r.removeWorkOrder(ctx, logger, workOrderID)
			logger.Info("schedule already advanced by another run, skipping")
			res.skipped = true
			res.err = ErrScheduleConflict
			return res
		}
		applied, checkErr := r.advanceApplied(ctx, scheduleID, workOrderID)
		switch {
		case checkErr != nil:
			// Outcome unknown: keep the work order rather than risk losing the occurrence.
			res.reason = "advance_schedule"
			res.err = fmt.Errorf("advance schedule: %w (work order %s kept, schedule state unknown: %v)", err, workOrderID, checkErr)
			logger.WithError(err).WithField("work_order_id", workOrderID).Error("failed to advance schedule and could not verify it")
			return res
		case !applied:
			r.removeWorkOrder(ctx, logger, workOrderID)
			res.reason = "advance_schedule"
			res.err = fmt.Errorf("advance schedule: %w", err)
			logger.WithError(err).Error("failed to advance schedule")
			return res
		}
		logger.WithError(err).WithField("work_order_id", workOrderID).Warn("schedule update reported an error but was applied")
	}
	res.workOrderID = workOrderID

	building := r.lookupBuilding(ctx, logger, d.Schedule.BuildingID)
	res.taskCreated = r.createTask(ctx, logger, d, workOrderID, building)

	event := notify.WorkOrderEvent{
		RunID:         runID,
		WorkOrderID:   workOrderID,
		ScheduleID:    scheduleID,
		BuildingID:    d.Schedule.BuildingID,
		Title:         d.Schedule.Subject,
		Category:      workOrder.Category,
		Recurrence:    recurrenceLabel(d.Schedule.Recurrence),
		DueDate:       models.FormatDate(d.DueDate),
		EstimatedCost: d.Schedule.EstimatedCost,
		CreatedAt:     r.opts.Now().UTC(),
	}
	if nextDue != nil {
		event.NextDueDate = *nextDue
	}
	if building != nil {
		event.BuildingName = building.Name
		event.Recipient = building.ManagerEmail
	}
	if err := r.deps.Notifier.WorkOrderCreated(ctx, event); err != nil {
		logger.WithError(err).Warn("work order notification failed")
	}

	logger.WithFields(log.Fields{
		"work_order_id": workOrderID,
		"due_date":      event.DueDate,
		"next_due_date": event.NextDueDate,
	}).Debug("work order generated")
	return res
}

// advanceApplied re-reads the schedule to tell whether an update that returned
// an error reached the database anyway.
func (r *Runner) advanceApplied(ctx context.Context, scheduleID, workOrderID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	schedule, err := r.deps.Schedules.FindScheduleByID(ctx, scheduleID)
	if err != nil {
		return false, err
	}
	return slices.Contains(schedule.WorkOrderIDs, workOrderID), nil
}

func (r *Runner) removeWorkOrder(ctx context.Context, logger *log.Entry, workOrderID string) {
	if err := r.deps.WorkOrders.DeleteWorkOrder(context.WithoutCancel(ctx), workOrderID); err != nil {
		logger.WithError(err).WithField("work_order_id", workOrderID).Error("failed to remove work order after schedule update failed")
	}
}

func (r *Runner) lookupBuilding(ctx context.Context, logger *log.Entry, buildingID string) *models.Building {
	if r.deps.Buildings == nil || buildingID == "" {
		return nil
	}
	building, err := r.deps.Buildings.FindBuildingByID(ctx, buildingID)
	if err != nil {
		logger.WithError(err).WithField("building_id", buildingID).Warn("building lookup failed")
		return nil
	}
	return building
}

func (r *Runner) createTask(ctx context.Context, logger *log.Entry, d DueSchedule, workOrderID string, building *models.Building) bool {
	if r.deps.Tasks == nil || building == nil || building.ManagerEmail == "" {
		return false
	}
	_, err := r.deps.Tasks.InsertTask(ctx, models.Task{
		BuildingID:  d.Schedule.BuildingID,
		WorkOrderID: workOrderID,
		Title:       "Arrange scheduled maintenance: " + d.Schedule.Subject,
		DueDate:     models.FormatDate(d.DueDate),
		AssignedTo:  building.ManagerEmail,
		Status:      "pending",
	})
	if err != nil {
		logger.WithError(err).WithField("work_order_id", workOrderID).Warn("failed to create follow-up task")
		return false
	}
	return true
}
