package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// CronTrigger runs a Job on a cron expression.
type CronTrigger struct {
	job     Job
	spec    string
	timeout time.Duration
	logger  *log.Entry
	c       *cron.Cron
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronSpec reports whether spec is a usable five-field expression or descriptor.
func ValidateCronSpec(spec string) error {
	if _, err := cronParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return nil
}

// NewCronTrigger registers job on spec, evaluated in loc. Ticks that arrive
// while the previous run is still going are dropped.
func NewCronTrigger(job Job, spec string, loc *time.Location, timeout time.Duration, logger *log.Entry) (*CronTrigger, error) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	t := &CronTrigger{
		job:     job,
		spec:    spec,
		timeout: timeout,
		logger:  logger.WithField("component", "cron"),
	}
	t.c = cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := t.c.AddFunc(spec, t.tick); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return t, nil
}

func (t *CronTrigger) tick() {
	ctx := context.Background()
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	summary, err := t.job.Run(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		t.logger.Info("scheduled run skipped, previous run still in progress")
	case err != nil:
		t.logger.WithError(err).Error("scheduled run failed")
	default:
		t.logger.WithFields(log.Fields{
			"run_id":              summary.RunID,
			"work_orders_created": summary.WorkOrdersCreated,
			"failures":            len(summary.Failures),
		}).Info("scheduled run finished")
	}
}

// Next returns the next time the trigger fires after now.
func (t *CronTrigger) Next(now time.Time) time.Time {
	entries := t.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(now)
}

// Start begins firing in the background.
func (t *CronTrigger) Start() {
	t.c.Start()
	t.logger.WithField("spec", t.spec).Info("scheduler cron started")
}

// Stop stops firing and waits for an in-flight run, or for ctx to end.
func (t *CronTrigger) Stop(ctx context.Context) error {
	done := t.c.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
