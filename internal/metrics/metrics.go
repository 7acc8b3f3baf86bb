// Package metrics holds the Prometheus collectors for the scheduler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SchedulerRunsTotal counts runs by outcome: completed, locked, error.
	SchedulerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bms",
		Subsystem: "scheduler",
		Name:      "runs_total",
		Help:      "Maintenance scheduler runs by outcome.",
	}, []string{"outcome"})

	// WorkOrdersCreatedTotal counts work orders generated from schedules.
	WorkOrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bms",
		Subsystem: "scheduler",
		Name:      "work_orders_created_total",
		Help:      "Work orders generated from maintenance schedules.",
	})

	// ScheduleFailuresTotal counts per-schedule failures by reason.
	ScheduleFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bms",
		Subsystem: "scheduler",
		Name:      "schedule_failures_total",
		Help:      "Schedules that could not be processed, by reason.",
	}, []string{"reason"})

	// RunDurationSeconds observes wall time of completed runs.
	RunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bms",
		Subsystem: "scheduler",
		Name:      "run_duration_seconds",
		Help:      "Duration of maintenance scheduler runs.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// NotificationFailuresTotal counts notification deliveries that failed, by channel.
	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bms",
		Subsystem: "notify",
		Name:      "failures_total",
		Help:      "Failed notification deliveries by channel.",
	}, []string{"channel"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
