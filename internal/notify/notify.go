// Package notify delivers scheduler notifications. Deliveries are best effort:
// callers log the returned error and carry on.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/metrics"
	log "github.com/sirupsen/logrus"
)

// WorkOrderEvent describes a work order generated from a maintenance schedule.
type WorkOrderEvent struct {
	RunID         string    `json:"run_id"`
	WorkOrderID   string    `json:"work_order_id"`
	ScheduleID    string    `json:"schedule_id"`
	BuildingID    string    `json:"building_id"`
	BuildingName  string    `json:"building_name,omitempty"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Recurrence    string    `json:"recurrence"`
	DueDate       string    `json:"due_date"`
	NextDueDate   string    `json:"next_due_date,omitempty"`
	EstimatedCost float64   `json:"estimated_cost"`
	Recipient     string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// Notifier is told about every work order the scheduler creates.
type Notifier interface {
	WorkOrderCreated(ctx context.Context, event WorkOrderEvent) error
}

// Nop discards notifications.
type Nop struct{}

// WorkOrderCreated does nothing.
func (Nop) WorkOrderCreated(context.Context, WorkOrderEvent) error { return nil }

// TopicWorkOrderCreated is appended to the configured topic prefix.
const TopicWorkOrderCreated = "work_orders/created"

// Dispatcher fans a work order event out to email and MQTT. Either channel may be nil.
type Dispatcher struct {
	email       EmailSender
	publisher   Publisher
	topicPrefix string
	logger      *log.Entry
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(email EmailSender, publisher Publisher, topicPrefix string, logger *log.Entry) *Dispatcher {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Dispatcher{
		email:       email,
		publisher:   publisher,
		topicPrefix: topicPrefix,
		logger:      logger.WithField("component", "notify"),
	}
}

// WorkOrderCreated emails the building manager (when known) and publishes the event.
func (d *Dispatcher) WorkOrderCreated(ctx context.Context, event WorkOrderEvent) error {
	var errs []error

	if d.email != nil && event.Recipient != "" {
		msg, err := RenderWorkOrderEmail(event)
		if err == nil {
			err = d.email.SendEmail(ctx, msg)
		}
		if err != nil {
			metrics.NotificationFailuresTotal.WithLabelValues("email").Inc()
			errs = append(errs, fmt.Errorf("email %s: %w", event.Recipient, err))
		} else {
			d.logger.WithFields(log.Fields{
				"work_order_id": event.WorkOrderID,
				"recipient":     event.Recipient,
			}).Debug("work order email sent")
		}
	}

	if d.publisher != nil {
		payload, err := json.Marshal(event)
		if err == nil {
			err = d.publisher.Publish(ctx, joinTopic(d.topicPrefix, TopicWorkOrderCreated), payload)
		}
		if err != nil {
			metrics.NotificationFailuresTotal.WithLabelValues("mqtt").Inc()
			errs = append(errs, fmt.Errorf("publish: %w", err))
		}
	}

	return errors.Join(errs...)
}

func joinTopic(prefix, suffix string) string {
	if prefix == "" {
		return suffix
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix + suffix
	}
	return prefix + "/" + suffix
}
