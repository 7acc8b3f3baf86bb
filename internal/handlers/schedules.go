package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/db"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// ScheduleHandler serves maintenance schedules.
type ScheduleHandler struct {
	schedules db.ScheduleCollection
	logger    *log.Entry
}

// NewScheduleHandler creates a schedule handler.
func NewScheduleHandler(schedules db.ScheduleCollection, logger *log.Entry) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, logger: handlerLogger(logger, "schedules")}
}

// CreateScheduleRequest is the body of POST /api/schedules.
type CreateScheduleRequest struct {
	BuildingID    string            `json:"building_id"`
	AssetID       string            `json:"asset_id"`
	Subject       string            `json:"subject"`
	Description   string            `json:"description"`
	Category      string            `json:"category"`
	Recurrence    models.Recurrence `json:"recurrence"`
	NextDueDate   *string           `json:"next_due_date"`
	EstimatedCost float64           `json:"estimated_cost"`
	Status        string            `json:"status"`
}

// List returns schedules, optionally filtered by status and building_id.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := db.ScheduleFilter{
		BuildingID: r.URL.Query().Get("building_id"),
		Status:     models.ScheduleStatus(r.URL.Query().Get("status")),
	}
	if filter.Status != "" && filter.Status != models.ScheduleActive && filter.Status != models.ScheduleInactive {
		http.Error(w, "status must be active or inactive", http.StatusBadRequest)
		return
	}

	schedules, err := h.schedules.FindSchedules(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("failed to list schedules")
		http.Error(w, "Failed to list schedules", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}

// Create validates and stores a new schedule.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	status := models.ScheduleStatus(strings.TrimSpace(req.Status))
	if status == "" {
		status = models.ScheduleActive
	}
	schedule := models.MaintenanceSchedule{
		BuildingID:    strings.TrimSpace(req.BuildingID),
		AssetID:       strings.TrimSpace(req.AssetID),
		Subject:       strings.TrimSpace(req.Subject),
		Description:   req.Description,
		Category:      req.Category,
		Recurrence:    req.Recurrence,
		NextDueDate:   req.NextDueDate,
		EstimatedCost: req.EstimatedCost,
		Status:        status,
	}
	if err := schedule.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !schedule.Recurrence.IsKnown() {
		h.logger.WithField("recurrence", schedule.Recurrence).Warn("schedule created with unrecognized recurrence")
	}

	id, err := h.schedules.InsertSchedule(r.Context(), schedule)
	if err != nil {
		h.logger.WithError(err).Error("failed to insert schedule")
		http.Error(w, "Failed to create schedule", http.StatusInternalServerError)
		return
	}

	created, err := h.schedules.FindScheduleByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Deactivate stops a schedule from generating further work orders.
func (h *ScheduleHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.schedules.DeactivateSchedule(r.Context(), id)
	switch {
	case errors.Is(err, db.ErrInvalidID):
		http.Error(w, "Invalid schedule id", http.StatusBadRequest)
		return
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, "Schedule not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.WithError(err).WithField("schedule_id", id).Error("failed to deactivate schedule")
		http.Error(w, "Failed to deactivate schedule", http.StatusInternalServerError)
		return
	}

	h.logger.WithField("schedule_id", id).Info("schedule deactivated")
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(models.ScheduleInactive)})
}
