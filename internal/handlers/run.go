package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/middleware"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/scheduling"
	log "github.com/sirupsen/logrus"
)

// RunHandler triggers a scheduler run over HTTP.
type RunHandler struct {
	job    scheduling.Job
	logger *log.Entry
}

// NewRunHandler creates a run handler.
func NewRunHandler(job scheduling.Job, logger *log.Entry) *RunHandler {
	return &RunHandler{job: job, logger: handlerLogger(logger, "run")}
}

type runError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// AutoGenerateWorkOrders runs the scheduler and returns its summary. The run
// continues if the client disconnects.
func (h *RunHandler) AutoGenerateWorkOrders(w http.ResponseWriter, r *http.Request) {
	logger := h.logger
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		logger = logger.WithField("user_id", claims.UserID)
	}
	logger.Info("manual scheduler run requested")

	summary, err := h.job.Run(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, scheduling.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, runError{Error: err.Error()})
	case err != nil:
		logger.WithError(err).Error("scheduler run failed")
		writeJSON(w, http.StatusInternalServerError, runError{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, summary)
	}
}
