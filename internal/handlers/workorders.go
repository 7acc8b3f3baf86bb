package handlers

import (
	"net/http"
	"strconv"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/db"
	log "github.com/sirupsen/logrus"
)

const defaultWorkOrderLimit = 100

// WorkOrderHandler serves work orders.
type WorkOrderHandler struct {
	workOrders db.WorkOrderCollection
	logger     *log.Entry
}

// NewWorkOrderHandler creates a work order handler.
func NewWorkOrderHandler(workOrders db.WorkOrderCollection, logger *log.Entry) *WorkOrderHandler {
	return &WorkOrderHandler{workOrders: workOrders, logger: handlerLogger(logger, "work_orders")}
}

// List returns the newest work orders, filtered by building_id and source_id.
func (h *WorkOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.WorkOrderFilter{
		BuildingID: q.Get("building_id"),
		SourceID:   q.Get("source_id"),
		Limit:      defaultWorkOrderLimit,
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	workOrders, err := h.workOrders.FindWorkOrders(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("failed to list work orders")
		http.Error(w, "Failed to list work orders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, workOrders)
}
