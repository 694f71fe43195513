package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/services/repair"
)

// RepairHandler triggers the prediction consistency pass.
type RepairHandler struct {
	service *repair.Service
	logger  arbor.ILogger
}

// NewRepairHandler creates a new repair handler.
func NewRepairHandler(service *repair.Service, logger arbor.ILogger) *RepairHandler {
	return &RepairHandler{service: service, logger: logger}
}

// RunHandler runs the pass and returns its report: POST /api/repair.
func (h *RepairHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	report, err := h.service.Run(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Consistency pass failed")
		WriteError(w, http.StatusInternalServerError, "consistency pass failed")
		return
	}

	WriteJSON(w, http.StatusOK, report)
}
