package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/services/technicals"
)

// TechnicalsHandler serves the current technical snapshot set.
type TechnicalsHandler struct {
	service *technicals.Service
	logger  arbor.ILogger
}

// NewTechnicalsHandler creates a new technicals handler.
func NewTechnicalsHandler(service *technicals.Service, logger arbor.ILogger) *TechnicalsHandler {
	return &TechnicalsHandler{service: service, logger: logger}
}

// GetHandler returns snapshots for the tracked universe:
// GET /api/technicals?tickers=AAA,BBB&force=.
// Extra tickers extend the universe for this request only.
func (h *TechnicalsHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	var extra []string
	if raw := r.URL.Query().Get("tickers"); raw != "" {
		extra = strings.Split(raw, ",")
	}
	force := BoolParam(r, "force")

	result, err := h.service.Snapshot(r.Context(), extra, force)
	if err != nil {
		h.logger.Error().Err(err).Msg("Technical snapshot failed")
		WriteError(w, http.StatusInternalServerError, "technical snapshot failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"technicals": result.Snapshots,
		"fetched_at": result.FetchedAt,
		"cached":     result.Cached,
	})
}
