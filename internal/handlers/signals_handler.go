package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/services/signals"
)

// SignalsHandler serves the daily synthesized signals.
type SignalsHandler struct {
	engine *signals.Engine
	logger arbor.ILogger
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(engine *signals.Engine, logger arbor.ILogger) *SignalsHandler {
	return &SignalsHandler{engine: engine, logger: logger}
}

// GetHandler returns today's signals: GET /api/signals?force=.
// The response carries cache metadata so the UI can indicate staleness.
func (h *SignalsHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	force := BoolParam(r, "force")

	result, err := h.engine.Synthesize(r.Context(), force)
	if err != nil {
		h.logger.Error().Err(err).Msg("Signal synthesis failed")
		WriteError(w, http.StatusInternalServerError, "signal synthesis failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"signals":      result.Signals,
		"cached":       result.Cached,
		"generated_at": result.GeneratedAt,
		"age_seconds":  int(result.Age.Seconds()),
	})
}
