package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
)

// defaultHistoryLimit bounds history reads when the caller does not ask for
// a specific page size.
const defaultHistoryLimit = 50

// OutlookHandler serves the current outlooks and their revision history.
type OutlookHandler struct {
	storage interfaces.OutlookStorage
	domain  string
	logger  arbor.ILogger
}

// NewOutlookHandler creates a new outlook handler.
func NewOutlookHandler(storage interfaces.OutlookStorage, domain string, logger arbor.ILogger) *OutlookHandler {
	return &OutlookHandler{
		storage: storage,
		domain:  domain,
		logger:  logger,
	}
}

// ListHandler returns all seeded outlooks. An empty store yields an empty
// collection, never an error.
func (h *OutlookHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	outlooks, err := h.storage.ListOutlooks(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list outlooks")
		WriteError(w, http.StatusInternalServerError, "failed to list outlooks")
		return
	}
	if outlooks == nil {
		outlooks = []*models.Outlook{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"outlooks": outlooks,
	})
}

// HorizonHandler dispatches /api/outlook/{horizon}: GET reads the current
// outlook, PUT seeds or replaces it (the initialization write path).
func (h *OutlookHandler) HorizonHandler(w http.ResponseWriter, r *http.Request) {
	horizon := models.Horizon(strings.TrimPrefix(r.URL.Path, "/api/outlook/"))
	switch horizon {
	case models.HorizonShort, models.HorizonMedium, models.HorizonLong:
	default:
		WriteError(w, http.StatusBadRequest, "horizon must be one of short, medium, long")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getOutlook(w, r, horizon)
	case http.MethodPut:
		h.seedOutlook(w, r, horizon)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *OutlookHandler) getOutlook(w http.ResponseWriter, r *http.Request, horizon models.Horizon) {
	outlook, err := h.storage.GetOutlook(r.Context(), horizon, h.domain)
	if errors.Is(err, interfaces.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "no outlook seeded for horizon "+string(horizon))
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("horizon", string(horizon)).Msg("Failed to get outlook")
		WriteError(w, http.StatusInternalServerError, "failed to get outlook")
		return
	}

	WriteJSON(w, http.StatusOK, outlook)
}

// seedOutlook writes the full thesis document for one horizon. Key fields
// are derived from the route, not trusted from the body.
func (h *OutlookHandler) seedOutlook(w http.ResponseWriter, r *http.Request, horizon models.Horizon) {
	var outlook models.Outlook
	if err := json.NewDecoder(r.Body).Decode(&outlook); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	outlook.TimeHorizon = horizon
	outlook.Domain = h.domain
	outlook.Key = models.OutlookKey(horizon, h.domain)
	if outlook.LastUpdated.IsZero() {
		outlook.LastUpdated = time.Now()
	}
	switch outlook.Sentiment {
	case models.OutlookBullish, models.OutlookBearish, models.OutlookCautious, models.OutlookNeutral:
	default:
		WriteError(w, http.StatusBadRequest, "sentiment must be one of bullish, bearish, cautious, neutral")
		return
	}
	if outlook.Confidence < 0 || outlook.Confidence > 100 {
		WriteError(w, http.StatusBadRequest, "confidence must be between 0 and 100")
		return
	}

	if err := h.storage.UpsertOutlook(r.Context(), &outlook); err != nil {
		h.logger.Error().Err(err).Str("horizon", string(horizon)).Msg("Failed to seed outlook")
		WriteError(w, http.StatusInternalServerError, "failed to seed outlook")
		return
	}

	h.logger.Info().
		Str("horizon", string(horizon)).
		Str("sentiment", string(outlook.Sentiment)).
		Msg("Outlook seeded")

	WriteJSON(w, http.StatusOK, &outlook)
}

// HistoryHandler returns revision history entries, newest first:
// GET /api/outlook/history?horizon=&changed_only=&limit=.
func (h *OutlookHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	horizon := models.Horizon(r.URL.Query().Get("horizon"))
	changedOnly := BoolParam(r, "changed_only")
	limit := IntParam(r, "limit", defaultHistoryLimit)

	entries, err := h.storage.ListHistory(r.Context(), horizon, changedOnly, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list outlook history")
		WriteError(w, http.StatusInternalServerError, "failed to list outlook history")
		return
	}
	if entries == nil {
		entries = []*models.OutlookHistoryEntry{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"history": entries,
	})
}
