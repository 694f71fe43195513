package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/services/analysis"
	"github.com/ternarybob/vantage/internal/services/outlook"
)

// ContentHandler drives the analyze-then-revise flow for one piece of
// ingested content.
type ContentHandler struct {
	analysisService *analysis.Service
	storage         interfaces.AnalysisStorage
	revisionEngine  *outlook.Engine
	logger          arbor.ILogger
}

// NewContentHandler creates a new content handler.
func NewContentHandler(analysisService *analysis.Service, storage interfaces.AnalysisStorage, revisionEngine *outlook.Engine, logger arbor.ILogger) *ContentHandler {
	return &ContentHandler{
		analysisService: analysisService,
		storage:         storage,
		revisionEngine:  revisionEngine,
		logger:          logger,
	}
}

// contentRequest is the ingest payload. ContentID is optional: callers with
// stable upstream IDs pass one for idempotent re-ingestion.
type contentRequest struct {
	ContentID string `json:"content_id"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Source    string `json:"source"`
}

// IngestHandler accepts one piece of content, analyzes it, and re-evaluates
// every outlook horizon against the result: POST /api/content.
// Analysis failure is not fatal: the response reports analyzed=false and the
// reason, with status 200.
func (h *ContentHandler) IngestHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		WriteError(w, http.StatusBadRequest, "text is required")
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		WriteError(w, http.StatusBadRequest, "source is required")
		return
	}
	if req.ContentID == "" {
		req.ContentID = common.NewContentID()
	}

	result, err := h.analysisService.Analyze(r.Context(), analysis.Input{
		ContentID:  req.ContentID,
		Title:      req.Title,
		Text:       req.Text,
		SourceName: req.Source,
	})
	if err != nil {
		reason := "analysis failed"
		if errors.Is(err, analysis.ErrContentTooShort) {
			reason = "content too short for analysis"
		} else {
			h.logger.Warn().Err(err).Str("content_id", req.ContentID).Msg("Content analysis failed")
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"content_id": req.ContentID,
			"analyzed":   false,
			"reason":     reason,
		})
		return
	}

	predictions, err := h.storage.ListPredictionsByAnalysis(r.Context(), result.ID)
	if err != nil {
		h.logger.Warn().Err(err).Str("analysis_id", result.ID).Msg("Failed to load predictions for revision")
	}

	horizons := h.revisionEngine.EvaluateAll(r.Context(), result, predictions)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"content_id":  req.ContentID,
		"analyzed":    true,
		"analysis_id": result.ID,
		"horizons":    horizons,
	})
}
