// Package outlook implements the outlook revision engine: for each newly
// analyzed piece of content it asks the reasoning service, once per horizon,
// whether the standing thesis should be revised, and applies the decision as
// a sparse patch with an append-only history entry.
package outlook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
)

// Engine evaluates new evidence against the standing outlooks.
type Engine struct {
	config  *common.OutlookConfig
	llm     interfaces.LLMService
	storage interfaces.OutlookStorage
	logger  arbor.ILogger

	// horizonLocks serializes revisions per horizon so two near-simultaneous
	// evidence items cannot race a sparse patch on the same row.
	horizonLocks map[models.Horizon]*sync.Mutex
}

// NewEngine creates a new outlook revision engine.
func NewEngine(config *common.OutlookConfig, llm interfaces.LLMService, storage interfaces.OutlookStorage, logger arbor.ILogger) *Engine {
	locks := make(map[models.Horizon]*sync.Mutex, len(models.OutlookHorizons))
	for _, horizon := range models.OutlookHorizons {
		locks[horizon] = &sync.Mutex{}
	}
	return &Engine{
		config:       config,
		llm:          llm,
		storage:      storage,
		logger:       logger,
		horizonLocks: locks,
	}
}

// HorizonResult reports the outcome of evaluating one horizon.
type HorizonResult struct {
	Horizon models.Horizon `json:"horizon"`
	Updated bool           `json:"updated"`
	Skipped bool           `json:"skipped"` // horizon has no seeded outlook
	Error   string         `json:"error,omitempty"`
}

// EvaluateAll re-evaluates every outlook horizon against one analysis. The
// three evaluations run concurrently; a failure on one horizon never stops
// the others. Results come back in fixed horizon order.
func (e *Engine) EvaluateAll(ctx context.Context, analysis *models.ContentAnalysis, predictions []*models.Prediction) []HorizonResult {
	results := make([]HorizonResult, len(models.OutlookHorizons))

	var wg sync.WaitGroup
	for i, horizon := range models.OutlookHorizons {
		wg.Add(1)
		go func(i int, horizon models.Horizon) {
			defer wg.Done()
			results[i] = e.evaluateHorizon(ctx, horizon, analysis, predictions)
		}(i, horizon)
	}
	wg.Wait()

	return results
}

// evaluateHorizon runs one horizon's revision decision under that horizon's
// lock. Every failure path degrades to "no update for this horizon".
func (e *Engine) evaluateHorizon(ctx context.Context, horizon models.Horizon, analysis *models.ContentAnalysis, predictions []*models.Prediction) HorizonResult {
	result := HorizonResult{Horizon: horizon}

	lock := e.horizonLocks[horizon]
	lock.Lock()
	defer lock.Unlock()

	current, err := e.storage.GetOutlook(ctx, horizon, e.config.Domain)
	if errors.Is(err, interfaces.ErrNotFound) {
		// Not seeded yet. No implicit creation.
		e.logger.Debug().
			Str("horizon", string(horizon)).
			Msg("No outlook seeded for horizon, skipping evaluation")
		result.Skipped = true
		return result
	}
	if err != nil {
		e.logger.Warn().Err(err).Str("horizon", string(horizon)).Msg("Failed to load outlook")
		result.Error = err.Error()
		return result
	}

	decision, err := e.requestDecision(ctx, current, analysis, predictions)
	if err != nil {
		e.logger.Warn().
			Err(err).
			Str("horizon", string(horizon)).
			Str("analysis_id", analysis.ID).
			Msg("Revision decision failed, leaving outlook unchanged")
		result.Error = err.Error()
		return result
	}

	if !decision.ShouldUpdate {
		e.logger.Info().
			Str("horizon", string(horizon)).
			Str("analysis_id", analysis.ID).
			Str("reasoning", decision.Reasoning).
			Msg("Outlook unchanged")
		return result
	}

	if err := e.applyDecision(ctx, current, decision, analysis); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Updated = true
	return result
}

// requestDecision asks the reasoning service whether the outlook should be
// revised and parses the structured answer.
func (e *Engine) requestDecision(ctx context.Context, current *models.Outlook, analysis *models.ContentAnalysis, predictions []*models.Prediction) (*models.RevisionDecision, error) {
	response, err := e.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: revisionSystemPrompt},
		{Role: "user", Content: buildRevisionPrompt(current, analysis, predictions)},
	})
	if err != nil {
		return nil, fmt.Errorf("revision chat failed: %w", err)
	}

	var decision models.RevisionDecision
	if err := common.ExtractJSONInto(response, &decision); err != nil {
		return nil, fmt.Errorf("failed to parse revision decision: %w", err)
	}
	if err := validator.New().Struct(&decision); err != nil {
		return nil, fmt.Errorf("revision decision failed validation: %w", err)
	}

	return &decision, nil
}

// applyDecision patches the outlook, persists it, and appends one history
// entry. A history write failure is logged but does not roll back the patch.
func (e *Engine) applyDecision(ctx context.Context, current *models.Outlook, decision *models.RevisionDecision, analysis *models.ContentAnalysis) error {
	previousSentiment := current.Sentiment
	previousConfidence := current.Confidence

	now := time.Now()
	changes := current.ApplyRevision(decision, now)

	if err := e.storage.UpsertOutlook(ctx, current); err != nil {
		return fmt.Errorf("failed to persist revised outlook: %w", err)
	}

	entry := &models.OutlookHistoryEntry{
		ID:                  common.NewHistoryID(),
		OutlookKey:          current.Key,
		TimeHorizon:         current.TimeHorizon,
		PreviousSentiment:   previousSentiment,
		NewSentiment:        current.Sentiment,
		PreviousConfidence:  previousConfidence,
		NewConfidence:       current.Confidence,
		ChangesSummary:      changes,
		EvaluationReasoning: decision.Reasoning,
		AnalysesEvaluated:   1,
		CreatedAt:           now,
	}
	if err := e.storage.AppendHistory(ctx, entry); err != nil {
		e.logger.Warn().
			Err(err).
			Str("outlook_key", current.Key).
			Msg("Failed to append outlook history entry")
	}

	e.logger.Info().
		Str("horizon", string(current.TimeHorizon)).
		Str("analysis_id", analysis.ID).
		Str("sentiment", string(current.Sentiment)).
		Int("confidence", current.Confidence).
		Int("changes", len(changes)).
		Msg("Outlook revised")

	return nil
}
