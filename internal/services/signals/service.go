// Package signals implements the signal synthesis engine: it reconciles all
// source analyses, standing predictions and the current technical snapshot
// into a small ranked set of signals, cached one entry per calendar day.
package signals

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
	"github.com/ternarybob/vantage/internal/services/technicals"
)

// listLimit bounds how many analyses and predictions feed one synthesis pass.
const listLimit = 200

// Engine synthesizes the daily signal set.
type Engine struct {
	config     *common.SignalsConfig
	llm        interfaces.LLMService
	analyses   interfaces.AnalysisStorage
	cache      interfaces.SignalCacheStorage
	technicals *technicals.Service
	logger     arbor.ILogger
}

// NewEngine creates a new signal synthesis engine.
func NewEngine(config *common.SignalsConfig, llm interfaces.LLMService, analyses interfaces.AnalysisStorage, cache interfaces.SignalCacheStorage, tech *technicals.Service, logger arbor.ILogger) *Engine {
	return &Engine{
		config:     config,
		llm:        llm,
		analyses:   analyses,
		cache:      cache,
		technicals: tech,
		logger:     logger,
	}
}

// Result carries the signals plus the cache metadata the UI needs to
// indicate staleness without re-deriving it.
type Result struct {
	Signals     []models.Signal `json:"signals"`
	Cached      bool            `json:"cached"`
	GeneratedAt time.Time       `json:"generated_at"`
	Age         time.Duration   `json:"-"`
}

func (e *Engine) maxAge() time.Duration {
	return time.Duration(e.config.MaxAgeHours) * time.Hour
}

// Synthesize returns today's signals, serving from the day cache when a
// fresh entry exists. force bypasses the cache read but never the write.
// Cache IO failures are non-fatal on both paths.
func (e *Engine) Synthesize(ctx context.Context, force bool) (*Result, error) {
	now := time.Now()
	dayKey := common.DayKey(now, e.config.Timezone)

	if !force {
		if cached := e.readCache(ctx, dayKey, now); cached != nil {
			return cached, nil
		}
	}

	signals := e.runSynthesis(ctx)

	entry := &models.SignalCacheEntry{
		Key:         dayKey,
		Data:        signals,
		GeneratedAt: now,
	}
	if err := e.cache.UpsertEntry(ctx, entry); err != nil {
		e.logger.Warn().Err(err).Str("day", dayKey).Msg("Failed to write signal cache entry")
	}

	return &Result{
		Signals:     signals,
		Cached:      false,
		GeneratedAt: now,
	}, nil
}

// readCache returns a result when a fresh entry exists for the day key.
// Read failures and stale entries both report nil.
func (e *Engine) readCache(ctx context.Context, dayKey string, now time.Time) *Result {
	entry, err := e.cache.GetEntry(ctx, dayKey)
	if err != nil {
		if err != interfaces.ErrNotFound {
			e.logger.Warn().Err(err).Str("day", dayKey).Msg("Signal cache read failed, synthesizing")
		}
		return nil
	}

	fresh := common.CheckFreshness(entry.GeneratedAt, now, e.maxAge())
	if !fresh.IsFresh {
		e.logger.Debug().
			Str("day", dayKey).
			Dur("age", fresh.Age).
			Str("reason", fresh.Reason).
			Msg("Cached signals stale, synthesizing")
		return nil
	}

	return &Result{
		Signals:     entry.Data,
		Cached:      true,
		GeneratedAt: entry.GeneratedAt,
		Age:         fresh.Age,
	}
}

// runSynthesis gathers the joined dataset and asks the reasoning service for
// the signal set. Every failure degrades to an empty list: absence of
// signals is a valid response, never an error surfaced to the caller.
func (e *Engine) runSynthesis(ctx context.Context) []models.Signal {
	startTime := time.Now()

	analyses, err := e.analyses.ListAnalyses(ctx, listLimit)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to list analyses for synthesis")
	}
	predictions, err := e.analyses.ListPredictions(ctx, listLimit)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to list predictions for synthesis")
	}

	var snapshots []models.TechnicalSnapshot
	if snap, err := e.technicals.Snapshot(ctx, nil, false); err == nil {
		snapshots = snap.Snapshots
	} else {
		e.logger.Warn().Err(err).Msg("Technical snapshot unavailable for synthesis")
	}

	if len(analyses) == 0 && len(predictions) == 0 && len(snapshots) == 0 {
		e.logger.Info().Msg("No inputs available for signal synthesis")
		return []models.Signal{}
	}

	response, err := e.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: synthesisSystemPrompt},
		{Role: "user", Content: buildSynthesisPrompt(e.config, analyses, predictions, snapshots)},
	})
	if err != nil {
		e.logger.Warn().Err(err).Msg("Synthesis chat failed, returning empty signals")
		return []models.Signal{}
	}

	signals, err := parseSignals(response)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to parse synthesis response, returning empty signals")
		return []models.Signal{}
	}

	e.logger.Info().
		Int("signals", len(signals)).
		Int("analyses", len(analyses)).
		Int("predictions", len(predictions)).
		Int("tickers", len(snapshots)).
		Dur("duration", time.Since(startTime)).
		Msg("Signal synthesis complete")

	return signals
}

// parseSignals extracts and validates the signal array from the response
// text. Individually invalid signals are dropped, not fatal.
func parseSignals(response string) ([]models.Signal, error) {
	var raw []models.Signal
	if err := common.ExtractJSONInto(response, &raw); err != nil {
		return nil, fmt.Errorf("no signal array in response: %w", err)
	}

	validate := validator.New()
	signals := make([]models.Signal, 0, len(raw))
	for _, s := range raw {
		if err := validate.Struct(&s); err != nil {
			continue
		}
		for i, asset := range s.Assets {
			s.Assets[i] = common.NormalizeTicker(asset)
		}
		signals = append(signals, s)
	}

	return signals, nil
}
