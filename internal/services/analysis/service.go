// Package analysis implements the content analysis adapter: a single gated
// call to the reasoning service turning raw text into a structured
// ContentAnalysis plus its extracted predictions.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
)

// ErrContentTooShort is returned when the raw text is below the minimum
// length worth sending for analysis.
var ErrContentTooShort = errors.New("content too short for analysis")

// Input describes one piece of content to analyze.
type Input struct {
	ContentID  string
	Title      string
	Text       string
	SourceName string
}

// Service wraps the reasoning service call and persists the result.
type Service struct {
	config  *common.AnalysisConfig
	llm     interfaces.LLMService
	storage interfaces.AnalysisStorage
	logger  arbor.ILogger
}

// NewService creates a new analysis service.
func NewService(config *common.AnalysisConfig, llm interfaces.LLMService, storage interfaces.AnalysisStorage, logger arbor.ILogger) *Service {
	return &Service{
		config:  config,
		llm:     llm,
		storage: storage,
		logger:  logger,
	}
}

// Analyze runs one piece of content through the reasoning service and
// persists the resulting analysis and predictions. Re-analyzing content that
// already has an analysis is a no-op returning the existing record, so the
// ingest stage is safe to re-run.
func (s *Service) Analyze(ctx context.Context, input Input) (*models.ContentAnalysis, error) {
	if existing, err := s.storage.GetAnalysisByContentID(ctx, input.ContentID); err == nil {
		s.logger.Debug().
			Str("content_id", input.ContentID).
			Str("analysis_id", existing.ID).
			Msg("Content already analyzed, skipping")
		return existing, nil
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing analysis: %w", err)
	}

	if len(strings.TrimSpace(input.Text)) < s.config.MinContentLength {
		return nil, ErrContentTooShort
	}

	startTime := time.Now()
	response, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildPrompt(input)},
	})
	if err != nil {
		return nil, fmt.Errorf("analysis chat failed: %w", err)
	}

	var schema analysisSchema
	if err := common.ExtractJSONInto(response, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("analysis response failed validation: %w", err)
	}

	result := s.buildRecords(input, &schema)

	if err := s.storage.SaveAnalysis(ctx, result.analysis); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	for _, prediction := range result.predictions {
		if err := s.storage.SavePrediction(ctx, prediction); err != nil {
			// Prediction persistence is best-effort; the analysis itself
			// is already saved and drives the revision engine.
			s.logger.Warn().
				Err(err).
				Str("analysis_id", result.analysis.ID).
				Msg("Failed to save prediction")
		}
	}

	s.logger.Info().
		Str("analysis_id", result.analysis.ID).
		Str("source", input.SourceName).
		Str("sentiment", string(result.analysis.SentimentOverall)).
		Int("predictions", len(result.predictions)).
		Dur("duration", time.Since(startTime)).
		Msg("Content analysis complete")

	return result.analysis, nil
}

type analysisRecords struct {
	analysis    *models.ContentAnalysis
	predictions []*models.Prediction
}

// buildRecords converts the validated schema into persistent records,
// filling conservative defaults for enum fields the model omitted.
func (s *Service) buildRecords(input Input, schema *analysisSchema) *analysisRecords {
	now := time.Now()

	analysis := &models.ContentAnalysis{
		ID:               common.NewAnalysisID(),
		SourceName:       input.SourceName,
		ContentID:        input.ContentID,
		SentimentOverall: models.Sentiment(schema.SentimentOverall),
		SentimentScore:   schema.SentimentScore,
		AssetsMentioned:  normalizeAssets(schema.AssetsMentioned),
		Themes:           schema.Themes,
		Summary:          schema.Summary,
		CreatedAt:        now,
	}

	predictions := make([]*models.Prediction, 0, len(schema.Predictions))
	for _, p := range schema.Predictions {
		analysis.Predictions = append(analysis.Predictions, p.Claim)

		prediction := &models.Prediction{
			ID:              common.NewPredictionID(),
			AnalysisID:      analysis.ID,
			Claim:           p.Claim,
			Themes:          p.Themes,
			AssetsMentioned: normalizeAssets(p.AssetsMentioned),
			Sentiment:       models.Sentiment(p.Sentiment),
			TimeHorizon:     models.Horizon(p.TimeHorizon),
			Confidence:      models.Confidence(p.Confidence),
			Specificity:     models.Specificity(p.Specificity),
			SourceName:      input.SourceName,
			ContentID:       input.ContentID,
			DateMade:        now,
		}
		if prediction.Sentiment == "" {
			prediction.Sentiment = analysis.SentimentOverall
		}
		if prediction.TimeHorizon == "" {
			prediction.TimeHorizon = models.HorizonUnspecified
		}
		if prediction.Confidence == "" {
			prediction.Confidence = models.ConfidenceMedium
		}
		if prediction.Specificity == "" {
			prediction.Specificity = models.SpecificityGeneral
		}
		predictions = append(predictions, prediction)
	}

	return &analysisRecords{analysis: analysis, predictions: predictions}
}

func normalizeAssets(assets []string) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		if normalized := common.NormalizeTicker(a); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}
