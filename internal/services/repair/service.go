// Package repair implements the offline consistency pass that keeps each
// prediction's themes and assets a subset of its parent analysis.
package repair

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
)

// Service runs the prediction consistency pass. Pure data hygiene: no
// external calls, deterministic, and a no-op on already-consistent data.
type Service struct {
	storage interfaces.AnalysisStorage
	logger  arbor.ILogger
}

// NewService creates a new repair service.
func NewService(storage interfaces.AnalysisStorage, logger arbor.ILogger) *Service {
	return &Service{storage: storage, logger: logger}
}

// Report summarizes what one pass did.
type Report struct {
	Checked      int `json:"checked"`
	Repaired     int `json:"repaired"`     // predictions rewritten
	Reclassified int `json:"reclassified"` // values moved between themes and assets
	Dropped      int `json:"dropped"`      // orphan values removed
}

// Run validates every prediction against its parent analysis and persists
// corrections. Re-running on corrected data changes nothing.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	predictions, err := s.storage.ListPredictions(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}

	report := &Report{}
	for _, prediction := range predictions {
		report.Checked++

		parent, err := s.storage.GetAnalysis(ctx, prediction.AnalysisID)
		if errors.Is(err, interfaces.ErrNotFound) {
			s.logger.Warn().
				Str("prediction_id", prediction.ID).
				Str("analysis_id", prediction.AnalysisID).
				Msg("Prediction references missing analysis, leaving as is")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load analysis %s: %w", prediction.AnalysisID, err)
		}

		changed := repairPrediction(prediction, parent, report)
		if !changed {
			continue
		}

		if err := s.storage.UpdatePrediction(ctx, prediction); err != nil {
			return nil, fmt.Errorf("failed to persist repaired prediction %s: %w", prediction.ID, err)
		}
		report.Repaired++
	}

	s.logger.Info().
		Int("checked", report.Checked).
		Int("repaired", report.Repaired).
		Int("reclassified", report.Reclassified).
		Int("dropped", report.Dropped).
		Msg("Consistency pass complete")

	return report, nil
}

// repairPrediction corrects one prediction in place. A theme unknown to the
// parent analysis moves to assets when the analysis knows it as an asset,
// and vice versa; values the analysis knows on neither axis are dropped.
func repairPrediction(prediction *models.Prediction, parent *models.ContentAnalysis, report *Report) bool {
	changed := false

	var themes []string
	for _, theme := range prediction.Themes {
		switch {
		case parent.HasTheme(theme):
			themes = append(themes, theme)
		case parent.HasAsset(theme):
			prediction.AssetsMentioned = append(prediction.AssetsMentioned, theme)
			report.Reclassified++
			changed = true
		default:
			report.Dropped++
			changed = true
		}
	}
	prediction.Themes = themes

	var assets []string
	for _, asset := range prediction.AssetsMentioned {
		switch {
		case parent.HasAsset(asset):
			assets = append(assets, asset)
		case parent.HasTheme(asset):
			prediction.Themes = append(prediction.Themes, asset)
			report.Reclassified++
			changed = true
		default:
			report.Dropped++
			changed = true
		}
	}
	prediction.AssetsMentioned = assets

	return changed
}
