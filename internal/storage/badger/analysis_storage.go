package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AnalysisStorage implements interfaces.AnalysisStorage for Badger.
// Analyses and predictions are append-only; predictions additionally allow
// in-place updates for the consistency-repair pass.
type AnalysisStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAnalysisStorage creates a new AnalysisStorage instance
func NewAnalysisStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AnalysisStorage {
	return &AnalysisStorage{
		db:     db,
		logger: logger,
	}
}

// SaveAnalysis inserts a new content analysis. Analyses are immutable, so a
// duplicate ID is an error rather than an overwrite.
func (s *AnalysisStorage) SaveAnalysis(ctx context.Context, analysis *models.ContentAnalysis) error {
	if analysis.ID == "" {
		return fmt.Errorf("analysis ID is required")
	}
	if err := s.db.Store().Insert(analysis.ID, analysis); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetAnalysis retrieves an analysis by ID.
func (s *AnalysisStorage) GetAnalysis(ctx context.Context, id string) (*models.ContentAnalysis, error) {
	var analysis models.ContentAnalysis
	err := s.db.Store().Get(id, &analysis)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &analysis, nil
}

// GetAnalysisByContentID retrieves the analysis for a content item, if one
// exists. Used by the ingest path to skip already-analyzed content.
func (s *AnalysisStorage) GetAnalysisByContentID(ctx context.Context, contentID string) (*models.ContentAnalysis, error) {
	var results []models.ContentAnalysis
	err := s.db.Store().Find(&results, badgerhold.Where("ContentID").Eq(contentID).Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis by content: %w", err)
	}
	if len(results) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &results[0], nil
}

// ListAnalyses returns analyses newest first. limit <= 0 means no limit.
func (s *AnalysisStorage) ListAnalyses(ctx context.Context, limit int) ([]*models.ContentAnalysis, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse() // Select all, newest first
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []models.ContentAnalysis
	if err := s.db.Store().Find(&results, query); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	analyses := make([]*models.ContentAnalysis, len(results))
	for i := range results {
		analyses[i] = &results[i]
	}
	return analyses, nil
}

// SavePrediction inserts a new prediction.
func (s *AnalysisStorage) SavePrediction(ctx context.Context, prediction *models.Prediction) error {
	if prediction.ID == "" {
		return fmt.Errorf("prediction ID is required")
	}
	if err := s.db.Store().Insert(prediction.ID, prediction); err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}
	return nil
}

// UpdatePrediction rewrites an existing prediction. Only the repair pass
// calls this.
func (s *AnalysisStorage) UpdatePrediction(ctx context.Context, prediction *models.Prediction) error {
	err := s.db.Store().Update(prediction.ID, prediction)
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update prediction: %w", err)
	}
	return nil
}

// ListPredictions returns predictions newest first. limit <= 0 means no limit.
func (s *AnalysisStorage) ListPredictions(ctx context.Context, limit int) ([]*models.Prediction, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("DateMade").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []models.Prediction
	if err := s.db.Store().Find(&results, query); err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}

	predictions := make([]*models.Prediction, len(results))
	for i := range results {
		predictions[i] = &results[i]
	}
	return predictions, nil
}

// ListPredictionsByAnalysis returns all predictions extracted from one analysis.
func (s *AnalysisStorage) ListPredictionsByAnalysis(ctx context.Context, analysisID string) ([]*models.Prediction, error) {
	var results []models.Prediction
	err := s.db.Store().Find(&results, badgerhold.Where("AnalysisID").Eq(analysisID))
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions by analysis: %w", err)
	}

	predictions := make([]*models.Prediction, len(results))
	for i := range results {
		predictions[i] = &results[i]
	}
	return predictions, nil
}

var _ interfaces.AnalysisStorage = (*AnalysisStorage)(nil)
