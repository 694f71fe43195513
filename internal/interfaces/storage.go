package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/vantage/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// AnalysisStorage persists content analyses and their extracted predictions.
// Both are append-only: analyses are immutable once created, predictions are
// mutable only via the consistency-repair pass.
type AnalysisStorage interface {
	SaveAnalysis(ctx context.Context, analysis *models.ContentAnalysis) error
	GetAnalysis(ctx context.Context, id string) (*models.ContentAnalysis, error)
	// GetAnalysisByContentID supports the idempotent ingest contract:
	// already-analyzed content is detected by existence check.
	GetAnalysisByContentID(ctx context.Context, contentID string) (*models.ContentAnalysis, error)
	ListAnalyses(ctx context.Context, limit int) ([]*models.ContentAnalysis, error)

	SavePrediction(ctx context.Context, prediction *models.Prediction) error
	UpdatePrediction(ctx context.Context, prediction *models.Prediction) error
	ListPredictions(ctx context.Context, limit int) ([]*models.Prediction, error)
	ListPredictionsByAnalysis(ctx context.Context, analysisID string) ([]*models.Prediction, error)
}

// OutlookStorage persists the per-horizon thesis documents and their
// append-only revision history.
type OutlookStorage interface {
	GetOutlook(ctx context.Context, horizon models.Horizon, domain string) (*models.Outlook, error)
	ListOutlooks(ctx context.Context) ([]*models.Outlook, error)
	// UpsertOutlook writes the full row under its (horizon, domain) key.
	// Sparse-patch semantics are applied by the caller before the write.
	UpsertOutlook(ctx context.Context, outlook *models.Outlook) error

	AppendHistory(ctx context.Context, entry *models.OutlookHistoryEntry) error
	// ListHistory returns entries newest first. When changedOnly is set,
	// entries with an empty changes summary are filtered out.
	ListHistory(ctx context.Context, horizon models.Horizon, changedOnly bool, limit int) ([]*models.OutlookHistoryEntry, error)
}

// SignalCacheStorage is the day-keyed signal cache. Upserts are
// last-writer-wins for a given day key.
type SignalCacheStorage interface {
	GetEntry(ctx context.Context, key string) (*models.SignalCacheEntry, error)
	UpsertEntry(ctx context.Context, entry *models.SignalCacheEntry) error
}

// TechnicalStorage persists historical deviation bounds per ticker/window.
type TechnicalStorage interface {
	GetBounds(ctx context.Context, ticker string, window models.MAWindow) (*models.DeviationBounds, error)
	// UpsertBoundsBatch persists only changed bound rows in one pass.
	UpsertBoundsBatch(ctx context.Context, bounds []*models.DeviationBounds) error
}

// StorageManager provides access to all storage services and owns the
// underlying connection lifecycle.
type StorageManager interface {
	AnalysisStorage() AnalysisStorage
	OutlookStorage() OutlookStorage
	SignalCacheStorage() SignalCacheStorage
	TechnicalStorage() TechnicalStorage
	Close() error
}
