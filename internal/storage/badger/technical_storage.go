package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// TechnicalStorage implements interfaces.TechnicalStorage for Badger.
// Only the historical deviation bounds persist; prices and deviations are
// transient and recomputed per fetch.
type TechnicalStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTechnicalStorage creates a new TechnicalStorage instance
func NewTechnicalStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TechnicalStorage {
	return &TechnicalStorage{
		db:     db,
		logger: logger,
	}
}

// GetBounds retrieves the persisted bounds for a ticker/window pair.
func (s *TechnicalStorage) GetBounds(ctx context.Context, ticker string, window models.MAWindow) (*models.DeviationBounds, error) {
	key := models.BoundsKey(ticker, window)
	var bounds models.DeviationBounds
	err := s.db.Store().Get(key, &bounds)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deviation bounds: %w", err)
	}
	return &bounds, nil
}

// UpsertBoundsBatch persists changed bound rows. Each row is written under
// its own ticker/window key; a failure on one row is logged and does not
// abort the rest of the batch.
func (s *TechnicalStorage) UpsertBoundsBatch(ctx context.Context, bounds []*models.DeviationBounds) error {
	var failed int
	for _, b := range bounds {
		if b == nil || b.Key == "" {
			continue
		}
		if err := s.db.Store().Upsert(b.Key, b); err != nil {
			failed++
			s.logger.Warn().Err(err).Str("key", b.Key).Msg("Failed to persist deviation bounds")
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to persist %d of %d bound rows", failed, len(bounds))
	}
	return nil
}

var _ interfaces.TechnicalStorage = (*TechnicalStorage)(nil)
