package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SignalCacheStorage implements interfaces.SignalCacheStorage for Badger.
// Entries are keyed by calendar day; upserts are last-writer-wins, which is
// how concurrent synthesis races on an empty slot resolve without error.
type SignalCacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSignalCacheStorage creates a new SignalCacheStorage instance
func NewSignalCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SignalCacheStorage {
	return &SignalCacheStorage{
		db:     db,
		logger: logger,
	}
}

// GetEntry retrieves the cache entry for a day key.
func (s *SignalCacheStorage) GetEntry(ctx context.Context, key string) (*models.SignalCacheEntry, error) {
	var entry models.SignalCacheEntry
	err := s.db.Store().Get(key, &entry)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signal cache entry: %w", err)
	}
	return &entry, nil
}

// UpsertEntry writes the cache entry for its day key, overwriting any
// existing entry for that key.
func (s *SignalCacheStorage) UpsertEntry(ctx context.Context, entry *models.SignalCacheEntry) error {
	if entry.Key == "" {
		return fmt.Errorf("signal cache key is required")
	}
	if err := s.db.Store().Upsert(entry.Key, entry); err != nil {
		return fmt.Errorf("failed to upsert signal cache entry: %w", err)
	}
	return nil
}

var _ interfaces.SignalCacheStorage = (*SignalCacheStorage)(nil)
