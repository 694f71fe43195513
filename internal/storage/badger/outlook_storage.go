package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// OutlookStorage implements interfaces.OutlookStorage for Badger.
type OutlookStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewOutlookStorage creates a new OutlookStorage instance
func NewOutlookStorage(db *BadgerDB, logger arbor.ILogger) interfaces.OutlookStorage {
	return &OutlookStorage{
		db:     db,
		logger: logger,
	}
}

// GetOutlook retrieves the live outlook row for a (horizon, domain) pair.
func (s *OutlookStorage) GetOutlook(ctx context.Context, horizon models.Horizon, domain string) (*models.Outlook, error) {
	key := models.OutlookKey(horizon, domain)
	var outlook models.Outlook
	err := s.db.Store().Get(key, &outlook)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outlook: %w", err)
	}
	return &outlook, nil
}

// ListOutlooks returns all outlook rows ordered short, medium, long.
func (s *OutlookStorage) ListOutlooks(ctx context.Context) ([]*models.Outlook, error) {
	var results []models.Outlook
	err := s.db.Store().Find(&results, badgerhold.Where("Key").Ne("")) // Select all
	if err != nil {
		return nil, fmt.Errorf("failed to list outlooks: %w", err)
	}

	order := map[models.Horizon]int{
		models.HorizonShort:  0,
		models.HorizonMedium: 1,
		models.HorizonLong:   2,
	}
	sort.Slice(results, func(i, j int) bool {
		return order[results[i].TimeHorizon] < order[results[j].TimeHorizon]
	})

	outlooks := make([]*models.Outlook, len(results))
	for i := range results {
		outlooks[i] = &results[i]
	}
	return outlooks, nil
}

// UpsertOutlook writes the full outlook row under its key. The caller is
// responsible for having applied the sparse patch to a freshly read row, so
// concurrent writers for different horizons never contend on the same key.
func (s *OutlookStorage) UpsertOutlook(ctx context.Context, outlook *models.Outlook) error {
	if outlook.Key == "" {
		outlook.Key = models.OutlookKey(outlook.TimeHorizon, outlook.Domain)
	}
	if err := s.db.Store().Upsert(outlook.Key, outlook); err != nil {
		return fmt.Errorf("failed to upsert outlook: %w", err)
	}
	return nil
}

// AppendHistory inserts one history entry. History is append-only: entries
// are never updated or deleted.
func (s *OutlookStorage) AppendHistory(ctx context.Context, entry *models.OutlookHistoryEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("history entry ID is required")
	}
	if err := s.db.Store().Insert(entry.ID, entry); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

// ListHistory returns history entries newest first, optionally filtered to a
// horizon and to entries that actually recorded changes.
func (s *OutlookStorage) ListHistory(ctx context.Context, horizon models.Horizon, changedOnly bool, limit int) ([]*models.OutlookHistoryEntry, error) {
	var query *badgerhold.Query
	if horizon != "" {
		query = badgerhold.Where("TimeHorizon").Eq(horizon)
	} else {
		query = badgerhold.Where("ID").Ne("")
	}
	query = query.SortBy("CreatedAt").Reverse()

	var results []models.OutlookHistoryEntry
	if err := s.db.Store().Find(&results, query); err != nil {
		return nil, fmt.Errorf("failed to list outlook history: %w", err)
	}

	entries := make([]*models.OutlookHistoryEntry, 0, len(results))
	for i := range results {
		if changedOnly && len(results[i].ChangesSummary) == 0 {
			continue
		}
		entries = append(entries, &results[i])
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

var _ interfaces.OutlookStorage = (*OutlookStorage)(nil)
