package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db          *BadgerDB
	analysis    interfaces.AnalysisStorage
	outlook     interfaces.OutlookStorage
	signalCache interfaces.SignalCacheStorage
	technical   interfaces.TechnicalStorage
	logger      arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:          db,
		analysis:    NewAnalysisStorage(db, logger),
		outlook:     NewOutlookStorage(db, logger),
		signalCache: NewSignalCacheStorage(db, logger),
		technical:   NewTechnicalStorage(db, logger),
		logger:      logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// AnalysisStorage returns the analysis storage interface
func (m *Manager) AnalysisStorage() interfaces.AnalysisStorage {
	return m.analysis
}

// OutlookStorage returns the outlook storage interface
func (m *Manager) OutlookStorage() interfaces.OutlookStorage {
	return m.outlook
}

// SignalCacheStorage returns the signal cache storage interface
func (m *Manager) SignalCacheStorage() interfaces.SignalCacheStorage {
	return m.signalCache
}

// TechnicalStorage returns the technical bounds storage interface
func (m *Manager) TechnicalStorage() interfaces.TechnicalStorage {
	return m.technical
}

// Close closes the underlying database connection
func (m *Manager) Close() error {
	return m.db.Close()
}

var _ interfaces.StorageManager = (*Manager)(nil)
