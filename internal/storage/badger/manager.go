package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db       *BadgerDB
	article  interfaces.ArticleStorage
	quote    interfaces.QuoteStorage
	options  interfaces.OptionsStorage
	snapshot interfaces.SnapshotStorage
	run      interfaces.RunStorage
	logger   arbor.ILogger
}

// NewManager opens the database and builds every storage on top of it
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := newManager(db, logger)
	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

func newManager(db *BadgerDB, logger arbor.ILogger) *Manager {
	return &Manager{
		db:       db,
		article:  NewArticleStorage(db, logger),
		quote:    NewQuoteStorage(db, logger),
		options:  NewOptionsStorage(db, logger),
		snapshot: NewSnapshotStorage(db, logger),
		run:      NewRunStorage(db, logger),
		logger:   logger,
	}
}

// ArticleStorage returns the Article storage interface
func (m *Manager) ArticleStorage() interfaces.ArticleStorage {
	return m.article
}

// QuoteStorage returns the Quote storage interface
func (m *Manager) QuoteStorage() interfaces.QuoteStorage {
	return m.quote
}

// OptionsStorage returns the Options storage interface
func (m *Manager) OptionsStorage() interfaces.OptionsStorage {
	return m.options
}

// SnapshotStorage returns the Snapshot storage interface
func (m *Manager) SnapshotStorage() interfaces.SnapshotStorage {
	return m.snapshot
}

// RunStorage returns the Run storage interface
func (m *Manager) RunStorage() interfaces.RunStorage {
	return m.run
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
