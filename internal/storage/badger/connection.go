package badger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// BadgerDB is the single badgerhold store shared by every record type.
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	config *common.BadgerConfig
}

// storeOptions keeps keys and values under dir with badger's own logging off.
func storeOptions(dir string) badgerhold.Options {
	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil
	return options
}

// NewBadgerDB opens the store at config.Path, wiping it first when
// ResetOnStartup is set. A failed wipe is an error so stale records are
// never served as fresh.
func NewBadgerDB(logger arbor.ILogger, config *common.BadgerConfig) (*BadgerDB, error) {
	if config.ResetOnStartup {
		if err := os.RemoveAll(config.Path); err != nil {
			return nil, fmt.Errorf("failed to reset database at %s: %w", config.Path, err)
		}
		logger.Info().Str("path", config.Path).Msg("Database reset on startup")
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := badgerhold.Open(storeOptions(config.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", config.Path, err)
	}

	logger.Debug().Str("path", config.Path).Msg("Database opened")

	return &BadgerDB{
		store:  store,
		logger: logger,
		config: config,
	}, nil
}

func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

func (b *BadgerDB) Close() error {
	if b.store == nil {
		return nil
	}
	if err := b.store.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
