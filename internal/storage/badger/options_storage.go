package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// OptionsStorage implements the OptionsStorage interface for Badger
type OptionsStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewOptionsStorage creates a new OptionsStorage instance
func NewOptionsStorage(db *BadgerDB, logger arbor.ILogger) interfaces.OptionsStorage {
	return &OptionsStorage{
		db:     db,
		logger: logger,
	}
}

// SaveChain upserts a chain keyed by underlying and expiration
func (s *OptionsStorage) SaveChain(ctx context.Context, chain *models.OptionsChain) error {
	if chain.Underlying == "" || chain.Expiration == "" {
		return fmt.Errorf("chain underlying and expiration are required")
	}
	if chain.GeneratedAt.IsZero() {
		chain.GeneratedAt = time.Now()
	}
	if err := s.db.Store().Upsert(chain.Key(), chain); err != nil {
		return fmt.Errorf("failed to save options chain %s: %w", chain.Key(), err)
	}
	return nil
}

// GetChains returns every stored chain for underlying, nearest expiration first
func (s *OptionsStorage) GetChains(ctx context.Context, underlying string) ([]models.OptionsChain, error) {
	var chains []models.OptionsChain
	query := badgerhold.Where("Underlying").Eq(underlying).SortBy("Expiration")
	if err := s.db.Store().Find(&chains, query); err != nil {
		return nil, fmt.Errorf("failed to get options chains for %s: %w", underlying, err)
	}
	return chains, nil
}
