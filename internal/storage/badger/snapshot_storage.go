package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SnapshotStorage implements the SnapshotStorage interface for Badger
type SnapshotStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SnapshotStorage) SaveSnapshot(ctx context.Context, snapshot *models.MarketSnapshot) error {
	if snapshot.Symbol == "" || snapshot.Date == "" {
		return fmt.Errorf("snapshot symbol and date are required")
	}
	if snapshot.GeneratedAt.IsZero() {
		snapshot.GeneratedAt = time.Now()
	}
	if err := s.db.Store().Upsert(snapshot.Key(), snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snapshot.Key(), err)
	}
	return nil
}

func (s *SnapshotStorage) GetSnapshot(ctx context.Context, symbol, date string) (*models.MarketSnapshot, error) {
	var snapshot models.MarketSnapshot
	if err := s.db.Store().Get(symbol+"|"+date, &snapshot); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("snapshot %s on %s: %w", symbol, date, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *SnapshotStorage) GetLatestSnapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	var snapshots []models.MarketSnapshot
	query := badgerhold.Where("Symbol").Eq(symbol).SortBy("Date").Reverse().Limit(1)
	if err := s.db.Store().Find(&snapshots, query); err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("snapshot %s: %w", symbol, interfaces.ErrNotFound)
	}
	return &snapshots[0], nil
}
