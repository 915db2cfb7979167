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

// QuoteStorage implements the QuoteStorage interface for Badger
type QuoteStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewQuoteStorage creates a new QuoteStorage instance
func NewQuoteStorage(db *BadgerDB, logger arbor.ILogger) interfaces.QuoteStorage {
	return &QuoteStorage{
		db:     db,
		logger: logger,
	}
}

// SaveQuote upserts a quote keyed by symbol and trading day
func (s *QuoteStorage) SaveQuote(ctx context.Context, quote models.StockQuote) error {
	if quote.Symbol == "" || quote.LatestTradingDay.IsZero() {
		return fmt.Errorf("quote symbol and trading day are required")
	}
	quote.LatestTradingDay = truncateDay(quote.LatestTradingDay)
	if err := s.db.Store().Upsert(quote.Key(), &quote); err != nil {
		return fmt.Errorf("failed to save quote %s: %w", quote.Key(), err)
	}
	return nil
}

func (s *QuoteStorage) SaveQuotes(ctx context.Context, quotes []models.StockQuote) (int, error) {
	saved := 0
	for _, quote := range quotes {
		if err := s.SaveQuote(ctx, quote); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

// GetHistory returns up to limit bars before the given day, oldest first
func (s *QuoteStorage) GetHistory(ctx context.Context, symbol string, before time.Time, limit int) ([]models.StockQuote, error) {
	query := badgerhold.Where("Symbol").Eq(symbol).
		And("LatestTradingDay").Lt(truncateDay(before)).
		SortBy("LatestTradingDay").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var quotes []models.StockQuote
	if err := s.db.Store().Find(&quotes, query); err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", symbol, err)
	}

	for i, j := 0, len(quotes)-1; i < j; i, j = i+1, j-1 {
		quotes[i], quotes[j] = quotes[j], quotes[i]
	}
	return quotes, nil
}

func (s *QuoteStorage) GetLatestQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	var quotes []models.StockQuote
	query := badgerhold.Where("Symbol").Eq(symbol).SortBy("LatestTradingDay").Reverse().Limit(1)
	if err := s.db.Store().Find(&quotes, query); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("quote %s: %w", symbol, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest quote: %w", err)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("quote %s: %w", symbol, interfaces.ErrNotFound)
	}
	return &quotes[0], nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
