package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/marketpulse/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// ArticleQuery filters ListArticles. Zero values match everything.
type ArticleQuery struct {
	Symbol string
	Since  time.Time
	Limit  int
}

// ArticleStorage - persistence for enriched articles and per-symbol news groups.
// Articles are upserted by URL so a later fetch replaces an earlier one.
type ArticleStorage interface {
	SaveArticles(ctx context.Context, articles []models.Article) (int, error)
	GetArticle(ctx context.Context, url string) (*models.Article, error)
	ListArticles(ctx context.Context, query ArticleQuery) ([]models.Article, error) // newest first
	CountArticles(ctx context.Context) (int, error)

	SaveStockNews(ctx context.Context, news *models.StockNews) error
	GetStockNews(ctx context.Context, symbol, date string) (*models.StockNews, error)
}

// QuoteStorage - raw daily quotes, one per symbol per trading day
type QuoteStorage interface {
	SaveQuote(ctx context.Context, quote models.StockQuote) error
	SaveQuotes(ctx context.Context, quotes []models.StockQuote) (int, error)
	// GetHistory returns up to limit bars strictly before the given day,
	// ordered oldest to newest.
	GetHistory(ctx context.Context, symbol string, before time.Time, limit int) ([]models.StockQuote, error)
	GetLatestQuote(ctx context.Context, symbol string) (*models.StockQuote, error)
}

// OptionsStorage - options chains keyed by underlying and expiration
type OptionsStorage interface {
	SaveChain(ctx context.Context, chain *models.OptionsChain) error
	GetChains(ctx context.Context, underlying string) ([]models.OptionsChain, error) // by expiration ascending
}

// SnapshotStorage - enriched market snapshots keyed by symbol and day
type SnapshotStorage interface {
	SaveSnapshot(ctx context.Context, snapshot *models.MarketSnapshot) error
	GetSnapshot(ctx context.Context, symbol, date string) (*models.MarketSnapshot, error)
	GetLatestSnapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error)
}

// RunStorage - the ingestion run ledger
type RunStorage interface {
	SaveRun(ctx context.Context, run *models.IngestionRun) error
	GetRun(ctx context.Context, id string) (*models.IngestionRun, error)
	// ListRuns returns the most recent runs first; an empty domain lists all.
	ListRuns(ctx context.Context, domain models.Domain, limit int) ([]models.IngestionRun, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	ArticleStorage() ArticleStorage
	QuoteStorage() QuoteStorage
	OptionsStorage() OptionsStorage
	SnapshotStorage() SnapshotStorage
	RunStorage() RunStorage
	Close() error
}
