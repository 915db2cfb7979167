package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/marketpulse/internal/models"
)

// NewsQuery is a single news request. Exactly one of Symbol or Query is set.
type NewsQuery struct {
	Symbol string
	Query  string
	From   time.Time
	Limit  int
}

// Label identifies the query in logs.
func (q NewsQuery) Label() string {
	if q.Symbol != "" {
		return q.Symbol
	}
	return q.Query
}

// NewsProvider fetches articles and normalizes them into models.Article.
type NewsProvider interface {
	Name() string
	FetchNews(ctx context.Context, query NewsQuery) ([]models.Article, error)
}

// QuoteProvider fetches the latest daily quote for a symbol.
type QuoteProvider interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (*models.StockQuote, error)
}

// HistoryProvider fetches daily bars between from and to, oldest first.
type HistoryProvider interface {
	Name() string
	FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.StockQuote, error)
}

// OptionsProvider fetches the contracts listed for an underlying.
type OptionsProvider interface {
	Name() string
	FetchContracts(ctx context.Context, underlying string, asOf time.Time) ([]models.OptionsContract, error)
}
