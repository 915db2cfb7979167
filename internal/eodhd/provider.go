package eodhd

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// ProviderName identifies EODHD records and logs.
const ProviderName = "eodhd"

// Provider adapts the client to the news and history provider interfaces.
type Provider struct {
	client *Client
}

var (
	_ interfaces.NewsProvider    = (*Provider)(nil)
	_ interfaces.HistoryProvider = (*Provider)(nil)
)

// NewProvider wraps client.
func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string {
	return ProviderName
}

// SupportsGeneralQueries is false: EODHD news is keyed by symbol.
func (p *Provider) SupportsGeneralQueries() bool {
	return false
}

// FetchNews returns symbol news. EODHD has no free-text search, so general
// queries return nothing.
func (p *Provider) FetchNews(ctx context.Context, query interfaces.NewsQuery) ([]models.Article, error) {
	if query.Symbol == "" {
		return nil, nil
	}

	opts := []QueryOption{}
	if query.Limit > 0 {
		opts = append(opts, WithLimit(query.Limit))
	}
	if !query.From.IsZero() {
		opts = append(opts, WithDateRange(query.From, time.Time{}))
	}

	items, err := p.client.GetNews(ctx, []string{common.ParseTicker(query.Symbol).EODHDSymbol()}, opts...)
	if err != nil {
		return nil, err
	}

	fetchedAt := time.Now().UTC()
	articles := make([]models.Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, item.article(fetchedAt))
	}
	return articles, nil
}

// FetchHistory returns daily bars oldest first.
func (p *Provider) FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.StockQuote, error) {
	ticker := common.ParseTicker(symbol)
	bars, err := p.client.GetEOD(ctx, ticker.EODHDSymbol(), WithDateRange(from, to), WithOrder("a"))
	if err != nil {
		return nil, err
	}

	quotes := make([]models.StockQuote, 0, len(bars))
	var previous float64
	for _, bar := range bars {
		if bar.Date.IsZero() {
			continue
		}
		quotes = append(quotes, bar.quote(ticker.Code, previous))
		previous = bar.Close
	}
	return quotes, nil
}

func sourceFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return ProviderName
	}
	return strings.TrimPrefix(u.Host, "www.")
}

func summarize(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
