// Package yahoo fetches quotes from Yahoo Finance through finance-go.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/httpclient"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// ProviderName identifies Yahoo records and logs.
const ProviderName = "yahoo"

// ErrNoQuote is returned when Yahoo has no quote for the symbol.
var ErrNoQuote = errors.New("yahoo returned no quote")

// QuoteFunc fetches a raw quote. quote.Get is the default.
type QuoteFunc func(symbol string) (*finance.Quote, error)

// Client is a keyless Yahoo Finance quote provider.
type Client struct {
	get    QuoteFunc
	policy httpclient.RetryPolicy
	logger arbor.ILogger
}

var _ interfaces.QuoteProvider = (*Client)(nil)

// NewClient creates a Yahoo client retrying failures with policy.
func NewClient(policy httpclient.RetryPolicy, logger arbor.ILogger) *Client {
	return &Client{
		get:    quote.Get,
		policy: policy,
		logger: logger,
	}
}

// WithQuoteFunc replaces the finance-go lookup.
func (c *Client) WithQuoteFunc(fn QuoteFunc) *Client {
	c.get = fn
	return c
}

func (c *Client) Name() string {
	return ProviderName
}

// FetchQuote returns the latest regular-market quote for symbol.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	code := common.ParseTicker(symbol).Code

	var result *models.StockQuote
	err := httpclient.Retry(ctx, c.policy, c.logger, "yahoo "+code, func(ctx context.Context) error {
		q, err := c.lookup(ctx, code)
		if err != nil {
			return err
		}
		result = toStockQuote(code, q)
		return nil
	}, retryable)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lookup runs the blocking finance-go call so ctx can abandon it.
func (c *Client) lookup(ctx context.Context, symbol string) (*finance.Quote, error) {
	type outcome struct {
		quote *finance.Quote
		err   error
	}
	ch := make(chan outcome, 1)

	go func() {
		q, err := c.get(symbol)
		ch <- outcome{quote: q, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-ch:
		if out.err != nil {
			return nil, &httpclient.TransportError{Path: "quote/" + symbol, Err: out.err}
		}
		if out.quote == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoQuote, symbol)
		}
		return out.quote, nil
	}
}

func retryable(err error) bool {
	if errors.Is(err, ErrNoQuote) {
		return false
	}
	return httpclient.IsRetryable(err)
}

func toStockQuote(symbol string, q *finance.Quote) *models.StockQuote {
	tradingDay := time.Now().UTC()
	if q.RegularMarketTime != 0 {
		tradingDay = time.Unix(int64(q.RegularMarketTime), 0).UTC()
	}
	if q.Symbol != "" {
		symbol = strings.ToUpper(q.Symbol)
	}

	return &models.StockQuote{
		Symbol:           symbol,
		Open:             q.RegularMarketOpen,
		High:             q.RegularMarketDayHigh,
		Low:              q.RegularMarketDayLow,
		Price:            q.RegularMarketPrice,
		Volume:           int64(q.RegularMarketVolume),
		PreviousClose:    q.RegularMarketPreviousClose,
		Change:           q.RegularMarketChange,
		ChangePercent:    q.RegularMarketChangePercent,
		LatestTradingDay: time.Date(tradingDay.Year(), tradingDay.Month(), tradingDay.Day(), 0, 0, 0, 0, time.UTC),
		Provider:         ProviderName,
	}
}
