// Package alphavantage fetches daily quotes from the Alpha Vantage GLOBAL_QUOTE function.
package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/httpclient"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// ProviderName identifies Alpha Vantage records and logs.
const ProviderName = "alphavantage"

var (
	// ErrRateLimited is returned when the API answers with a throttling note.
	ErrRateLimited = errors.New("alpha vantage rate limit reached")

	// ErrNoQuote is returned when the response holds no quote for the symbol.
	ErrNoQuote = errors.New("alpha vantage returned no quote")
)

type response struct {
	GlobalQuote  map[string]string `json:"Global Quote"`
	ErrorMessage string            `json:"Error Message"`
	Note         string            `json:"Note"`
	Information  string            `json:"Information"`
}

// Client is an Alpha Vantage quote provider.
type Client struct {
	executor *httpclient.Executor
	apiKey   string
	logger   arbor.ILogger
}

var _ interfaces.QuoteProvider = (*Client)(nil)

// NewClient creates a client issuing requests through executor.
func NewClient(executor *httpclient.Executor, apiKey string, logger arbor.ILogger) *Client {
	return &Client{
		executor: executor,
		apiKey:   apiKey,
		logger:   logger,
	}
}

func (c *Client) Name() string {
	return ProviderName
}

// FetchQuote returns the latest daily quote for symbol.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	code := common.ParseTicker(symbol).Code

	var resp response
	err := c.executor.GetJSON(ctx, httpclient.Request{
		Path: "/query",
		Query: map[string]string{
			"function": "GLOBAL_QUOTE",
			"symbol":   code,
			"apikey":   c.apiKey,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.ErrorMessage != "":
		return nil, fmt.Errorf("alpha vantage error for %s: %s", code, resp.ErrorMessage)
	case resp.Note != "" || resp.Information != "":
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, strings.TrimSpace(resp.Note+" "+resp.Information))
	case len(resp.GlobalQuote) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNoQuote, code)
	}

	return parseGlobalQuote(resp.GlobalQuote)
}

// parseGlobalQuote converts the string-valued GLOBAL_QUOTE fields.
func parseGlobalQuote(fields map[string]string) (*models.StockQuote, error) {
	p := &fieldParser{fields: fields}

	quote := &models.StockQuote{
		Symbol:        strings.ToUpper(fields["01. symbol"]),
		Open:          p.float("02. open"),
		High:          p.float("03. high"),
		Low:           p.float("04. low"),
		Price:         p.float("05. price"),
		Volume:        p.int("06. volume"),
		PreviousClose: p.float("08. previous close"),
		Change:        p.float("09. change"),
		ChangePercent: p.float("10. change percent"),
		Provider:      ProviderName,
	}
	if p.err != nil {
		return nil, p.err
	}

	day, err := time.Parse(models.DateLayout, fields["07. latest trading day"])
	if err != nil {
		return nil, fmt.Errorf("invalid latest trading day %q: %w", fields["07. latest trading day"], err)
	}
	quote.LatestTradingDay = day

	if quote.Symbol == "" {
		return nil, ErrNoQuote
	}
	return quote, nil
}

// fieldParser records the first parse failure.
type fieldParser struct {
	fields map[string]string
	err    error
}

func (p *fieldParser) decimal(key string) decimal.Decimal {
	raw := strings.TrimSuffix(strings.TrimSpace(p.fields[key]), "%")
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d
}

func (p *fieldParser) float(key string) float64 {
	return p.decimal(key).InexactFloat64()
}

func (p *fieldParser) int(key string) int64 {
	return p.decimal(key).IntPart()
}
