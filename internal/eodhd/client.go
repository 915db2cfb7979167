package eodhd

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/httpclient"
)

const (
	// DefaultBaseURL is the base URL for the EODHD API.
	DefaultBaseURL = "https://eodhd.com/api"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10
)

// Client is an EODHD API client.
type Client struct {
	baseURL   string
	apiKey    string
	timeout   time.Duration
	rateLimit int
	policy    httpclient.RetryPolicy
	logger    arbor.ILogger
	executor  *httpclient.Executor
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.rateLimit = requestsPerSecond
	}
}

// WithRetryPolicy sets the retry policy for transient failures.
func WithRetryPolicy(policy httpclient.RetryPolicy) ClientOption {
	return func(c *Client) {
		c.policy = policy
	}
}

// NewClient creates a new EODHD API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		apiKey:    apiKey,
		timeout:   DefaultTimeout,
		rateLimit: DefaultRateLimit,
		policy:    httpclient.DefaultRetryPolicy(),
		logger:    arbor.NewLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.executor = httpclient.NewExecutor("eodhd", c.baseURL, c.logger,
		httpclient.WithTimeout(c.timeout),
		httpclient.WithRateLimit(c.rateLimit),
		httpclient.WithRetryPolicy(c.policy),
	)

	return c
}

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params map[string]string, result interface{}) error {
	if params == nil {
		params = map[string]string{}
	}
	params["api_token"] = c.apiKey
	params["fmt"] = "json"

	err := c.executor.GetJSON(ctx, httpclient.Request{Path: path, Query: params}, result)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return &APIError{
				StatusCode: statusErr.StatusCode,
				Message:    statusErr.Body,
				Endpoint:   path,
				Err:        err,
			}
		}
		return err
	}
	return nil
}

// GetEOD retrieves end-of-day price data for a symbol.
// Symbol format: TICKER.EXCHANGE (e.g., "AAPL.US")
func (c *Client) GetEOD(ctx context.Context, symbol string, opts ...QueryOption) (EODResponse, error) {
	params := &queryParams{
		Period: "d",
		Order:  "a",
	}
	for _, opt := range opts {
		opt(params)
	}

	queryParams := params.dateRange()
	if params.Period != "" {
		queryParams["period"] = params.Period
	}
	if params.Order != "" {
		queryParams["order"] = params.Order
	}

	var result EODResponse
	if err := c.get(ctx, "/eod/"+symbol, queryParams, &result); err != nil {
		return nil, err
	}

	for i := range result {
		if t, err := time.Parse("2006-01-02", result[i].DateStr); err == nil {
			result[i].Date = t
		}
	}

	return result, nil
}

// GetNews retrieves news for one or more symbols.
// Symbols should be in TICKER.EXCHANGE format.
func (c *Client) GetNews(ctx context.Context, symbols []string, opts ...QueryOption) (NewsResponse, error) {
	params := &queryParams{
		Limit: 50,
	}
	for _, opt := range opts {
		opt(params)
	}

	queryParams := params.dateRange()
	queryParams["s"] = strings.Join(symbols, ",")
	if params.Limit > 0 {
		queryParams["limit"] = strconv.Itoa(params.Limit)
	}

	var result NewsResponse
	if err := c.get(ctx, "/news", queryParams, &result); err != nil {
		return nil, err
	}

	for i := range result {
		result[i].Date = parseNewsDate(result[i].DateStr)
	}

	return result, nil
}

func parseNewsDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
