// Package eodhd provides a client for the EODHD (End of Day Historical Data) API.
package eodhd

import (
	"fmt"
	"time"
)

// QueryOption represents an optional parameter for API queries.
type QueryOption func(*queryParams)

// queryParams holds optional query parameters.
type queryParams struct {
	From   time.Time
	To     time.Time
	Period string // d, w, m
	Order  string // a (asc), d (desc)
	Limit  int
}

func (p *queryParams) dateRange() map[string]string {
	params := map[string]string{}
	if !p.From.IsZero() {
		params["from"] = p.From.Format("2006-01-02")
	}
	if !p.To.IsZero() {
		params["to"] = p.To.Format("2006-01-02")
	}
	return params
}

// WithDateRange sets the date range for the query.
func WithDateRange(from, to time.Time) QueryOption {
	return func(p *queryParams) {
		p.From = from
		p.To = to
	}
}

// WithOrder sets the order (a=ascending, d=descending).
func WithOrder(order string) QueryOption {
	return func(p *queryParams) {
		p.Order = order
	}
}

// WithLimit sets the maximum number of results.
func WithLimit(limit int) QueryOption {
	return func(p *queryParams) {
		p.Limit = limit
	}
}

// APIError represents an error from the EODHD API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
