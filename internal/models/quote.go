package models

import (
	"time"
)

// DateLayout is the layout used for trading-day keys.
const DateLayout = "2006-01-02"

// StockQuote is a single daily quote for a symbol.
type StockQuote struct {
	Symbol           string    `json:"symbol" validate:"required"`
	Open             float64   `json:"open" validate:"gte=0"`
	High             float64   `json:"high" validate:"gte=0"`
	Low              float64   `json:"low" validate:"gte=0"`
	Price            float64   `json:"price" validate:"gt=0"`
	Volume           int64     `json:"volume" validate:"gte=0"`
	PreviousClose    float64   `json:"previous_close"`
	Change           float64   `json:"change"`
	ChangePercent    float64   `json:"change_percent"`
	LatestTradingDay time.Time `json:"latest_trading_day" validate:"required"`
	Provider         string    `json:"provider,omitempty"`
}

// Key returns the storage key SYMBOL|YYYY-MM-DD.
func (q StockQuote) Key() string {
	return q.Symbol + "|" + q.LatestTradingDay.Format(DateLayout)
}

// EnrichedStockData is a quote plus fields derived from its trailing history.
// Derived fields are nil when the history was too short to compute them.
type EnrichedStockData struct {
	StockQuote

	AverageVolume    *float64 `json:"average_volume,omitempty"`
	VolumeRatio      *float64 `json:"volume_ratio,omitempty"`
	RelativeStrength *float64 `json:"relative_strength,omitempty"`
	Momentum         *float64 `json:"momentum,omitempty"`

	// Degraded is set when enrichment failed and only base fields are present.
	Degraded bool `json:"degraded,omitempty"`
}

// MarketSnapshot is the market pipeline's output for one symbol and day.
type MarketSnapshot struct {
	Symbol      string            `json:"symbol"`
	Date        string            `json:"date"`
	Enriched    EnrichedStockData `json:"enriched"`
	Correlation CorrelationResult `json:"correlation"`
	HistoryLen  int               `json:"history_len"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Key returns the storage key SYMBOL|YYYY-MM-DD.
func (s MarketSnapshot) Key() string {
	return s.Symbol + "|" + s.Date
}
