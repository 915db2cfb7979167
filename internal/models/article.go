package models

import (
	"time"
)

// Article is a normalized news article. URL is the identity key: two articles
// with the same URL are the same logical entity.
type Article struct {
	Source      string    `json:"source" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	URL         string    `json:"url" validate:"required,url"`
	PublishedAt time.Time `json:"published_at" validate:"required"`
	Content     string    `json:"content,omitempty"`

	// Populated by the enrichment passes. Tickers is nil (not empty) when
	// no symbol was associated.
	Tickers           []string          `json:"tickers,omitempty"`
	SentimentScore    float64           `json:"sentiment_score"`
	SentimentCategory SentimentCategory `json:"sentiment_category,omitempty"`
	SentimentDegraded bool              `json:"sentiment_degraded,omitempty"` // neutral default after a scoring failure
	RelevanceScore    float64           `json:"relevance_score"`

	Provider  string    `json:"provider,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// HasTicker reports whether symbol was associated with the article.
func (a Article) HasTicker(symbol string) bool {
	for _, t := range a.Tickers {
		if t == symbol {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with the receiver.
func (a Article) Clone() Article {
	c := a
	if a.Tickers != nil {
		c.Tickers = make([]string, len(a.Tickers))
		copy(c.Tickers, a.Tickers)
	}
	return c
}

// SentimentCategory is the discrete bucket of a sentiment score.
type SentimentCategory string

const (
	SentimentVeryNegative SentimentCategory = "very_negative"
	SentimentNegative     SentimentCategory = "negative"
	SentimentNeutral      SentimentCategory = "neutral"
	SentimentPositive     SentimentCategory = "positive"
	SentimentVeryPositive SentimentCategory = "very_positive"
)

// SentimentStats summarizes sentiment across a group of articles
type SentimentStats struct {
	PositiveCount int     `json:"positive_count"`
	NeutralCount  int     `json:"neutral_count"`
	NegativeCount int     `json:"negative_count"`
	AvgSentiment  float64 `json:"avg_sentiment"`
}

// StockNews is the per-symbol grouping of a news run, newest article first.
type StockNews struct {
	Symbol      string         `json:"symbol"`
	Date        string         `json:"date"` // YYYY-MM-DD of the run
	Articles    []Article      `json:"articles"`
	Sentiment   SentimentStats `json:"sentiment"`
	GeneratedAt time.Time      `json:"generated_at"`
}
