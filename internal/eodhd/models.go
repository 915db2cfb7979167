package eodhd

import (
	"time"

	"github.com/ternarybob/marketpulse/internal/models"
)

// EODData is one daily bar from /eod/{symbol}.
type EODData struct {
	Date    time.Time `json:"-"`
	DateStr string    `json:"date"`
	Open    float64   `json:"open"`
	High    float64   `json:"high"`
	Low     float64   `json:"low"`
	Close   float64   `json:"close"`
	Volume  int64     `json:"volume"`
}

// EODResponse is a slice of EODData.
type EODResponse []EODData

// quote converts the bar to a stored quote. Change fields are derived from
// the previous bar's close and stay zero for the first bar.
func (d EODData) quote(symbol string, previousClose float64) models.StockQuote {
	q := models.StockQuote{
		Symbol:           symbol,
		Open:             d.Open,
		High:             d.High,
		Low:              d.Low,
		Price:            d.Close,
		Volume:           d.Volume,
		PreviousClose:    previousClose,
		LatestTradingDay: d.Date,
		Provider:         ProviderName,
	}
	if previousClose != 0 {
		q.Change = d.Close - previousClose
		q.ChangePercent = q.Change / previousClose * 100
	}
	return q
}

// NewsItem is one article from /news.
type NewsItem struct {
	Date    time.Time `json:"-"`
	DateStr string    `json:"date"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Link    string    `json:"link"`
	Symbols []string  `json:"symbols"`
}

// NewsResponse is a slice of NewsItem.
type NewsResponse []NewsItem

func (n NewsItem) article(fetchedAt time.Time) models.Article {
	return models.Article{
		Source:      sourceFromLink(n.Link),
		Title:       n.Title,
		Description: summarize(n.Content, 300),
		URL:         n.Link,
		PublishedAt: n.Date,
		Content:     n.Content,
		Provider:    ProviderName,
		FetchedAt:   fetchedAt,
	}
}
