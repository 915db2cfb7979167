package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/marketpulse/internal/models"
)

func TestTickerAssociator_Associate(t *testing.T) {
	associator := NewTickerAssociator([]string{"AAPL", "NASDAQ:MSFT", "meta", "TSLA"})

	articles := associator.Associate([]models.Article{
		{Title: "AAPL and MSFT lead tech rally", Description: "Apple and Microsoft gained; AAPL again"},
		{Title: "Meta Platforms unveils new headset", Description: "The METAVERSE push continues"},
		{Title: "Central bank holds rates", Description: "No company news"},
		{Title: "TSLAQ chatter grows", Description: ""},
	})

	assert.Equal(t, []string{"AAPL", "MSFT"}, articles[0].Tickers, "symbol added once despite repeated mentions")
	assert.Equal(t, []string{"META"}, articles[1].Tickers)
	assert.Nil(t, articles[2].Tickers, "no match leaves tickers nil")
	assert.Nil(t, articles[3].Tickers, "word boundary required")
}

func TestTickerAssociator_CompanyTableOnly(t *testing.T) {
	associator := NewTickerAssociator(nil)

	assert.Equal(t, []string{"AMZN", "NVDA"}, associator.Match("Nvidia chips power Amazon data centers"))
	assert.Nil(t, associator.Match("Artificial intelligence spending grows"))
}

func TestTickerAssociator_Symbols(t *testing.T) {
	associator := NewTickerAssociator([]string{"NYSE:IBM", "ibm", "aapl"})

	assert.Equal(t, []string{"IBM", "AAPL"}, associator.Symbols())
}

func TestGroupByStock(t *testing.T) {
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	articles := []models.Article{
		{URL: "https://x/old", PublishedAt: base.Add(-2 * time.Hour), Tickers: []string{"AAPL", "MSFT"}},
		{URL: "https://x/new", PublishedAt: base, Tickers: []string{"AAPL"}},
		{URL: "https://x/none", PublishedAt: base},
	}

	groups := GroupByStock(articles)

	require.Len(t, groups, 2)
	require.Len(t, groups["AAPL"], 2)
	assert.Equal(t, "https://x/new", groups["AAPL"][0].URL, "newest first")
	assert.Equal(t, "https://x/old", groups["AAPL"][1].URL)
	require.Len(t, groups["MSFT"], 1)

	// Groups hold independent copies
	groups["AAPL"][1].Tickers[0] = "CHANGED"
	assert.Equal(t, "AAPL", groups["MSFT"][0].Tickers[0])
	assert.Equal(t, "AAPL", articles[0].Tickers[0])
}
