package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

var tradingDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type fakeQuoteProvider struct {
	quotes map[string]models.StockQuote // keyed by code
}

func (f *fakeQuoteProvider) Name() string { return "fake-quotes" }

func (f *fakeQuoteProvider) FetchQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	quote, ok := f.quotes[common.ParseTicker(symbol).Code]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", symbol)
	}
	return &quote, nil
}

type fakeHistoryProvider struct {
	bars []models.StockQuote
	err  error

	mu    sync.Mutex
	calls int
}

func (f *fakeHistoryProvider) Name() string { return "fake-history" }

func (f *fakeHistoryProvider) FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.StockQuote, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.StockQuote(nil), f.bars...), nil
}

// dailyBars returns n bars ending the day before tradingDay, oldest first,
// priced 100, 101, ... with volume 1000.
func dailyBars(symbol string, n int) []models.StockQuote {
	bars := make([]models.StockQuote, 0, n)
	for i := 0; i < n; i++ {
		bars = append(bars, models.StockQuote{
			Symbol:           symbol,
			Price:            100 + float64(i),
			Volume:           1000,
			LatestTradingDay: tradingDay.AddDate(0, 0, i-n),
		})
	}
	return bars
}

func todayQuote(symbol string, price, change float64, volume int64) models.StockQuote {
	return models.StockQuote{
		Symbol:           symbol,
		Open:             price - change,
		High:             price,
		Low:              price - change,
		Price:            price,
		Volume:           volume,
		PreviousClose:    price - change,
		Change:           change,
		LatestTradingDay: tradingDay,
	}
}

func TestRunMarketIngestion(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	_, err := storage.QuoteStorage().SaveQuotes(ctx, dailyBars("AAPL", 12))
	require.NoError(t, err)

	_, err = storage.ArticleStorage().SaveArticles(ctx, []models.Article{
		{
			Source: "Wire", Title: "Apple hits record high", URL: "https://wire.test/a",
			PublishedAt: runTime.Add(-2 * time.Hour), Tickers: []string{"AAPL"}, SentimentScore: 0.4,
		},
		{
			Source: "Wire", Title: "Old Apple story", URL: "https://wire.test/old",
			PublishedAt: runTime.Add(-72 * time.Hour), Tickers: []string{"AAPL"}, SentimentScore: 0.9,
		},
	})
	require.NoError(t, err)

	history := &fakeHistoryProvider{}
	quotes := &fakeQuoteProvider{quotes: map[string]models.StockQuote{
		"AAPL": todayQuote("AAPL", 111.5, 1.5, 2000),
	}}

	p := NewMarketPipeline(MarketConfig{
		Tickers:     common.ParseTickers([]string{"NASDAQ:AAPL"}),
		HistoryDays: 12,
		Batch:       noPauseBatch(),
	}, quotes, history, storage, fixedClock(), arbor.NewLogger())

	run, err := p.RunMarketIngestion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Requested)
	assert.Equal(t, 1, run.Stored)
	assert.Equal(t, 0, history.calls, "enough stored history, no backfill")

	snapshot, err := storage.SnapshotStorage().GetSnapshot(ctx, "AAPL", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 12, snapshot.HistoryLen)

	enriched := snapshot.Enriched
	assert.False(t, enriched.Degraded)
	require.NotNil(t, enriched.AverageVolume)
	assert.Equal(t, 1000.0, *enriched.AverageVolume)
	require.NotNil(t, enriched.VolumeRatio)
	assert.Equal(t, 2.0, *enriched.VolumeRatio)
	require.NotNil(t, enriched.Momentum)
	// history[len-10] is the bar priced 102.
	assert.InDelta(t, (111.5-102)/102, *enriched.Momentum, 1e-9)

	correlation := snapshot.Correlation
	assert.Equal(t, 1, correlation.RelevantCount, "articles outside the lookback are ignored")
	require.Len(t, correlation.SignificantArticles, 1)
	assert.Equal(t, models.ImpactAligned, correlation.SignificantArticles[0].PossibleImpact)
	assert.InDelta(t, 0.6, correlation.NewsImpact, 1e-9)

	latest, err := storage.QuoteStorage().GetLatestQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 111.5, latest.Price)
}

func TestRunMarketIngestion_CorrelatesUntaggedArticles(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	_, err := storage.ArticleStorage().SaveArticles(ctx, []models.Article{
		{
			Source: "Wire", Title: "Stock market: AAPL2026 notes surge", URL: "https://wire.test/untagged",
			PublishedAt: runTime.Add(-time.Hour), SentimentScore: 0.5,
		},
		{
			Source: "Wire", Title: "Microsoft cloud revenue climbs", URL: "https://wire.test/msft",
			PublishedAt: runTime.Add(-time.Hour), Tickers: []string{"MSFT"}, SentimentScore: 0.8,
		},
	})
	require.NoError(t, err)

	quotes := &fakeQuoteProvider{quotes: map[string]models.StockQuote{
		"AAPL": todayQuote("AAPL", 111.5, 1.5, 2000),
	}}

	p := NewMarketPipeline(MarketConfig{
		Tickers: common.ParseTickers([]string{"AAPL"}),
		Batch:   noPauseBatch(),
	}, quotes, nil, storage, fixedClock(), arbor.NewLogger())

	_, err = p.RunMarketIngestion(ctx)
	require.NoError(t, err)

	snapshot, err := storage.SnapshotStorage().GetSnapshot(ctx, "AAPL", "2026-03-02")
	require.NoError(t, err)

	correlation := snapshot.Correlation
	assert.Equal(t, 1, correlation.RelevantCount, "title mention counts without a ticker tag")
	assert.InDelta(t, 0.75, correlation.NewsImpact, 1e-9)
	require.Len(t, correlation.SignificantArticles, 1)
	assert.Equal(t, "https://wire.test/untagged", correlation.SignificantArticles[0].Article.URL)
}

func TestRunMarketIngestion_BackfillsHistory(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	history := &fakeHistoryProvider{bars: dailyBars("IGNORED", 5)}
	quotes := &fakeQuoteProvider{quotes: map[string]models.StockQuote{
		"MSFT": todayQuote("MSFT", 410, -2, 500),
	}}

	p := NewMarketPipeline(MarketConfig{
		Tickers:     common.ParseTickers([]string{"MSFT"}),
		HistoryDays: 10,
		Batch:       noPauseBatch(),
	}, quotes, history, storage, fixedClock(), arbor.NewLogger())

	_, err := p.RunMarketIngestion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, history.calls)

	bars, err := storage.QuoteStorage().GetHistory(ctx, "MSFT", tradingDay, 10)
	require.NoError(t, err)
	assert.Len(t, bars, 5, "backfilled bars are stored under the tracked symbol")

	snapshot, err := storage.SnapshotStorage().GetSnapshot(ctx, "MSFT", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 5, snapshot.HistoryLen)
	assert.NotNil(t, snapshot.Enriched.AverageVolume)
	assert.Nil(t, snapshot.Enriched.Momentum, "fewer than 10 bars")
	assert.Empty(t, snapshot.Correlation.SignificantArticles)
}

func TestRunMarketIngestion_BackfillFailureDegradesQuietly(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	history := &fakeHistoryProvider{err: errors.New("eod unavailable")}
	quotes := &fakeQuoteProvider{quotes: map[string]models.StockQuote{
		"NVDA": todayQuote("NVDA", 900, 10, 100),
	}}

	p := NewMarketPipeline(MarketConfig{
		Tickers: common.ParseTickers([]string{"NVDA", "TSLA"}),
		Batch:   noPauseBatch(),
	}, quotes, history, storage, fixedClock(), arbor.NewLogger())

	run, err := p.RunMarketIngestion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Requested)
	assert.Equal(t, 1, run.Failed, "TSLA has no quote")
	assert.Equal(t, 1, run.Stored)

	snapshot, err := storage.SnapshotStorage().GetSnapshot(ctx, "NVDA", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.HistoryLen)
	assert.Nil(t, snapshot.Enriched.AverageVolume)
	assert.False(t, snapshot.Enriched.Degraded)
}

func TestRunMarketIngestion_TotalOutage(t *testing.T) {
	storage := newTestStorage(t)

	p := NewMarketPipeline(MarketConfig{
		Tickers: common.ParseTickers([]string{"AAPL"}),
		Batch:   noPauseBatch(),
	}, &fakeQuoteProvider{}, nil, storage, fixedClock(), arbor.NewLogger())

	run, err := p.RunMarketIngestion(context.Background())
	assert.ErrorIs(t, err, ErrAllFetchesFailed)
	assert.Equal(t, models.RunStatusFailed, run.Status)

	_, err = storage.SnapshotStorage().GetLatestSnapshot(context.Background(), "AAPL")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}
