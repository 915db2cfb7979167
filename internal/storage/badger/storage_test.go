package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	store, err := badgerhold.Open(storeOptions(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return newManager(&BadgerDB{store: store}, arbor.NewLogger())
}

func day(s string) time.Time {
	t, _ := time.Parse(models.DateLayout, s)
	return t
}

func TestNewManager_OpensDatabase(t *testing.T) {
	config := &common.BadgerConfig{Path: t.TempDir() + "/db"}

	manager, err := NewManager(arbor.NewLogger(), config)
	require.NoError(t, err)
	defer manager.Close()

	count, err := manager.ArticleStorage().CountArticles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNewManager_ResetOnStartup(t *testing.T) {
	ctx := context.Background()
	config := &common.BadgerConfig{Path: t.TempDir() + "/db"}

	manager, err := NewManager(arbor.NewLogger(), config)
	require.NoError(t, err)
	_, err = manager.ArticleStorage().SaveArticles(ctx, []models.Article{{URL: "https://x/a", Title: "kept"}})
	require.NoError(t, err)
	require.NoError(t, manager.Close())

	manager, err = NewManager(arbor.NewLogger(), config)
	require.NoError(t, err)
	count, err := manager.ArticleStorage().CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "records survive a plain reopen")
	require.NoError(t, manager.Close())

	config.ResetOnStartup = true
	manager, err = NewManager(arbor.NewLogger(), config)
	require.NoError(t, err)
	defer manager.Close()
	count, err = manager.ArticleStorage().CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestArticleStorage_UpsertByURL(t *testing.T) {
	ctx := context.Background()
	storage := newTestManager(t).ArticleStorage()
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	saved, err := storage.SaveArticles(ctx, []models.Article{
		{URL: "https://x/a", Title: "first", PublishedAt: now.Add(-2 * time.Hour), Tickers: []string{"AAPL"}},
		{URL: "https://x/b", Title: "other", PublishedAt: now.Add(-time.Hour), Tickers: []string{"MSFT"}},
		{URL: "https://x/c", Title: "old", PublishedAt: now.Add(-48 * time.Hour), Tickers: []string{"AAPL"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, saved)

	// Re-ingestion replaces the stored article
	_, err = storage.SaveArticles(ctx, []models.Article{{URL: "https://x/a", Title: "updated", PublishedAt: now, Tickers: []string{"AAPL"}}})
	require.NoError(t, err)

	article, err := storage.GetArticle(ctx, "https://x/a")
	require.NoError(t, err)
	assert.Equal(t, "updated", article.Title)

	count, err := storage.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	recent, err := storage.ListArticles(ctx, interfaces.ArticleQuery{Symbol: "AAPL", Since: now.Add(-24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "https://x/a", recent[0].URL)

	all, err := storage.ListArticles(ctx, interfaces.ArticleQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://x/a", all[0].URL, "newest first")
	assert.Equal(t, "https://x/c", all[2].URL)

	limited, err := storage.ListArticles(ctx, interfaces.ArticleQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = storage.GetArticle(ctx, "https://x/missing")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestArticleStorage_StockNews(t *testing.T) {
	ctx := context.Background()
	storage := newTestManager(t).ArticleStorage()

	news := &models.StockNews{
		Symbol:    "AAPL",
		Date:      "2026-03-02",
		Articles:  []models.Article{{URL: "https://x/a", Title: "Apple"}},
		Sentiment: models.SentimentStats{PositiveCount: 1, AvgSentiment: 0.4},
	}
	require.NoError(t, storage.SaveStockNews(ctx, news))

	got, err := storage.GetStockNews(ctx, "AAPL", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Sentiment.PositiveCount)
	assert.Len(t, got.Articles, 1)
	assert.False(t, got.GeneratedAt.IsZero())

	_, err = storage.GetStockNews(ctx, "AAPL", "2026-03-01")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestQuoteStorage_History(t *testing.T) {
	ctx := context.Background()
	storage := newTestManager(t).QuoteStorage()

	var quotes []models.StockQuote
	for i, d := range []string{"2026-02-24", "2026-02-25", "2026-02-26", "2026-02-27", "2026-03-02"} {
		quotes = append(quotes, models.StockQuote{Symbol: "AAPL", Price: float64(100 + i), Volume: 1000, LatestTradingDay: day(d)})
	}
	quotes = append(quotes, models.StockQuote{Symbol: "MSFT", Price: 400, LatestTradingDay: day("2026-02-27")})

	saved, err := storage.SaveQuotes(ctx, quotes)
	require.NoError(t, err)
	assert.Equal(t, 6, saved)

	history, err := storage.GetHistory(ctx, "AAPL", day("2026-03-02"), 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 101.0, history[0].Price, "oldest first")
	assert.Equal(t, 103.0, history[2].Price, "the requested day is excluded")

	latest, err := storage.GetLatestQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 104.0, latest.Price)

	_, err = storage.GetLatestQuote(ctx, "NVDA")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	assert.Error(t, storage.SaveQuote(ctx, models.StockQuote{Symbol: "AAPL"}))
}

func TestOptionsStorage_Chains(t *testing.T) {
	ctx := context.Background()
	storage := newTestManager(t).OptionsStorage()

	require.NoError(t, storage.SaveChain(ctx, &models.OptionsChain{Underlying: "AAPL", Expiration: "2026-04-17"}))
	require.NoError(t, storage.SaveChain(ctx, &models.OptionsChain{
		Underlying: "AAPL",
		Expiration: "2026-03-20",
		Calls:      []models.OptionsContract{{Ticker: "O:AAPL260320C00150000", Strike: 150, Type: models.ContractCall}},
	}))
	require.NoError(t, storage.SaveChain(ctx, &models.OptionsChain{Underlying: "MSFT", Expiration: "2026-03-20"}))

	chains, err := storage.GetChains(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, "2026-03-20", chains[0].Expiration)
	assert.Len(t, chains[0].Calls, 1)
	assert.Equal(t, "2026-04-17", chains[1].Expiration)
}

func TestSnapshotStorage(t *testing.T) {
	ctx := context.Background()
	storage := newTestManager(t).SnapshotStorage()

	for _, d := range []string{"2026-02-27", "2026-03-02"} {
		require.NoError(t, storage.SaveSnapshot(ctx, &models.MarketSnapshot{
			Symbol:   "AAPL",
			Date:     d,
			Enriched: models.EnrichedStockData{StockQuote: models.StockQuote{Symbol: "AAPL", Price: 100}},
		}))
	}

	got, err := storage.GetSnapshot(ctx, "AAPL", "2026-02-27")
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Enriched.Price)

	latest, err := storage.GetLatestSnapshot(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", latest.Date)

	_, err = storage.GetLatestSnapshot(ctx, "TSLA")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestRunStorage(t *testing.T) {
	ctx := context.Background()
	storage := newTestManager(t).RunStorage()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	runs := []*models.IngestionRun{
		{ID: "run-1", Domain: models.DomainNews, Status: models.RunStatusCompleted, StartedAt: start},
		{ID: "run-2", Domain: models.DomainMarket, Status: models.RunStatusFailed, StartedAt: start.Add(time.Hour)},
		{ID: "run-3", Domain: models.DomainNews, Status: models.RunStatusRunning, StartedAt: start.Add(2 * time.Hour)},
	}
	for _, run := range runs {
		require.NoError(t, storage.SaveRun(ctx, run))
	}

	all, err := storage.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "run-3", all[0].ID)

	news, err := storage.ListRuns(ctx, models.DomainNews, 1)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "run-3", news[0].ID)

	got, err := storage.GetRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, got.Status)

	_, err = storage.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}
