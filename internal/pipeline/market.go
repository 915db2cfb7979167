package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/enrich"
	"github.com/ternarybob/marketpulse/internal/httpclient"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// DefaultHistoryDays is the trailing window used when none is configured.
const DefaultHistoryDays = 30

// MarketConfig selects what a market run fetches.
type MarketConfig struct {
	Tickers      []common.Ticker
	HistoryDays  int
	NewsLookback time.Duration // articles considered for correlation
	Batch        httpclient.BatchOptions
}

// MarketPipeline fetches quotes, enriches them against stored history and
// correlates them with recent news.
type MarketPipeline struct {
	config   MarketConfig
	quotes   interfaces.QuoteProvider
	history  interfaces.HistoryProvider
	storage  interfaces.StorageManager
	validate *validator.Validate
	ledger   *ledger
	clock    Clock
	logger   arbor.ILogger
}

// NewMarketPipeline creates a market orchestrator. history may be nil, in
// which case only stored bars are used for enrichment.
func NewMarketPipeline(config MarketConfig, quotes interfaces.QuoteProvider, history interfaces.HistoryProvider, storage interfaces.StorageManager, clock Clock, logger arbor.ILogger) *MarketPipeline {
	if config.HistoryDays <= 0 {
		config.HistoryDays = DefaultHistoryDays
	}
	if config.NewsLookback <= 0 {
		config.NewsLookback = 24 * time.Hour
	}

	return &MarketPipeline{
		config:   config,
		quotes:   quotes,
		history:  history,
		storage:  storage,
		validate: validator.New(),
		ledger: &ledger{
			domain: models.DomainMarket,
			runs:   storage.RunStorage(),
			clock:  clock,
			logger: logger,
		},
		clock:  clock,
		logger: logger,
	}
}

// RunMarketIngestion performs one market cycle and returns the recorded run.
func (p *MarketPipeline) RunMarketIngestion(ctx context.Context) (*models.IngestionRun, error) {
	run, err := p.ledger.start(ctx)
	if err != nil {
		return nil, err
	}

	err = p.ingest(ctx, run)
	return run, p.ledger.finish(ctx, run, err)
}

func (p *MarketPipeline) ingest(ctx context.Context, run *models.IngestionRun) error {
	now := p.clock.Now()

	jobs := make([]httpclient.Job[models.StockQuote], 0, len(p.config.Tickers))
	for _, ticker := range p.config.Tickers {
		ticker := ticker
		jobs = append(jobs, httpclient.Job[models.StockQuote]{
			Name: p.quotes.Name() + " quote " + ticker.Code,
			Run: func(ctx context.Context) (*models.StockQuote, error) {
				quote, err := p.quotes.FetchQuote(ctx, ticker.String())
				if err != nil {
					return nil, err
				}
				quote.Symbol = ticker.Code
				return quote, nil
			},
		})
	}
	run.Requested = len(jobs)

	results := httpclient.RunBatched(ctx, jobs, p.config.Batch, p.logger)
	stats := httpclient.Stats(results)
	run.Failed = stats.Failed

	if err := outage(stats.Total, stats.Failed); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Correlate matches tags and title mentions itself, so the window is unfiltered.
	articles, err := p.storage.ArticleStorage().ListArticles(ctx, interfaces.ArticleQuery{
		Since: now.Add(-p.config.NewsLookback),
	})
	if err != nil {
		return fmt.Errorf("failed to load articles: %w", err)
	}

	for i, quote := range results {
		if quote == nil {
			continue
		}
		if err := p.validate.Struct(quote); err != nil {
			p.logger.Warn().Str("symbol", quote.Symbol).Err(err).Msg("Dropping invalid quote")
			run.Failed++
			continue
		}

		snapshot, err := p.process(ctx, p.config.Tickers[i], *quote, articles, now)
		if err != nil {
			return err
		}
		run.Stored++

		p.logger.Debug().
			Str("symbol", snapshot.Symbol).
			Str("date", snapshot.Date).
			Int("history", snapshot.HistoryLen).
			Int("relevant_news", snapshot.Correlation.RelevantCount).
			Bool("degraded", snapshot.Enriched.Degraded).
			Msg("Market snapshot stored")
	}

	return nil
}

// process enriches and correlates one quote, then stores the quote and its
// snapshot. Only storage failures are returned.
func (p *MarketPipeline) process(ctx context.Context, ticker common.Ticker, quote models.StockQuote, articles []models.Article, now time.Time) (*models.MarketSnapshot, error) {
	history, err := p.loadHistory(ctx, ticker, quote.LatestTradingDay)
	if err != nil {
		return nil, err
	}

	enriched := enrich.EnrichQuote(quote, history)

	correlation := enrich.Correlate(quote, articles)

	if err := p.storage.QuoteStorage().SaveQuote(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to store quote for %s: %w", quote.Symbol, err)
	}

	snapshot := &models.MarketSnapshot{
		Symbol:      quote.Symbol,
		Date:        quote.LatestTradingDay.Format(models.DateLayout),
		Enriched:    enriched,
		Correlation: correlation,
		HistoryLen:  len(history),
		GeneratedAt: now,
	}
	if err := p.storage.SnapshotStorage().SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to store snapshot for %s: %w", quote.Symbol, err)
	}
	return snapshot, nil
}

// loadHistory returns stored bars before day, backfilling from the history
// provider when fewer than the configured window are stored. A backfill
// failure is logged and the stored bars are used as they are.
func (p *MarketPipeline) loadHistory(ctx context.Context, ticker common.Ticker, day time.Time) ([]models.StockQuote, error) {
	store := p.storage.QuoteStorage()
	window := p.config.HistoryDays

	history, err := store.GetHistory(ctx, ticker.Code, day, window)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", ticker.Code, err)
	}
	if len(history) >= window || p.history == nil {
		return history, nil
	}

	// Calendar span wide enough to cover the window in trading days.
	from := startOfDay(day).AddDate(0, 0, -window*2)
	to := common.LastTradingDay(startOfDay(day).AddDate(0, 0, -1), nil)

	bars, err := p.history.FetchHistory(ctx, ticker.String(), from, to)
	if err != nil {
		p.logger.Warn().
			Str("symbol", ticker.Code).
			Int("stored", len(history)).
			Err(err).
			Msg("History backfill failed")
		return history, nil
	}
	for i := range bars {
		bars[i].Symbol = ticker.Code
	}

	saved, err := store.SaveQuotes(ctx, bars)
	if err != nil {
		return nil, fmt.Errorf("failed to store history for %s: %w", ticker.Code, err)
	}

	p.logger.Debug().
		Str("symbol", ticker.Code).
		Str("provider", p.history.Name()).
		Int("bars", saved).
		Msg("History backfilled")

	history, err = store.GetHistory(ctx, ticker.Code, day, window)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", ticker.Code, err)
	}
	return history, nil
}
