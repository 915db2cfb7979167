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

// DefaultArticlesPerQuery bounds each provider request.
const DefaultArticlesPerQuery = 20

// NewsConfig selects what a news run fetches.
type NewsConfig struct {
	Tickers       []common.Ticker
	Queries       []string // general queries fetched alongside per-symbol news
	Lookback      time.Duration
	PerQueryLimit int
	Batch         httpclient.BatchOptions
}

// NewsPipeline fetches, enriches and stores news articles.
type NewsPipeline struct {
	config     NewsConfig
	providers  []interfaces.NewsProvider
	articles   interfaces.ArticleStorage
	scorer     *enrich.SentimentScorer
	associator *enrich.TickerAssociator
	validate   *validator.Validate
	ledger     *ledger
	clock      Clock
	logger     arbor.ILogger
}

// NewNewsPipeline creates a news orchestrator over providers, queried in order.
func NewNewsPipeline(config NewsConfig, providers []interfaces.NewsProvider, storage interfaces.StorageManager, clock Clock, logger arbor.ILogger) *NewsPipeline {
	if config.PerQueryLimit <= 0 {
		config.PerQueryLimit = DefaultArticlesPerQuery
	}
	if config.Lookback <= 0 {
		config.Lookback = 24 * time.Hour
	}

	return &NewsPipeline{
		config:     config,
		providers:  providers,
		articles:   storage.ArticleStorage(),
		scorer:     enrich.NewSentimentScorer(logger),
		associator: enrich.NewTickerAssociator(common.Codes(config.Tickers)),
		validate:   validator.New(),
		ledger: &ledger{
			domain: models.DomainNews,
			runs:   storage.RunStorage(),
			clock:  clock,
			logger: logger,
		},
		clock:  clock,
		logger: logger,
	}
}

// RunNewsIngestion performs one news cycle: one request per tracked symbol
// and general query per provider, then dedup, sentiment, ticker association
// and relevance filtering. Relevant articles and the per-symbol groups are
// stored. Returns the recorded run.
func (p *NewsPipeline) RunNewsIngestion(ctx context.Context) (*models.IngestionRun, error) {
	run, err := p.ledger.start(ctx)
	if err != nil {
		return nil, err
	}

	err = p.ingest(ctx, run)
	return run, p.ledger.finish(ctx, run, err)
}

func (p *NewsPipeline) ingest(ctx context.Context, run *models.IngestionRun) error {
	now := p.clock.Now()
	today := startOfDay(now).Format(models.DateLayout)

	jobs := p.buildJobs(now.Add(-p.config.Lookback))
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

	var fetched []models.Article
	for _, batch := range results {
		if batch == nil {
			continue
		}
		for _, article := range *batch {
			fetched = append(fetched, enrich.CleanArticle(article))
		}
	}

	articles := validRecords(p.validate, p.logger, "article", fetched)
	articles = enrich.Dedupe(articles)
	articles = p.scorer.ScoreArticles(articles)
	articles = p.associator.Associate(articles)
	articles = enrich.ApplyRelevance(articles)
	relevant := enrich.FilterRelevant(articles)

	p.logger.Info().
		Int("fetched", len(fetched)).
		Int("unique", len(articles)).
		Int("relevant", len(relevant)).
		Msg("News articles enriched")

	stored, err := p.articles.SaveArticles(ctx, relevant)
	if err != nil {
		return fmt.Errorf("failed to store articles: %w", err)
	}
	run.Stored = stored

	groups := enrich.GroupByStock(relevant)
	for _, ticker := range p.config.Tickers {
		group, ok := groups[ticker.Code]
		if !ok {
			continue
		}
		news := &models.StockNews{
			Symbol:      ticker.Code,
			Date:        today,
			Articles:    group,
			Sentiment:   enrich.Stats(group),
			GeneratedAt: now,
		}
		if err := p.articles.SaveStockNews(ctx, news); err != nil {
			return fmt.Errorf("failed to store news for %s: %w", ticker.Code, err)
		}

		p.logger.Debug().
			Str("symbol", ticker.Code).
			Int("articles", len(group)).
			Int("positive", news.Sentiment.PositiveCount).
			Int("negative", news.Sentiment.NegativeCount).
			Msg("Stock news stored")
	}

	return nil
}

// buildJobs creates one job per provider and query, symbols first.
func (p *NewsPipeline) buildJobs(from time.Time) []httpclient.Job[[]models.Article] {
	queries := make([]interfaces.NewsQuery, 0, len(p.config.Tickers)+len(p.config.Queries))
	for _, ticker := range p.config.Tickers {
		queries = append(queries, interfaces.NewsQuery{Symbol: ticker.String(), From: from, Limit: p.config.PerQueryLimit})
	}
	for _, q := range p.config.Queries {
		queries = append(queries, interfaces.NewsQuery{Query: q, From: from, Limit: p.config.PerQueryLimit})
	}

	var jobs []httpclient.Job[[]models.Article]
	for _, provider := range p.providers {
		for _, query := range queries {
			if query.Symbol == "" && !supportsGeneralQueries(provider) {
				continue
			}
			provider, query := provider, query
			jobs = append(jobs, httpclient.Job[[]models.Article]{
				Name: provider.Name() + " news " + query.Label(),
				Run: func(ctx context.Context) (*[]models.Article, error) {
					articles, err := provider.FetchNews(ctx, query)
					if err != nil {
						return nil, err
					}
					return &articles, nil
				},
			})
		}
	}
	return jobs
}

// generalQuerier is implemented by providers that can search free text.
type generalQuerier interface {
	SupportsGeneralQueries() bool
}

func supportsGeneralQueries(provider interfaces.NewsProvider) bool {
	if q, ok := provider.(generalQuerier); ok {
		return q.SupportsGeneralQueries()
	}
	return true
}
