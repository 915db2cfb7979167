package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/eodhd"
	"github.com/ternarybob/marketpulse/internal/handlers"
	"github.com/ternarybob/marketpulse/internal/httpclient"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/pipeline"
	"github.com/ternarybob/marketpulse/internal/providers/alphavantage"
	"github.com/ternarybob/marketpulse/internal/providers/newsapi"
	"github.com/ternarybob/marketpulse/internal/providers/polygon"
	"github.com/ternarybob/marketpulse/internal/providers/yahoo"
	"github.com/ternarybob/marketpulse/internal/services/scheduler"
	"github.com/ternarybob/marketpulse/internal/storage/badger"
)

// ErrDomainUnavailable is returned when a domain has no configured provider.
var ErrDomainUnavailable = errors.New("no provider configured for domain")

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Pipelines are nil when their providers are not configured
	NewsPipeline    *pipeline.NewsPipeline
	MarketPipeline  *pipeline.MarketPipeline
	OptionsPipeline *pipeline.OptionsPipeline

	SchedulerService *scheduler.Service

	// HTTP handlers
	APIHandler    *handlers.APIHandler
	RunsHandler   *handlers.RunsHandler
	MarketHandler *handlers.MarketHandler

	clock pipeline.Clock
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
		clock:  pipeline.SystemClock(),
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initPipelines()

	if err := app.initScheduler(); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Bool("news", app.NewsPipeline != nil).
		Bool("market", app.MarketPipeline != nil).
		Bool("options", app.OptionsPipeline != nil).
		Msg("Application initialized")

	return app, nil
}

func (a *App) initDatabase() error {
	manager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.StorageManager = manager
	return nil
}

// initPipelines builds each pipeline whose providers have credentials
func (a *App) initPipelines() {
	cfg := a.Config
	fetch := cfg.Fetch
	batch := httpclient.BatchOptionsFromConfig(fetch)
	tickers := cfg.TrackedTickers()

	var history interfaces.HistoryProvider
	var newsProviders []interfaces.NewsProvider

	if cfg.Providers.NewsAPI.Enabled() {
		executor := httpclient.NewProviderExecutor(newsapi.ProviderName, cfg.Providers.NewsAPI, fetch, a.Logger)
		newsProviders = append(newsProviders, newsapi.NewClient(executor, cfg.Providers.NewsAPI.APIKey, a.Logger))
	}

	if cfg.Providers.EODHD.Enabled() {
		client := eodhd.NewClient(cfg.Providers.EODHD.APIKey,
			eodhd.WithBaseURL(cfg.Providers.EODHD.BaseURL),
			eodhd.WithLogger(a.Logger),
			eodhd.WithTimeout(fetch.GetTimeout()),
			eodhd.WithRateLimit(cfg.Providers.EODHD.RateLimit),
			eodhd.WithRetryPolicy(httpclient.PolicyFromConfig(fetch)),
		)
		provider := eodhd.NewProvider(client)
		newsProviders = append(newsProviders, provider)
		history = provider
	}

	if len(newsProviders) > 0 {
		a.NewsPipeline = pipeline.NewNewsPipeline(pipeline.NewsConfig{
			Tickers:  tickers,
			Queries:  cfg.Tracking.NewsQueries,
			Lookback: cfg.Tracking.GetNewsLookback(),
			Batch:    batch,
		}, newsProviders, a.StorageManager, a.clock, a.Logger)
	} else {
		a.Logger.Warn().Msg("No news provider configured (set a NewsAPI or EODHD key)")
	}

	if quotes := a.quoteProvider(); quotes != nil {
		a.MarketPipeline = pipeline.NewMarketPipeline(pipeline.MarketConfig{
			Tickers:      tickers,
			HistoryDays:  cfg.Tracking.HistoryDays,
			NewsLookback: cfg.Tracking.GetNewsLookback(),
			Batch:        batch,
		}, quotes, history, a.StorageManager, a.clock, a.Logger)
	} else {
		a.Logger.Warn().Msg("No quote provider configured (set an Alpha Vantage key or enable Yahoo)")
	}

	if cfg.Providers.Polygon.Enabled() {
		executor := httpclient.NewProviderExecutor(polygon.ProviderName, cfg.Providers.Polygon, fetch, a.Logger)
		a.OptionsPipeline = pipeline.NewOptionsPipeline(pipeline.OptionsConfig{
			Underlyings: tickers,
			Batch:       batch,
		}, polygon.NewClient(executor, cfg.Providers.Polygon.APIKey, a.Logger), a.StorageManager, a.clock, a.Logger)
	} else {
		a.Logger.Warn().Msg("No options provider configured (set a Polygon key)")
	}
}

// quoteProvider selects Alpha Vantage or the keyless Yahoo fallback
func (a *App) quoteProvider() interfaces.QuoteProvider {
	providers := a.Config.Providers
	useAlphaVantage := providers.QuoteSource != "yahoo" && providers.AlphaVantage.Enabled()

	switch {
	case useAlphaVantage:
		executor := httpclient.NewProviderExecutor(alphavantage.ProviderName, providers.AlphaVantage, a.Config.Fetch, a.Logger)
		return alphavantage.NewClient(executor, providers.AlphaVantage.APIKey, a.Logger)
	case providers.Yahoo.Enabled:
		return yahoo.NewClient(httpclient.PolicyFromConfig(a.Config.Fetch), a.Logger)
	}
	return nil
}

// initScheduler registers one job per available domain. Jobs are scheduled
// when scheduling is enabled and otherwise only run on demand.
func (a *App) initScheduler() error {
	loc := time.UTC
	if tz := a.Config.Schedule.Timezone; tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
		loc = l
	}
	a.SchedulerService = scheduler.NewService(loc, a.Logger)

	jobs := []struct {
		domain   models.Domain
		schedule string
		enabled  bool
	}{
		{models.DomainNews, a.Config.Schedule.News, a.NewsPipeline != nil},
		{models.DomainMarket, a.Config.Schedule.Market, a.MarketPipeline != nil},
		{models.DomainOptions, a.Config.Schedule.Options, a.OptionsPipeline != nil},
	}

	for _, job := range jobs {
		if !job.enabled {
			continue
		}
		schedule := job.schedule
		if !a.Config.Schedule.Enabled {
			schedule = ""
		}

		domain := job.domain
		err := a.SchedulerService.RegisterJob(string(domain), schedule, string(domain)+" ingestion", func(ctx context.Context) error {
			_, err := a.Run(ctx, domain)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.StorageManager.ArticleStorage(), a.Domains(), a.Logger)
	a.RunsHandler = handlers.NewRunsHandler(a.StorageManager.RunStorage(), a.SchedulerService, a.Logger)
	a.MarketHandler = handlers.NewMarketHandler(a.StorageManager, a.Logger)
}

// Domains lists the domains that have a configured pipeline
func (a *App) Domains() []models.Domain {
	var domains []models.Domain
	if a.NewsPipeline != nil {
		domains = append(domains, models.DomainNews)
	}
	if a.MarketPipeline != nil {
		domains = append(domains, models.DomainMarket)
	}
	if a.OptionsPipeline != nil {
		domains = append(domains, models.DomainOptions)
	}
	return domains
}

// Run executes one ingestion cycle for domain and waits for it to finish
func (a *App) Run(ctx context.Context, domain models.Domain) (*models.IngestionRun, error) {
	switch domain {
	case models.DomainNews:
		if a.NewsPipeline != nil {
			return a.NewsPipeline.RunNewsIngestion(ctx)
		}
	case models.DomainMarket:
		if a.MarketPipeline != nil {
			return a.MarketPipeline.RunMarketIngestion(ctx)
		}
	case models.DomainOptions:
		if a.OptionsPipeline != nil {
			return a.OptionsPipeline.RunOptionsIngestion(ctx)
		}
	default:
		return nil, fmt.Errorf("unknown domain %q", domain)
	}
	return nil, fmt.Errorf("%w: %s", ErrDomainUnavailable, domain)
}

// Close stops the scheduler and closes storage
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
