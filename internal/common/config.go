package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // schedule timezones resolve without a system zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Tracking    TrackingConfig  `toml:"tracking"`
	Fetch       FetchConfig     `toml:"fetch"`
	Schedule    ScheduleConfig  `toml:"schedule"`
	Providers   ProvidersConfig `toml:"providers"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Output     []string `toml:"output"`      // "stdout", "console", "file"
	TimeFormat string   `toml:"time_format"` // default "15:04:05"
	FilePath   string   `toml:"file_path"`   // default ./logs/marketpulse.log
}

// TrackingConfig lists what each run ingests
type TrackingConfig struct {
	Symbols      []string `toml:"symbols" validate:"required,min=1,dive,required"`
	NewsQueries  []string `toml:"news_queries"`  // General queries fetched alongside per-symbol news
	NewsLookback string   `toml:"news_lookback"` // e.g. "24h" - oldest article accepted
	HistoryDays  int      `toml:"history_days" validate:"gte=0"`
}

// GetNewsLookback parses the lookback window, defaulting to 24h
func (c *TrackingConfig) GetNewsLookback() time.Duration {
	d, err := time.ParseDuration(c.NewsLookback)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// FetchConfig holds the batch and retry tunables shared by all providers
type FetchConfig struct {
	BatchSize         int     `toml:"batch_size" validate:"gte=1"`
	BatchDelay        string  `toml:"batch_delay"`
	MaxRetries        int     `toml:"max_retries" validate:"gte=0"`
	InitialDelay      string  `toml:"initial_delay"`
	BackoffMultiplier float64 `toml:"backoff_multiplier" validate:"gte=1"`
	Timeout           string  `toml:"timeout"`
}

// GetBatchDelay parses the inter-batch delay, defaulting to 1s
func (c *FetchConfig) GetBatchDelay() time.Duration {
	return parseDurationOr(c.BatchDelay, time.Second)
}

// GetInitialDelay parses the first retry delay, defaulting to 1s
func (c *FetchConfig) GetInitialDelay() time.Duration {
	return parseDurationOr(c.InitialDelay, time.Second)
}

// GetTimeout parses the per-request timeout, defaulting to 30s
func (c *FetchConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 30*time.Second)
}

// ScheduleConfig holds cron expressions for each pipeline
type ScheduleConfig struct {
	Enabled  bool   `toml:"enabled"`
	Timezone string `toml:"timezone"`
	News     string `toml:"news"`
	Market   string `toml:"market"`
	Options  string `toml:"options"`
}

// ProvidersConfig holds upstream API configuration
type ProvidersConfig struct {
	NewsAPI      ProviderConfig `toml:"newsapi"`
	AlphaVantage ProviderConfig `toml:"alphavantage"`
	Polygon      ProviderConfig `toml:"polygon"`
	EODHD        ProviderConfig `toml:"eodhd"`
	Yahoo        YahooConfig    `toml:"yahoo"`
	QuoteSource  string         `toml:"quote_source" validate:"omitempty,oneof=alphavantage yahoo"`
}

// ProviderConfig is the common shape of an HTTP data provider
type ProviderConfig struct {
	BaseURL   string `toml:"base_url" validate:"omitempty,url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit" validate:"gte=0"` // requests per second, 0 = unlimited
}

// Enabled reports whether the provider has credentials
func (c ProviderConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// YahooConfig configures the keyless Yahoo Finance fallback
type YahooConfig struct {
	Enabled bool `toml:"enabled"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8090,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/marketpulse",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Tracking: TrackingConfig{
			Symbols:      []string{"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "TSLA"},
			NewsQueries:  []string{"stock market"},
			NewsLookback: "24h",
			HistoryDays:  30,
		},
		Fetch: FetchConfig{
			BatchSize:         3,
			BatchDelay:        "1s",
			MaxRetries:        3,
			InitialDelay:      "1s",
			BackoffMultiplier: 1.5,
			Timeout:           "30s",
		},
		Schedule: ScheduleConfig{
			Enabled:  true,
			Timezone: "America/New_York",
			News:     "0 */2 * * *",   // every 2 hours
			Market:   "30 16 * * 1-5", // after the US close
			Options:  "0 17 * * 1-5",
		},
		Providers: ProvidersConfig{
			NewsAPI: ProviderConfig{
				BaseURL:   "https://newsapi.org",
				RateLimit: 5,
			},
			AlphaVantage: ProviderConfig{
				BaseURL:   "https://www.alphavantage.co",
				RateLimit: 1,
			},
			Polygon: ProviderConfig{
				BaseURL:   "https://api.polygon.io",
				RateLimit: 5,
			},
			EODHD: ProviderConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
			},
			Yahoo: YahooConfig{
				Enabled: true,
			},
			QuoteSource: "alphavantage",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MARKETPULSE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server
	if port := os.Getenv("MARKETPULSE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("MARKETPULSE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage
	if badgerPath := os.Getenv("MARKETPULSE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging
	if level := os.Getenv("MARKETPULSE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("MARKETPULSE_LOG_OUTPUT"); output != "" {
		config.Logging.Output = splitList(output)
	}

	// Tracking
	if symbols := os.Getenv("MARKETPULSE_SYMBOLS"); symbols != "" {
		config.Tracking.Symbols = splitList(symbols)
	}

	// Fetch tunables
	if batchSize := os.Getenv("MARKETPULSE_BATCH_SIZE"); batchSize != "" {
		if n, err := strconv.Atoi(batchSize); err == nil {
			config.Fetch.BatchSize = n
		}
	}
	if batchDelay := os.Getenv("MARKETPULSE_BATCH_DELAY"); batchDelay != "" {
		config.Fetch.BatchDelay = batchDelay
	}
	if maxRetries := os.Getenv("MARKETPULSE_MAX_RETRIES"); maxRetries != "" {
		if n, err := strconv.Atoi(maxRetries); err == nil {
			config.Fetch.MaxRetries = n
		}
	}
	if initialDelay := os.Getenv("MARKETPULSE_INITIAL_DELAY"); initialDelay != "" {
		config.Fetch.InitialDelay = initialDelay
	}

	// Schedule
	if enabled := os.Getenv("MARKETPULSE_SCHEDULE_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Schedule.Enabled = b
		}
	}

	// Provider credentials
	if key := os.Getenv("MARKETPULSE_NEWSAPI_KEY"); key != "" {
		config.Providers.NewsAPI.APIKey = key
	} else if key := os.Getenv("NEWS_API_KEY"); key != "" {
		config.Providers.NewsAPI.APIKey = key
	}
	if key := os.Getenv("MARKETPULSE_ALPHAVANTAGE_KEY"); key != "" {
		config.Providers.AlphaVantage.APIKey = key
	} else if key := os.Getenv("ALPHA_VANTAGE_API_KEY"); key != "" {
		config.Providers.AlphaVantage.APIKey = key
	}
	if key := os.Getenv("MARKETPULSE_POLYGON_KEY"); key != "" {
		config.Providers.Polygon.APIKey = key
	} else if key := os.Getenv("POLYGON_API_KEY"); key != "" {
		config.Providers.Polygon.APIKey = key
	}
	if key := os.Getenv("MARKETPULSE_EODHD_KEY"); key != "" {
		config.Providers.EODHD.APIKey = key
	}
	if source := os.Getenv("MARKETPULSE_QUOTE_SOURCE"); source != "" {
		config.Providers.QuoteSource = source
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks struct constraints and cron expressions
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for name, expr := range map[string]string{
		"news":    c.Schedule.News,
		"market":  c.Schedule.Market,
		"options": c.Schedule.Options,
	} {
		if expr == "" {
			continue
		}
		if err := ValidateSchedule(expr); err != nil {
			return fmt.Errorf("invalid %s schedule: %w", name, err)
		}
	}

	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("invalid schedule timezone %q: %w", c.Schedule.Timezone, err)
		}
	}

	return nil
}

// ValidateSchedule validates a standard 5-field cron expression and rejects
// schedules that fire every minute.
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	if parts[0] == "*" {
		return fmt.Errorf("schedule must not run every minute")
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// TrackedTickers parses the configured symbols
func (c *Config) TrackedTickers() []Ticker {
	return ParseTickers(c.Tracking.Symbols)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
