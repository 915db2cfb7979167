package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
)

var (
	// Command-line flags
	configFiles []string // Multiple --config flags supported
	serverPort  int
	serverHost  string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "marketpulse",
	Short: "MarketPulse - financial news and market data ingestion",
	Long: `MarketPulse collects financial news, stock quotes and options chains from
upstream providers, enriches them with sentiment, ticker and correlation
signals, and stores the results for downstream consumers.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().IntVarP(&serverPort, "port", "p", 0, "Server port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverHost, "host", "", "Server host (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig runs the startup sequence shared by all commands:
// config files -> env -> CLI overrides, then logger and banner.
func loadConfig(cmd *cobra.Command, args []string) error {
	if cmd.Name() == versionCmd.Name() {
		return nil
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("marketpulse.toml"); err == nil {
			configFiles = append(configFiles, "marketpulse.toml")
		} else if _, err := os.Stat("deployments/local/marketpulse.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/marketpulse.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration %v: %w", configFiles, err)
	}

	common.ApplyFlagOverrides(config, serverPort, serverHost)

	if config.Logging.FilePath != "" {
		common.InstallCrashHandler(filepath.Dir(config.Logging.FilePath))
	} else {
		common.InstallCrashHandler("")
	}

	logger = common.InitLogger(config)
	common.PrintBanner(config, logger)

	logger.Debug().
		Str("badger_path", config.Storage.Badger.Path).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Strs("symbols", config.Tracking.Symbols).
		Bool("newsapi", config.Providers.NewsAPI.Enabled()).
		Bool("alphavantage", config.Providers.AlphaVantage.Enabled()).
		Bool("polygon", config.Providers.Polygon.Enabled()).
		Bool("eodhd", config.Providers.EODHD.Enabled()).
		Msg("Resolved configuration (sanitized)")

	logger.Info().
		Strs("config_files", configFiles).
		Msg("Application configuration loaded")

	return nil
}
