package common

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the resolved settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.Print("MarketPulse", GetVersion())

	logger.Info().
		Str("version", GetVersion()).
		Str("build", GetBuild()).
		Str("commit", GetGitCommit()).
		Str("environment", config.Environment).
		Str("service_url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Str("storage", config.Storage.Badger.Path).
		Str("symbols", strings.Join(config.Tracking.Symbols, ",")).
		Msg("Application started")
}
