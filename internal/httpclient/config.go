package httpclient

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
)

// PolicyFromConfig builds a retry policy from the fetch tunables.
func PolicyFromConfig(fetch common.FetchConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries:   fetch.MaxRetries,
		InitialDelay: fetch.GetInitialDelay(),
		Multiplier:   fetch.BackoffMultiplier,
	}
}

// BatchOptionsFromConfig builds batch options from the fetch tunables.
func BatchOptionsFromConfig(fetch common.FetchConfig) BatchOptions {
	return BatchOptions{
		Size:  fetch.BatchSize,
		Delay: fetch.GetBatchDelay(),
	}
}

// NewProviderExecutor builds an executor for a configured provider.
func NewProviderExecutor(name string, provider common.ProviderConfig, fetch common.FetchConfig, logger arbor.ILogger, opts ...Option) *Executor {
	base := []Option{
		WithRetryPolicy(PolicyFromConfig(fetch)),
		WithTimeout(fetch.GetTimeout()),
		WithRateLimit(provider.RateLimit),
	}
	return NewExecutor(name, provider.BaseURL, logger, append(base, opts...)...)
}
