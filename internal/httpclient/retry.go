package httpclient

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultInitialDelay is the pause before the first retry.
	DefaultInitialDelay = time.Second

	// DefaultMultiplier grows the pause after every retry.
	DefaultMultiplier = 1.5
)

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy controls the retry loop.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64

	// Sleep defaults to ContextSleep. Tests replace it to observe delays.
	Sleep SleepFunc
}

// DefaultRetryPolicy returns 3 retries starting at 1s and growing by 1.5x.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
		Multiplier:   DefaultMultiplier,
	}
}

// Delays returns the pause taken before each retry.
func (p RetryPolicy) Delays() []time.Duration {
	delays := make([]time.Duration, 0, p.MaxRetries)
	delay := p.InitialDelay
	for i := 0; i < p.MaxRetries; i++ {
		delays = append(delays, delay)
		delay = p.next(delay)
	}
	return delays
}

func (p RetryPolicy) next(delay time.Duration) time.Duration {
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	return time.Duration(float64(delay) * multiplier)
}

// ContextSleep waits for d, returning ctx.Err() if the context ends first.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry calls fn until it succeeds, returns an error retryable rejects, or
// policy.MaxRetries retries are used up. The pause happens before each
// retry and never after the final attempt. On exhaustion the last error is
// returned wrapped in *RetryError.
func Retry(ctx context.Context, policy RetryPolicy, logger arbor.ILogger, name string, fn func(ctx context.Context) error, retryable func(error) bool) error {
	sleep := policy.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}
	if retryable == nil {
		retryable = IsRetryable
	}
	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	delay := policy.InitialDelay
	attempts := 0
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn().
				Str("call", name).
				Int("attempt", attempt+1).
				Int("max_attempts", maxRetries+1).
				Str("delay", delay.String()).
				Err(lastErr).
				Msg("Retrying after transient failure")

			if err := sleep(ctx, delay); err != nil {
				return err
			}
			delay = policy.next(delay)
		}

		attempts++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
	}

	logger.Error().
		Str("call", name).
		Int("attempts", attempts).
		Err(lastErr).
		Msg("All retry attempts failed")

	return &RetryError{Attempts: attempts, Err: lastErr}
}
