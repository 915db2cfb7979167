// Package pipeline runs the news, market and options ingestion cycles.
//
// Each orchestrator fans its requests out through httpclient.RunBatched,
// enriches the normalized records and writes them to storage. Every
// invocation is recorded in the run ledger.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// ErrAllFetchesFailed is returned when every provider request of a run failed.
var ErrAllFetchesFailed = errors.New("all fetches failed")

// Clock supplies the run's notion of now.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock {
	return ClockFunc(func() time.Time { return time.Now().UTC() })
}

// startOfDay truncates t to midnight UTC.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ledger records IngestionRun entries for one domain.
type ledger struct {
	domain models.Domain
	runs   interfaces.RunStorage
	clock  Clock
	logger arbor.ILogger
}

// start saves a running entry. A ledger write failure aborts the run.
func (l *ledger) start(ctx context.Context) (*models.IngestionRun, error) {
	run := &models.IngestionRun{
		ID:        uuid.New().String(),
		Domain:    l.domain,
		Status:    models.RunStatusRunning,
		StartedAt: l.clock.Now(),
	}
	if err := l.runs.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record %s run: %w", l.domain, err)
	}

	l.logger.Info().
		Str("run_id", run.ID).
		Str("domain", string(l.domain)).
		Msg("Ingestion run started")

	return run, nil
}

// finish marks run completed or failed and saves it. The save uses a
// context detached from cancellation so an aborted run is still recorded.
func (l *ledger) finish(ctx context.Context, run *models.IngestionRun, runErr error) error {
	finished := l.clock.Now()
	run.FinishedAt = &finished
	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.Error = runErr.Error()
	} else {
		run.Status = models.RunStatusCompleted
	}

	if err := l.runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		l.logger.Error().Err(err).Str("run_id", run.ID).Msg("Failed to update run ledger")
		if runErr == nil {
			runErr = fmt.Errorf("failed to record %s run: %w", l.domain, err)
		}
	}

	if runErr != nil {
		l.logger.Error().
			Str("run_id", run.ID).
			Str("domain", string(l.domain)).
			Int("requested", run.Requested).
			Int("failed", run.Failed).
			Int("stored", run.Stored).
			Err(runErr).
			Msg("Ingestion run failed")
		return runErr
	}

	l.logger.Info().
		Str("run_id", run.ID).
		Str("domain", string(l.domain)).
		Int("requested", run.Requested).
		Int("failed", run.Failed).
		Int("stored", run.Stored).
		Str("duration", run.Duration().String()).
		Msg("Ingestion run completed")

	return nil
}

// outage reports whether every one of requested fetches failed.
func outage(requested, failed int) error {
	if requested > 0 && failed == requested {
		return fmt.Errorf("%w: %d of %d requests", ErrAllFetchesFailed, failed, requested)
	}
	return nil
}

// validRecords returns the records passing struct validation, logging the rest.
func validRecords[T any](validate *validator.Validate, logger arbor.ILogger, kind string, records []T) []T {
	out := make([]T, 0, len(records))
	for i := range records {
		if err := validate.Struct(records[i]); err != nil {
			logger.Debug().Str("kind", kind).Err(err).Msg("Dropping invalid record")
			continue
		}
		out = append(out, records[i])
	}
	return out
}
