package httpclient

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
)

const (
	// DefaultBatchSize is the number of jobs run concurrently per group.
	DefaultBatchSize = 3

	// DefaultBatchDelay is the pause between groups.
	DefaultBatchDelay = time.Second
)

// Job is a single unit of batched work.
type Job[T any] struct {
	Name string
	Run  func(ctx context.Context) (*T, error)
}

// BatchOptions controls grouping and pacing.
type BatchOptions struct {
	Size  int
	Delay time.Duration

	// Sleep defaults to ContextSleep.
	Sleep SleepFunc
}

// DefaultBatchOptions returns groups of 3 with a 1s pause.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{Size: DefaultBatchSize, Delay: DefaultBatchDelay}
}

// BatchStats summarises a batch result.
type BatchStats struct {
	Total     int
	Succeeded int
	Failed    int
}

// Stats counts nil (failed) and non-nil entries of a RunBatched result.
func Stats[T any](results []*T) BatchStats {
	stats := BatchStats{Total: len(results)}
	for _, r := range results {
		if r == nil {
			stats.Failed++
		} else {
			stats.Succeeded++
		}
	}
	return stats
}

// RunBatched runs jobs in consecutive groups of opts.Size. Jobs within a
// group run concurrently, groups run one after another with opts.Delay
// between them. The result has one entry per job at the job's index; a job
// that errors or panics leaves nil there without affecting its siblings.
// If ctx ends during a pause the remaining jobs are not started.
func RunBatched[T any](ctx context.Context, jobs []Job[T], opts BatchOptions, logger arbor.ILogger) []*T {
	results := make([]*T, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	size := opts.Size
	if size <= 0 {
		size = DefaultBatchSize
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}

	for start := 0; start < len(jobs); start += size {
		if start > 0 && opts.Delay > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				logger.Warn().
					Int("completed", start).
					Int("skipped", len(jobs)-start).
					Err(err).
					Msg("Batch run interrupted")
				break
			}
		}

		end := start + size
		if end > len(jobs) {
			end = len(jobs)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				job := jobs[i]
				var value *T
				err := common.SafeCall(logger, job.Name, func() error {
					v, err := job.Run(ctx)
					value = v
					return err
				})
				if err != nil {
					logger.Warn().
						Str("job", job.Name).
						Int("index", i).
						Err(err).
						Msg("Batch job failed")
					return
				}
				results[i] = value
			}(i)
		}
		wg.Wait()
	}

	return results
}
