package httpclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func valueJobs(n int, completed *int32, fail map[int]bool) []Job[int] {
	jobs := make([]Job[int], n)
	for i := 0; i < n; i++ {
		i := i
		jobs[i] = Job[int]{
			Name: fmt.Sprintf("job-%d", i),
			Run: func(ctx context.Context) (*int, error) {
				defer atomic.AddInt32(completed, 1)
				if fail[i] {
					return nil, errors.New("upstream down")
				}
				v := i * 10
				return &v, nil
			},
		}
	}
	return jobs
}

func TestRunBatched_PartitionsAndPauses(t *testing.T) {
	var completed int32
	var delays []time.Duration
	var completedAtPause []int32

	opts := BatchOptions{
		Size:  3,
		Delay: time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			completedAtPause = append(completedAtPause, atomic.LoadInt32(&completed))
			return nil
		},
	}

	results := RunBatched(context.Background(), valueJobs(7, &completed, nil), opts, arbor.NewLogger())

	require.Len(t, results, 7)
	for i, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, i*10, *r, "result must stay at its job index")
	}

	// Groups [3,3,1]: two pauses, none after the last group
	assert.Equal(t, []time.Duration{time.Second, time.Second}, delays)
	assert.Equal(t, []int32{3, 6}, completedAtPause)
}

func TestRunBatched_GroupRunsConcurrently(t *testing.T) {
	var arrived sync.WaitGroup
	arrived.Add(3)
	released := make(chan struct{})
	go func() {
		arrived.Wait()
		close(released)
	}()

	jobs := make([]Job[int], 3)
	for i := range jobs {
		i := i
		jobs[i] = Job[int]{
			Name: fmt.Sprintf("barrier-%d", i),
			Run: func(ctx context.Context) (*int, error) {
				arrived.Done()
				select {
				case <-released:
					return &i, nil
				case <-time.After(5 * time.Second):
					return nil, errors.New("siblings never started")
				}
			},
		}
	}

	results := RunBatched(context.Background(), jobs, BatchOptions{Size: 3}, arbor.NewLogger())

	require.Len(t, results, 3)
	for i, r := range results {
		require.NotNil(t, r, "job %d was not released with its group", i)
		assert.Equal(t, i, *r)
	}
}

func TestRunBatched_FailuresLeaveNil(t *testing.T) {
	var completed int32
	opts := BatchOptions{Size: 2, Delay: time.Millisecond, Sleep: func(ctx context.Context, d time.Duration) error { return nil }}

	results := RunBatched(context.Background(), valueJobs(5, &completed, map[int]bool{1: true, 4: true}), opts, arbor.NewLogger())

	require.Len(t, results, 5)
	assert.Nil(t, results[1])
	assert.Nil(t, results[4])
	assert.Equal(t, 0, *results[0])
	assert.Equal(t, 20, *results[2])
	assert.Equal(t, 30, *results[3])

	assert.Equal(t, BatchStats{Total: 5, Succeeded: 3, Failed: 2}, Stats(results))
}

func TestRunBatched_PanicIsContained(t *testing.T) {
	jobs := []Job[string]{
		{Name: "ok", Run: func(ctx context.Context) (*string, error) { s := "ok"; return &s, nil }},
		{Name: "boom", Run: func(ctx context.Context) (*string, error) { panic("boom") }},
	}

	results := RunBatched(context.Background(), jobs, BatchOptions{Size: 3}, arbor.NewLogger())

	require.Len(t, results, 2)
	require.NotNil(t, results[0])
	assert.Equal(t, "ok", *results[0])
	assert.Nil(t, results[1])
}

func TestRunBatched_CancelStopsLaterGroups(t *testing.T) {
	var completed int32
	ctx, cancel := context.WithCancel(context.Background())
	opts := BatchOptions{
		Size:  2,
		Delay: time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	results := RunBatched(ctx, valueJobs(5, &completed, nil), opts, arbor.NewLogger())

	require.Len(t, results, 5)
	assert.NotNil(t, results[0])
	assert.NotNil(t, results[1])
	assert.Nil(t, results[2])
	assert.Equal(t, int32(2), atomic.LoadInt32(&completed))
}

func TestRunBatched_Empty(t *testing.T) {
	results := RunBatched[int](context.Background(), nil, DefaultBatchOptions(), arbor.NewLogger())
	assert.Empty(t, results)
}
