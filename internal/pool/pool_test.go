package pool

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func squareJobs(n int, delay time.Duration) []Job[int] {
	jobs := make([]Job[int], n)
	for i := range jobs {
		i := i
		jobs[i] = Job[int]{
			Key: fmt.Sprintf("job-%d", i),
			Run: func(context.Context) int {
				time.Sleep(delay)
				return i * i
			},
		}
	}
	return jobs
}

func TestPool_DefaultMaxWorkers(t *testing.T) {
	p := New[int](Config{})
	defer p.Close()
	require.Equal(t, DefaultMaxWorkers, p.MaxWorkers())
}

func TestPool_RunPreservesOrder(t *testing.T) {
	p := New[int](Config{MaxWorkers: 2})
	defer p.Close()

	out, err := p.Run(context.Background(), squareJobs(5, time.Millisecond))
	require.NoError(t, err)
	require.Len(t, out, 5)
	for i, o := range out {
		require.Equal(t, fmt.Sprintf("job-%d", i), o.Key)
		require.Equal(t, i*i, o.Value)
		require.Nil(t, o.Panic)
		require.False(t, o.Skipped)
	}
}

func TestPool_NeverExceedsMaxWorkers(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 4).Draw(t, "limit")
		n := rapid.IntRange(limit+1, 12).Draw(t, "n")

		p := New[int](Config{MaxWorkers: limit})
		defer p.Close()

		var running, observed atomic.Int64
		jobs := make([]Job[int], n)
		for i := range jobs {
			jobs[i] = Job[int]{
				Key: fmt.Sprintf("a%d", i),
				Run: func(context.Context) int {
					cur := running.Add(1)
					for {
						prev := observed.Load()
						if cur <= prev || observed.CompareAndSwap(prev, cur) {
							break
						}
					}
					time.Sleep(200 * time.Microsecond)
					running.Add(-1)
					return 1
				},
			}
		}

		out, err := p.Run(context.Background(), jobs)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(out) != n {
			t.Fatalf("expected %d outcomes, got %d", n, len(out))
		}
		if observed.Load() > int64(limit) {
			t.Fatalf("observed %d concurrent jobs with limit %d", observed.Load(), limit)
		}
		if p.Peak() > limit {
			t.Fatalf("peak %d exceeds limit %d", p.Peak(), limit)
		}
	})
}

func TestPool_PanicBecomesOutcome(t *testing.T) {
	p := New[string](Config{MaxWorkers: 2})
	defer p.Close()

	jobs := []Job[string]{
		{Key: "ok", Run: func(context.Context) string { return "done" }},
		{Key: "boom", Run: func(context.Context) string { panic("registry exploded") }},
		{Key: "ok2", Run: func(context.Context) string { return "done" }},
	}

	out, err := p.Run(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, out, 3)

	require.Equal(t, "done", out[0].Value)
	require.Equal(t, "registry exploded", out[1].Panic)
	require.NotEmpty(t, out[1].Stack)
	require.Equal(t, "done", out[2].Value)
	require.Zero(t, p.Active())
}

func TestPool_CancelledContextSkipsQueuedJobs(t *testing.T) {
	p := New[int](Config{MaxWorkers: 1})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	jobs := []Job[int]{
		{Key: "first", Run: func(context.Context) int { cancel(); return 1 }},
		{Key: "second", Run: func(context.Context) int { return 2 }},
		{Key: "third", Run: func(context.Context) int { return 3 }},
	}

	out, err := p.Run(ctx, jobs)
	require.NoError(t, err)

	require.False(t, out[0].Skipped)
	require.Equal(t, 1, out[0].Value)
	require.True(t, out[1].Skipped)
	require.True(t, out[2].Skipped)
	require.Equal(t, "third", out[2].Key)
}

func TestPool_EmptyJobs(t *testing.T) {
	p := New[int](Config{MaxWorkers: 3})
	defer p.Close()

	out, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestPool_PublishesEvents(t *testing.T) {
	p := New[int](Config{MaxWorkers: 1})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := p.Broker().Subscribe(ctx)

	_, err := p.Run(context.Background(), squareJobs(2, 0))
	require.NoError(t, err)

	var got []EventType
	timeout := time.After(time.Second)
	for len(got) < 4 {
		select {
		case ev := <-events:
			got = append(got, ev.Payload.Type)
			if ev.Payload.Type == JobStarted {
				require.Equal(t, 1, ev.Payload.Active)
			}
		case <-timeout:
			require.FailNow(t, "timeout waiting for pool events", "got %v", got)
		}
	}
	require.Equal(t, []EventType{JobStarted, JobFinished, JobStarted, JobFinished}, got)
}

func TestPool_RunAfterClose(t *testing.T) {
	p := New[int](Config{})
	p.Close()
	p.Close() // idempotent

	_, err := p.Run(context.Background(), squareJobs(1, 0))
	require.ErrorIs(t, err, ErrPoolClosed)
}
