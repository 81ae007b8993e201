package promotion_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/promoter/internal/pool"
	"github.com/zjrosen/promoter/internal/promotion"
)

func refs(n int) []promotion.ArtifactRef {
	out := make([]promotion.ArtifactRef, n)
	for i := range out {
		out[i] = promotion.ArtifactRef{Name: fmt.Sprintf("artifact-%02d", i)}
	}
	return out
}

func okRunner(ctx context.Context, a promotion.ArtifactRef) promotion.TaskResult {
	return promotion.TaskResult{Artifact: a, Status: promotion.TaskSuccess}
}

func TestScheduler_OneResultPerArtifactInOrder(t *testing.T) {
	artifacts := refs(7)
	results := promotion.NewScheduler(nil).RunAll(context.Background(), artifacts, okRunner, 3)

	require.Len(t, results, 7)
	for i, r := range results {
		require.Equal(t, artifacts[i], r.Artifact)
		require.Equal(t, promotion.TaskSuccess, r.Status)
	}
}

func TestScheduler_ConcurrencyBoundProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "artifacts")
		limit := rapid.IntRange(1, 5).Draw(t, "limit")

		var active, peak atomic.Int32
		run := func(ctx context.Context, a promotion.ArtifactRef) promotion.TaskResult {
			cur := active.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
			return promotion.TaskResult{Artifact: a, Status: promotion.TaskSuccess}
		}

		sched := promotion.NewScheduler(nil)
		results := sched.RunAll(context.Background(), refs(n), run, limit)

		if len(results) != n {
			t.Fatalf("got %d results for %d artifacts", len(results), n)
		}
		if int(peak.Load()) > limit {
			t.Fatalf("peak %d exceeds limit %d", peak.Load(), limit)
		}
		if sched.Peak() > limit {
			t.Fatalf("scheduler peak %d exceeds limit %d", sched.Peak(), limit)
		}
	})
}

func TestScheduler_PanicBecomesFailedResult(t *testing.T) {
	artifacts := refs(3)
	run := func(ctx context.Context, a promotion.ArtifactRef) promotion.TaskResult {
		if a.Name == "artifact-01" {
			panic("boom")
		}
		return okRunner(ctx, a)
	}

	results := promotion.NewScheduler(nil).RunAll(context.Background(), artifacts, run, 2)

	require.Equal(t, promotion.TaskSuccess, results[0].Status)
	require.Equal(t, promotion.TaskFailed, results[1].Status)
	require.ErrorIs(t, results[1].Err, promotion.ErrTaskPanicked)
	require.Equal(t, artifacts[1], results[1].Artifact)
	require.Equal(t, promotion.TaskSuccess, results[2].Status)
}

func TestScheduler_FailureDoesNotCancelOthers(t *testing.T) {
	artifacts := refs(4)
	run := func(ctx context.Context, a promotion.ArtifactRef) promotion.TaskResult {
		if a.Name == "artifact-00" {
			return promotion.TaskResult{Artifact: a, Status: promotion.TaskFailed}
		}
		time.Sleep(5 * time.Millisecond)
		if ctx.Err() != nil {
			return promotion.TaskResult{Artifact: a, Status: promotion.TaskSkipped}
		}
		return okRunner(ctx, a)
	}

	results := promotion.NewScheduler(nil).RunAll(context.Background(), artifacts, run, 2)

	require.Equal(t, promotion.TaskFailed, results[0].Status)
	for _, r := range results[1:] {
		require.Equal(t, promotion.TaskSuccess, r.Status)
	}
}

func TestScheduler_CancelledQueueIsSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	artifacts := refs(5)
	started := make(chan struct{})
	var once sync.Once
	run := func(_ context.Context, a promotion.ArtifactRef) promotion.TaskResult {
		once.Do(func() { close(started) })
		time.Sleep(30 * time.Millisecond)
		return promotion.TaskResult{Artifact: a, Status: promotion.TaskSuccess}
	}

	go func() {
		<-started
		cancel()
	}()
	results := promotion.NewScheduler(nil).RunAll(ctx, artifacts, run, 1)

	require.Len(t, results, 5)
	require.Equal(t, promotion.TaskSuccess, results[0].Status)
	for _, r := range results[1:] {
		require.Equal(t, promotion.TaskSkipped, r.Status)
		require.ErrorIs(t, r.Err, promotion.ErrRunCancelled)
	}
}

func TestScheduler_ObservesWorkerEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		events []pool.Event
	)
	sched := promotion.NewScheduler(func(ev pool.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	sched.RunAll(context.Background(), refs(2), okRunner, 1)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 4)
	require.Equal(t, pool.JobStarted, events[0].Type)
	require.Equal(t, "artifact-00", events[0].Key)
	require.Equal(t, 1, events[0].Active)
	require.Equal(t, pool.JobFinished, events[1].Type)
	require.Equal(t, "artifact-01", events[2].Key)
}
