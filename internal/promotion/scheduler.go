package promotion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zjrosen/promoter/internal/log"
	"github.com/zjrosen/promoter/internal/pool"
)

// TaskRunner produces the result for one artifact.
type TaskRunner func(ctx context.Context, artifact ArtifactRef) TaskResult

// Scheduler runs one task per artifact on a bounded worker pool.
// It never retries and never cancels a started task.
type Scheduler struct {
	observe func(pool.Event)

	mu   sync.Mutex
	peak int
}

// NewScheduler creates a scheduler. observe, if non-nil, receives every pool
// event in publication order.
func NewScheduler(observe func(pool.Event)) *Scheduler {
	return &Scheduler{observe: observe}
}

// RunAll runs run for every artifact with at most limit running at once and
// returns exactly one result per artifact, in artifact order. A task that
// panics is recorded as failed. Artifacts still queued when ctx is cancelled
// are recorded as skipped.
func (s *Scheduler) RunAll(ctx context.Context, artifacts []ArtifactRef, run TaskRunner, limit int) []TaskResult {
	if limit < 1 {
		limit = 1
	}

	p := pool.New[TaskResult](pool.Config{MaxWorkers: limit})

	var forwarded sync.WaitGroup
	if s.observe != nil {
		// Pool.Close closes the subscription, which ends the forwarder.
		events := p.Broker().Subscribe(context.Background())
		forwarded.Add(1)
		go func() {
			defer forwarded.Done()
			for ev := range events {
				s.observe(ev.Payload)
			}
		}()
	}

	jobs := make([]pool.Job[TaskResult], len(artifacts))
	for i, a := range artifacts {
		a := a
		jobs[i] = pool.Job[TaskResult]{
			Key: a.Name,
			Run: func(ctx context.Context) TaskResult { return run(ctx, a) },
		}
	}

	outcomes, err := p.Run(ctx, jobs)
	p.Close()
	forwarded.Wait()

	s.mu.Lock()
	s.peak = p.Peak()
	s.mu.Unlock()

	results := make([]TaskResult, len(artifacts))
	for i, a := range artifacts {
		if err != nil {
			results[i] = failedResult(a, fmt.Errorf("schedule: %w", err))
			continue
		}
		o := outcomes[i]
		switch {
		case o.Skipped:
			results[i] = TaskResult{
				Artifact:   a,
				Status:     TaskSkipped,
				Err:        &TaskError{Step: StepTask, Class: ClassPermanent, Err: ErrRunCancelled},
				FinishedAt: time.Now(),
			}
		case o.Panic != nil:
			log.Error(log.CatPool, "Task panicked", "artifact", a.Name, "panic", fmt.Sprint(o.Panic))
			results[i] = failedResult(a, fmt.Errorf("%w: %v", ErrTaskPanicked, o.Panic))
		default:
			results[i] = o.Value
		}
	}
	return results
}

// Peak returns the highest number of tasks that ran concurrently in the last
// RunAll.
func (s *Scheduler) Peak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

func failedResult(a ArtifactRef, err error) TaskResult {
	now := time.Now()
	return TaskResult{
		Artifact:   a,
		Status:     TaskFailed,
		Err:        &TaskError{Step: StepTask, Class: ClassPermanent, Err: err},
		StartedAt:  now,
		FinishedAt: now,
	}
}
