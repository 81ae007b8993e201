// Package pool runs keyed jobs on a bounded set of worker goroutines.
//
// A pool never runs more than MaxWorkers jobs at once; the remaining jobs wait
// in a FIFO queue. Every submitted job yields exactly one Outcome: jobs that
// panic are recovered and reported, and jobs still queued when the context is
// cancelled are reported as skipped without being started.
package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/zjrosen/promoter/internal/log"
	"github.com/zjrosen/promoter/internal/pubsub"
	"github.com/zjrosen/promoter/internal/queue"
)

// DefaultMaxWorkers is the default maximum number of concurrent jobs.
const DefaultMaxWorkers = 3

// ErrPoolClosed is returned when Run is called on a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Job is one unit of work. Key identifies the job in events and outcomes.
type Job[T any] struct {
	Key string
	Run func(ctx context.Context) T
}

// Outcome is the result of one job.
type Outcome[T any] struct {
	Key     string
	Value   T
	Panic   any    // recovered panic value, nil if the job returned normally
	Stack   string // stack captured at the panic site
	Skipped bool   // context was done before the job was dequeued
}

// Config holds configuration for the worker pool.
type Config struct {
	MaxWorkers int // Maximum concurrent jobs (default: 3)
}

// Pool runs jobs with bounded concurrency.
type Pool[T any] struct {
	maxWorkers int
	broker     *pubsub.Broker[Event]
	closed     atomic.Bool
	active     atomic.Int64
	peak       atomic.Int64
	wg         sync.WaitGroup
}

// New creates a pool with the given configuration.
func New[T any](cfg Config) *Pool[T] {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}
	return &Pool[T]{
		maxWorkers: cfg.MaxWorkers,
		broker:     pubsub.NewBroker[Event](),
	}
}

type indexedJob[T any] struct {
	index int
	job   Job[T]
}

// Run executes jobs and blocks until every job has an outcome.
// Outcomes are returned in the same order as jobs.
func (p *Pool[T]) Run(ctx context.Context, jobs []Job[T]) ([]Outcome[T], error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	pending := make([]indexedJob[T], len(jobs))
	for i, j := range jobs {
		pending[i] = indexedJob[T]{index: i, job: j}
	}
	q := queue.From(pending)

	// Each slot is written by exactly one worker; wg.Wait publishes the writes.
	outcomes := make([]Outcome[T], len(jobs))

	workers := min(p.maxWorkers, len(jobs))
	log.Debug(log.CatPool, "Starting workers", "workers", workers, "jobs", len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		p.wg.Add(1)
		go func() {
			defer wg.Done()
			defer p.wg.Done()
			for {
				item, ok := q.Dequeue()
				if !ok {
					return
				}
				if ctx.Err() != nil {
					outcomes[item.index] = Outcome[T]{Key: item.job.Key, Skipped: true}
					p.publish(JobSkipped, item.job.Key, q.Len())
					log.Debug(log.CatPool, "Skipping job, context done", "key", item.job.Key)
					continue
				}
				outcomes[item.index] = p.runOne(ctx, item.job, q)
			}
		}()
	}
	wg.Wait()

	return outcomes, nil
}

func (p *Pool[T]) runOne(ctx context.Context, job Job[T], q *queue.Queue[indexedJob[T]]) (out Outcome[T]) {
	out.Key = job.Key

	n := p.active.Add(1)
	p.recordPeak(n)
	p.publish(JobStarted, job.Key, q.Len())

	defer func() {
		if r := recover(); r != nil {
			out.Panic = r
			out.Stack = string(debug.Stack())
			log.Error(log.CatPool, "Job panic recovered",
				"key", job.Key,
				"panic", fmt.Sprint(r),
				"stack", out.Stack)
			p.active.Add(-1)
			p.publish(JobPanicked, job.Key, q.Len())
			return
		}
		p.active.Add(-1)
		p.publish(JobFinished, job.Key, q.Len())
	}()

	out.Value = job.Run(ctx)
	return out
}

func (p *Pool[T]) recordPeak(n int64) {
	for {
		cur := p.peak.Load()
		if n <= cur || p.peak.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (p *Pool[T]) publish(t EventType, key string, queued int) {
	p.broker.Publish(pubsub.UpdatedEvent, Event{
		Type:   t,
		Key:    key,
		Active: int(p.active.Load()),
		Queued: queued,
	})
}

// Active returns the number of jobs currently running.
func (p *Pool[T]) Active() int {
	return int(p.active.Load())
}

// Peak returns the highest number of jobs that ran at the same time.
func (p *Pool[T]) Peak() int {
	return int(p.peak.Load())
}

// MaxWorkers returns the concurrency ceiling.
func (p *Pool[T]) MaxWorkers() int {
	return p.maxWorkers
}

// Broker returns the pub/sub broker for job events.
func (p *Pool[T]) Broker() *pubsub.Broker[Event] {
	return p.broker
}

// Close waits for in-flight Run calls and shuts down the broker.
// After Close, Run returns ErrPoolClosed.
func (p *Pool[T]) Close() {
	if p.closed.Swap(true) {
		return // Already closed
	}
	log.Debug(log.CatPool, "Closing worker pool")
	p.wg.Wait()
	p.broker.Close()
}
