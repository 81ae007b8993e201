// Package queue provides a thread-safe bounded FIFO queue. The scheduler uses
// it to hold artifacts that are waiting for a free worker slot.
package queue

import (
	"errors"
	"sync"
)

// DefaultMaxSize is the default maximum number of entries a queue can hold.
const DefaultMaxSize = 100

// ErrQueueFull is returned when attempting to enqueue to a full queue.
var ErrQueueFull = errors.New("queue is full")

// Queue is a thread-safe FIFO queue of T.
type Queue[T any] struct {
	entries []T
	mu      sync.Mutex
	maxSize int
}

// New creates a queue holding at most maxSize entries.
// If maxSize is <= 0, DefaultMaxSize (100) is used.
func New[T any](maxSize int) *Queue[T] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Queue[T]{
		entries: make([]T, 0, min(maxSize, DefaultMaxSize)),
		maxSize: maxSize,
	}
}

// From creates a queue sized exactly for items and enqueues them in order.
func From[T any](items []T) *Queue[T] {
	q := New[T](len(items))
	q.entries = append(q.entries, items...)
	return q
}

// Enqueue adds an entry to the back of the queue.
// Returns ErrQueueFull if the queue is at maximum capacity.
func (q *Queue[T]) Enqueue(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.maxSize {
		return ErrQueueFull
	}
	q.entries = append(q.entries, v)
	return nil
}

// Dequeue removes and returns the entry at the front of the queue.
// Returns (zero value, false) if the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.entries) == 0 {
		return zero, false
	}

	v := q.entries[0]
	q.entries[0] = zero // release reference for GC
	q.entries = q.entries[1:]
	return v, true
}

// Peek returns the entry at the front of the queue without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		var zero T
		return zero, false
	}
	return q.entries[0], true
}

// Len returns the current number of entries.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Drain removes and returns all entries, leaving the queue empty.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.entries
	q.entries = make([]T, 0)
	if out == nil {
		return []T{}
	}
	return out
}
