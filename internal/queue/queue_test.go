package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueue_New(t *testing.T) {
	tests := []struct {
		name            string
		maxSize         int
		expectedMaxSize int
	}{
		{name: "positive max size", maxSize: 50, expectedMaxSize: 50},
		{name: "zero uses default", maxSize: 0, expectedMaxSize: DefaultMaxSize},
		{name: "negative uses default", maxSize: -10, expectedMaxSize: DefaultMaxSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New[string](tt.maxSize)
			require.NotNil(t, q)
			require.Equal(t, tt.expectedMaxSize, q.maxSize)
			require.Zero(t, q.Len())
		})
	}
}

func TestQueue_FIFO(t *testing.T) {
	q := New[string](10)
	for _, name := range []string{"appmw", "cardui", "gateway"} {
		require.NoError(t, q.Enqueue(name))
	}
	require.Equal(t, 3, q.Len())

	for _, expected := range []string{"appmw", "cardui", "gateway"} {
		got, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, expected, got)
	}
	require.Zero(t, q.Len())
}

func TestQueue_From(t *testing.T) {
	q := From([]int{3, 1, 2})
	require.Equal(t, 3, q.Len())

	// Sized exactly for the input.
	require.ErrorIs(t, q.Enqueue(4), ErrQueueFull)

	head, ok := q.Peek()
	require.True(t, ok)
	require.Equal(t, 3, head)
	require.Equal(t, []int{3, 1, 2}, q.Drain())
}

func TestQueue_MaxSize(t *testing.T) {
	q := New[int](2)
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	require.ErrorIs(t, q.Enqueue(3), ErrQueueFull)
	require.Equal(t, 2, q.Len())

	_, ok := q.Dequeue()
	require.True(t, ok)
	require.NoError(t, q.Enqueue(3))
}

func TestQueue_Empty(t *testing.T) {
	q := New[string](1)

	v, ok := q.Dequeue()
	require.False(t, ok)
	require.Empty(t, v)

	_, ok = q.Peek()
	require.False(t, ok)

	require.NotNil(t, q.Drain())
}

func TestQueue_ConcurrentDequeue(t *testing.T) {
	const n = 200
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	q := From(items)

	var (
		mu   sync.Mutex
		seen = make(map[int]int)
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, ok := q.Dequeue()
				if !ok {
					return
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
	for v, count := range seen {
		require.Equal(t, 1, count, "item %d dequeued more than once", v)
	}
}
