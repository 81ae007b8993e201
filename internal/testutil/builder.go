package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/promoter/internal/history"
)

// Builder accumulates runs and records them in a history store.
type Builder struct {
	t     *testing.T
	store *history.Store
	runs  []runData
}

// NewBuilder creates a builder for the given store.
func NewBuilder(t *testing.T, store *history.Store) *Builder {
	t.Helper()
	return &Builder{t: t, store: store}
}

// WithRun adds a run with optional configuration.
func (b *Builder) WithRun(id string, opts ...RunOption) *Builder {
	r := defaultRun(id)
	for _, opt := range opts {
		opt(&r)
	}
	b.runs = append(b.runs, r)
	return b
}

// Build records every accumulated run in insertion order.
func (b *Builder) Build() {
	b.t.Helper()
	for _, r := range b.runs {
		require.NoError(b.t, b.store.Record(context.Background(), r.report()))
	}
}
