package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/promoter/internal/promotion"
)

func TestBuilder_WithRun(t *testing.T) {
	store := NewTestStore(t)

	NewBuilder(t, store).
		WithRun("run-1", Artifact("appmw", promotion.TaskSuccess, 3)).
		Build()

	run, arts, err := store.Get(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, promotion.RunSuccess, run.Status)
	require.Equal(t, "CHG-run-1", run.Ticket)
	require.Equal(t, 1, run.Succeeded)
	require.Len(t, arts, 1)
	require.Equal(t, "appmw", arts[0].Artifact)
	require.Equal(t, 3, arts[0].Attempts)
}

func TestBuilder_StandardRuns(t *testing.T) {
	store := NewTestStore(t)
	NewBuilder(t, store).WithStandardRuns().Build()

	runs, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 4)
	require.Equal(t, []string{"run-4", "run-3", "run-2", "run-1"},
		[]string{runs[0].RunID, runs[1].RunID, runs[2].RunID, runs[3].RunID})
	require.True(t, runs[0].DryRun)
	require.Equal(t, promotion.RunPartialFailure, runs[1].Status)
	require.Equal(t, 1, runs[1].Failed)
	require.Equal(t, "rejected", runs[2].GateState)
}

func TestFakeRegistry_Script(t *testing.T) {
	f := NewFakeRegistry().Script("pull", "appmw", promotion.Transient("pull", errString("503")))
	ctx := context.Background()

	require.Error(t, f.Pull(ctx, "appmw", "latest"))
	require.NoError(t, f.Pull(ctx, "appmw", "latest"))
	require.NoError(t, f.Pull(ctx, "cardui", "latest"))

	require.Equal(t, 2, f.Count("pull", "appmw"))
	require.Equal(t, 3, f.Count("pull", ""))
}

func TestFakeRegistry_Panic(t *testing.T) {
	f := NewFakeRegistry().Panic("tag", "gateway")

	require.Panics(t, func() { _ = f.Tag(context.Background(), "gateway", "latest", "stable") })
}
