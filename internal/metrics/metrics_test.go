package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/promoter/internal/metrics"
	"github.com/zjrosen/promoter/internal/promotion"
)

func result(name string, status promotion.TaskStatus, d time.Duration, steps ...promotion.StepResult) promotion.TaskResult {
	start := time.Date(2025, 12, 6, 10, 0, 0, 0, time.UTC)
	r := promotion.TaskResult{
		Artifact:   promotion.ArtifactRef{Name: name},
		Status:     status,
		Steps:      steps,
		StartedAt:  start,
		FinishedAt: start.Add(d),
	}
	for _, s := range steps {
		r.Attempts += s.Attempts
	}
	return r
}

func TestSummarize_CountsAndRetries(t *testing.T) {
	failed := result("cardui", promotion.TaskFailed, 9*time.Second,
		promotion.StepResult{Step: promotion.StepPull, Attempts: 3})
	failed.Err = &promotion.TaskError{Step: promotion.StepPull, Class: promotion.ClassTransient, Attempts: 3, Err: errors.New("timeout")}

	outcome := promotion.RunOutcome{
		Results: []promotion.TaskResult{
			result("appmw", promotion.TaskSuccess, 2*time.Second,
				promotion.StepResult{Step: promotion.StepPull, Attempts: 2},
				promotion.StepResult{Step: promotion.StepTag, Attempts: 1},
				promotion.StepResult{Step: promotion.StepPush, Attempts: 1}),
			failed,
			{Artifact: promotion.ArtifactRef{Name: "paymentsvc"}, Status: promotion.TaskSkipped},
		},
		StartedAt:  time.Date(2025, 12, 6, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 12, 6, 10, 0, 12, 0, time.UTC),
	}

	s := metrics.Summarize(outcome)

	require.Equal(t, 3, s.Total)
	require.Equal(t, 1, s.Succeeded)
	require.Equal(t, 1, s.Failed)
	require.Equal(t, 1, s.Skipped)
	require.Equal(t, 7, s.RegistryCalls)
	require.Equal(t, 3, s.Retries)
	require.Equal(t, map[string]int{"pull": 1}, s.FailuresByStep)
	require.Equal(t, map[string]int{"transient": 1}, s.FailuresByClass)
	require.Equal(t, 12*time.Second, s.Wall)
	require.Equal(t, 9*time.Second, s.TaskSlowest)
	require.Equal(t, "cardui", s.SlowestName)
	require.Equal(t, 9*time.Second, s.TaskMedian)
	require.InDelta(t, 33.33, s.SuccessRate(), 0.01)
	require.Equal(t, "1 ok, 1 failed, 1 skipped", s.FormatCounts())
	require.Equal(t, "wall 12s, median 9s, slowest 9s (cardui)", s.FormatTiming())
}

func TestSummarize_Empty(t *testing.T) {
	s := metrics.Summarize(promotion.RunOutcome{})

	require.Zero(t, s.Total)
	require.Zero(t, s.SuccessRate())
	require.Nil(t, s.FailuresByStep)
	require.Equal(t, "wall 0s, median 0s", s.FormatTiming())
}
