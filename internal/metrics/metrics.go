// Package metrics derives summary numbers for a finished promotion run.
package metrics

import (
	"fmt"
	"slices"
	"time"

	"github.com/zjrosen/promoter/internal/promotion"
)

// RunSummary holds the aggregate numbers reported for one run.
type RunSummary struct {
	// Task outcomes
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`

	// Registry calls
	RegistryCalls int `json:"registry_calls"`
	Retries       int `json:"retries"` // calls beyond the first per step

	// Failure breakdown
	FailuresByStep  map[string]int `json:"failures_by_step,omitempty"`
	FailuresByClass map[string]int `json:"failures_by_class,omitempty"`

	// Timing
	Wall        time.Duration `json:"wall_ns"`
	TaskMedian  time.Duration `json:"task_median_ns"`
	TaskSlowest time.Duration `json:"task_slowest_ns"`
	SlowestName string        `json:"slowest_artifact,omitempty"`
}

// Summarize computes the summary of outcome.
func Summarize(outcome promotion.RunOutcome) RunSummary {
	s := RunSummary{Total: len(outcome.Results)}
	if !outcome.StartedAt.IsZero() && !outcome.FinishedAt.IsZero() {
		s.Wall = outcome.FinishedAt.Sub(outcome.StartedAt)
	}

	durations := make([]time.Duration, 0, len(outcome.Results))
	for _, r := range outcome.Results {
		switch r.Status {
		case promotion.TaskSuccess:
			s.Succeeded++
		case promotion.TaskFailed:
			s.Failed++
		case promotion.TaskSkipped:
			s.Skipped++
		}

		s.RegistryCalls += r.Attempts
		for _, step := range r.Steps {
			if step.Attempts > 1 {
				s.Retries += step.Attempts - 1
			}
		}

		if r.Err != nil {
			if s.FailuresByStep == nil {
				s.FailuresByStep = make(map[string]int)
				s.FailuresByClass = make(map[string]int)
			}
			s.FailuresByStep[string(r.Err.Step)]++
			s.FailuresByClass[r.Err.Class.String()]++
		}

		if d := r.Duration(); d > 0 {
			durations = append(durations, d)
			if d > s.TaskSlowest {
				s.TaskSlowest = d
				s.SlowestName = r.Artifact.Name
			}
		}
	}

	if len(durations) > 0 {
		slices.Sort(durations)
		s.TaskMedian = durations[len(durations)/2]
	}
	return s
}

// SuccessRate returns the percentage of tasks that succeeded (0-100).
func (s RunSummary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

// FormatCounts returns e.g. "12 ok, 1 failed, 0 skipped".
func (s RunSummary) FormatCounts() string {
	return fmt.Sprintf("%d ok, %d failed, %d skipped", s.Succeeded, s.Failed, s.Skipped)
}

// FormatTiming returns e.g. "wall 42s, median 3.1s, slowest 9s (cardui)".
func (s RunSummary) FormatTiming() string {
	out := fmt.Sprintf("wall %s, median %s", round(s.Wall), round(s.TaskMedian))
	if s.SlowestName != "" {
		out += fmt.Sprintf(", slowest %s (%s)", round(s.TaskSlowest), s.SlowestName)
	}
	return out
}

func round(d time.Duration) time.Duration {
	if d < time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(100 * time.Millisecond)
}
