package promotion

import (
	"time"
)

// TaskStatus is the outcome of one artifact's promotion.
type TaskStatus string

const (
	TaskSuccess TaskStatus = "success"
	TaskFailed  TaskStatus = "failed"
	TaskSkipped TaskStatus = "skipped"
)

// StepResult records one step of a task.
type StepResult struct {
	Step     Step
	Attempts int
	NoOp     bool // push replaced by a record in dry-run mode
	Err      error
}

// TaskResult is the immutable record of one artifact's promotion.
type TaskResult struct {
	Artifact   ArtifactRef
	TagPair    TagPair
	Status     TaskStatus
	Attempts   int // registry calls issued across all steps
	Steps      []StepResult
	Err        *TaskError
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time the task ran for.
func (r TaskResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Message is a one-line human summary used by reports.
func (r TaskResult) Message() string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.Status == TaskSuccess && r.DryRun:
		return "dry run: pulled and tagged, push skipped"
	case r.Status == TaskSuccess:
		return "promoted"
	default:
		return string(r.Status)
	}
}

// RunStatus is the overall status of a run.
type RunStatus string

const (
	RunSuccess          RunStatus = "success"
	RunPartialFailure   RunStatus = "partial_failure"
	RunAborted          RunStatus = "aborted"
	RunValidationFailed RunStatus = "validation_failed"
)

// ExitCode maps a run status to the process exit code.
func (s RunStatus) ExitCode() int {
	switch s {
	case RunSuccess:
		return 0
	case RunPartialFailure:
		return 1
	case RunAborted:
		return 2
	default:
		return 3
	}
}

// RunOutcome is the derived result of a run.
type RunOutcome struct {
	RunID      string
	Status     RunStatus
	State      RunState
	TagPair    TagPair
	Results    []TaskResult
	Gate       GateDecision
	Err        RunFatal
	StartedAt  time.Time
	FinishedAt time.Time
}

// Counts returns how many results have each status.
func (o RunOutcome) Counts() map[TaskStatus]int {
	counts := map[TaskStatus]int{TaskSuccess: 0, TaskFailed: 0, TaskSkipped: 0}
	for _, r := range o.Results {
		counts[r.Status]++
	}
	return counts
}

// Aggregate derives the run status from the task results and gate decision.
// A gate that did not approve means no task ran and the run is Aborted.
func Aggregate(results []TaskResult, gate GateDecision) RunStatus {
	if !gate.Approved() {
		return RunAborted
	}
	if len(results) == 0 {
		return RunSuccess
	}
	for _, r := range results {
		if r.Status != TaskSuccess {
			return RunPartialFailure
		}
	}
	return RunSuccess
}
