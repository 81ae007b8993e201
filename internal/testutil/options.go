package testutil

import (
	"time"

	"github.com/zjrosen/promoter/internal/promotion"
)

// runData holds everything needed to synthesize a RunReport.
type runData struct {
	params  promotion.RunParams
	status  promotion.RunStatus
	gate    promotion.GateDecision
	pair    promotion.TagPair
	results []promotion.TaskResult
	err     promotion.RunFatal
	started time.Time
	took    time.Duration
}

// defaultRun returns a successful latest-to-stable run with no artifacts.
func defaultRun(id string) runData {
	return runData{
		params: promotion.RunParams{
			RunID:     id,
			Registry:  "registry.example.com/team",
			Mode:      promotion.StandardLatestToStable{},
			Selection: []string{promotion.SelectAll},
			Ticket:    promotion.Ticket{ID: "CHG-" + id, RequestedBy: "release-bot"},
			Approval:  promotion.ApprovalPolicy{Approvers: []string{"alice"}},
		},
		status:  promotion.RunSuccess,
		gate:    promotion.GateDecision{State: promotion.GateApproved, Required: true, Identity: "alice", Decision: promotion.DecisionProceed},
		pair:    promotion.TagPair{Source: promotion.TagLatest, Destination: promotion.TagStable},
		started: time.Now(),
		took:    time.Second,
	}
}

// RunOption configures a run during builder setup.
type RunOption func(*runData)

// Status sets the run status.
func Status(s promotion.RunStatus) RunOption {
	return func(r *runData) { r.status = s }
}

// DryRun marks the run as a dry run with a gate that was not required.
func DryRun() RunOption {
	return func(r *runData) {
		r.params.DryRun = true
		r.gate = promotion.GateDecision{State: promotion.GateApproved}
	}
}

// Ticket sets the ticket id.
func Ticket(id string) RunOption {
	return func(r *runData) { r.params.Ticket.ID = id }
}

// Registry sets the registry host.
func Registry(host string) RunOption {
	return func(r *runData) { r.params.Registry = host }
}

// Tags sets a custom mode and the resolved pair.
func Tags(src, dst string) RunOption {
	return func(r *runData) {
		r.params.Mode = promotion.CustomTags{SourceTag: src, DestinationTag: dst}
		r.pair = promotion.TagPair{Source: src, Destination: dst}
	}
}

// StartedAt sets the start time.
func StartedAt(t time.Time) RunOption {
	return func(r *runData) { r.started = t }
}

// Gate sets the gate decision.
func Gate(state promotion.GateState, identity string) RunOption {
	return func(r *runData) {
		r.gate = promotion.GateDecision{State: state, Required: true, Identity: identity}
	}
}

// Fatal sets the run-fatal error.
func Fatal(err promotion.RunFatal) RunOption {
	return func(r *runData) { r.err = err }
}

// Artifact appends a result. Failed results get a permanent push error.
func Artifact(name string, status promotion.TaskStatus, attempts int) RunOption {
	return func(r *runData) {
		res := promotion.TaskResult{
			Artifact:   promotion.ArtifactRef{Name: name},
			TagPair:    r.pair,
			Status:     status,
			Attempts:   attempts,
			DryRun:     r.params.DryRun,
			StartedAt:  r.started,
			FinishedAt: r.started.Add(r.took),
		}
		switch status {
		case promotion.TaskFailed:
			res.Err = &promotion.TaskError{
				Step:     promotion.StepPush,
				Class:    promotion.ClassPermanent,
				Attempts: attempts,
				Err:      promotion.Permanent("push", errString("denied")),
			}
		case promotion.TaskSkipped:
			res.Err = &promotion.TaskError{Step: promotion.StepTask, Err: promotion.ErrRunCancelled}
		}
		r.results = append(r.results, res)
	}
}

type errString string

func (e errString) Error() string { return string(e) }

// Report builds a RunReport from options without a database.
func Report(id string, opts ...RunOption) promotion.RunReport {
	r := defaultRun(id)
	for _, opt := range opts {
		opt(&r)
	}
	return r.report()
}

func (r runData) report() promotion.RunReport {
	out := promotion.RunOutcome{
		RunID:      r.params.RunID,
		Status:     r.status,
		State:      promotion.StateDone,
		TagPair:    r.pair,
		Results:    r.results,
		Gate:       r.gate,
		Err:        r.err,
		StartedAt:  r.started,
		FinishedAt: r.started.Add(r.took),
	}
	switch r.status {
	case promotion.RunAborted:
		out.State = promotion.StateAborted
	case promotion.RunValidationFailed:
		out.State = promotion.StateValidationFailed
	}
	return promotion.RunReport{Outcome: out, Config: promotion.NewRunConfig(r.params)}
}

// Params returns inputs for an approved latest-to-stable run of every default
// artifact with a 1ms retry delay. Tests adjust fields before NewRunConfig.
func Params() promotion.RunParams {
	return promotion.RunParams{
		Registry:    "registry.example.com/team",
		Credentials: promotion.Credentials{Username: "ci", Password: "secret"},
		Mode:        promotion.StandardLatestToStable{},
		Concurrency: 3,
		RetryLimit:  3,
		RetryDelay:  time.Millisecond,
		Selection:   []string{promotion.SelectAll},
		Ticket:      promotion.Ticket{ID: "CHG-1001", RequestedBy: "release-bot"},
		Approval:    promotion.ApprovalPolicy{Approvers: []string{"alice", "Bob"}, MaxWait: time.Second},
	}
}
