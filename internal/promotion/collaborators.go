package promotion

import (
	"context"
	"time"
)

// Credentials authenticate a registry session.
type Credentials struct {
	Username string
	Password string
}

// RegistryClient performs single registry operations for one artifact.
// Failures should be wrapped with Transient or Permanent; anything else is
// treated as permanent.
type RegistryClient interface {
	Login(ctx context.Context, creds Credentials) error
	Pull(ctx context.Context, artifact, tag string) error
	Tag(ctx context.Context, artifact, srcTag, dstTag string) error
	Push(ctx context.Context, artifact, tag string) error
	Logout(ctx context.Context) error
}

// Decision is an approver's answer.
type Decision string

const (
	DecisionProceed Decision = "PROCEED"
	DecisionAbort   Decision = "ABORT"
)

// ApprovalRequest is what an approver is shown.
type ApprovalRequest struct {
	RunID     string
	Registry  string
	Ticket    Ticket
	TagPair   TagPair
	Mode      string
	Artifacts []string
	Approvers []string
	MaxWait   time.Duration
}

// ApprovalResponse is an approver's identity and decision.
type ApprovalResponse struct {
	Identity string
	Decision Decision
}

// ApprovalChannel asks a human for a decision. Implementations return
// ErrApprovalTimedOut (or the context error) when no answer arrives in time.
type ApprovalChannel interface {
	RequestApproval(ctx context.Context, req ApprovalRequest) (ApprovalResponse, error)
}

// RunReport is handed to the notifier once per run.
type RunReport struct {
	Outcome RunOutcome
	Config  RunConfig
}

// Notifier delivers the run report.
type Notifier interface {
	Notify(ctx context.Context, report RunReport) error
}

// LogStream is an append-only structured log.
type LogStream interface {
	Info(msg string, fields ...any)
	Error(msg string, fields ...any)
}

// LogSink provides the run-level stream and one stream per artifact.
type LogSink interface {
	Run() LogStream
	Artifact(name string) LogStream
}

// NopLogSink discards everything.
type NopLogSink struct{}

func (NopLogSink) Run() LogStream            { return nopStream{} }
func (NopLogSink) Artifact(string) LogStream { return nopStream{} }

type nopStream struct{}

func (nopStream) Info(string, ...any)  {}
func (nopStream) Error(string, ...any) {}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, report RunReport) error

func (f NotifierFunc) Notify(ctx context.Context, report RunReport) error { return f(ctx, report) }
