package promotion

import (
	"errors"
	"fmt"
)

// RunFatal marks errors that stop a run before any task is scheduled.
// Only ValidationError and GateError implement it; task failures never do.
type RunFatal interface {
	error
	runFatal()
}

// ValidationKind classifies a ValidationError.
type ValidationKind int

const (
	MissingField ValidationKind = iota
	InvalidSelection
	InvalidValue
)

func (k ValidationKind) String() string {
	switch k {
	case MissingField:
		return "missing field"
	case InvalidSelection:
		return "invalid selection"
	case InvalidValue:
		return "invalid value"
	default:
		return "unknown"
	}
}

// ValidationError reports bad or missing run inputs.
type ValidationError struct {
	Kind   ValidationKind
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (*ValidationError) runFatal() {}

func missingField(field string) *ValidationError {
	return &ValidationError{Kind: MissingField, Field: field}
}

func invalidValue(field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: InvalidValue, Field: field, Detail: fmt.Sprintf(format, args...)}
}

func invalidSelection(format string, args ...any) *ValidationError {
	return &ValidationError{Kind: InvalidSelection, Field: "artifacts", Detail: fmt.Sprintf(format, args...)}
}

// GateError reports that the approval gate ended in Rejected or TimedOut.
type GateError struct {
	State    GateState
	Identity string
	Err      error
}

func (e *GateError) Error() string {
	msg := "approval " + e.State.String()
	if e.Identity != "" {
		msg += " by " + e.Identity
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GateError) Unwrap() error { return e.Err }

func (*GateError) runFatal() {}

// ErrorClass says whether a registry failure may be retried.
type ErrorClass int

const (
	ClassPermanent ErrorClass = iota
	ClassTransient
)

func (c ErrorClass) String() string {
	if c == ClassTransient {
		return "transient"
	}
	return "permanent"
}

// RegistryError is a classified failure returned by a RegistryClient.
type RegistryError struct {
	Class ErrorClass
	Op    string
	Err   error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Class, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable registry failure. Returns nil for nil err.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RegistryError{Class: ClassTransient, Op: op, Err: err}
}

// Permanent wraps err as a non-retryable registry failure. Returns nil for nil err.
func Permanent(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RegistryError{Class: ClassPermanent, Op: op, Err: err}
}

// ClassOf returns the class of err. Errors that carry no RegistryError are
// permanent.
func ClassOf(err error) ErrorClass {
	var re *RegistryError
	if errors.As(err, &re) {
		return re.Class
	}
	return ClassPermanent
}

// Step names one registry operation in a promotion task.
type Step string

const (
	StepLogin Step = "login"
	StepPull  Step = "pull"
	StepTag   Step = "tag"
	StepPush  Step = "push"
	StepTask  Step = "task" // failure not tied to one registry call
)

// TaskError is the task-local failure recorded in a TaskResult.
type TaskError struct {
	Step     Step
	Class    ErrorClass
	Attempts int
	Err      error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s) (%s): %v", e.Step, e.Attempts, e.Class, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

var (
	// ErrApprovalTimedOut is returned by an ApprovalChannel when no decision
	// arrived within the allowed wait.
	ErrApprovalTimedOut = errors.New("approval timed out")

	// ErrGateClosed is returned when a gate that already decided is asked again.
	ErrGateClosed = errors.New("approval gate already decided")

	// ErrTaskPanicked is the cause recorded when a task panics.
	ErrTaskPanicked = errors.New("promotion task panicked")

	// ErrRunCancelled is the cause recorded for tasks skipped by an operator abort.
	ErrRunCancelled = errors.New("run cancelled before task started")
)
