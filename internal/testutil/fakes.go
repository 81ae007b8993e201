package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zjrosen/promoter/internal/promotion"
)

// Call is one recorded registry call.
type Call struct {
	Op       string
	Artifact string
	Args     []string
}

// FakeRegistry is a scripted promotion.RegistryClient. Each (op, artifact)
// pair can be given a sequence of errors that are returned one per call;
// once the script runs out calls succeed.
type FakeRegistry struct {
	// Delay is slept on every pull, tag and push.
	Delay time.Duration
	// LoginErr is returned by Login.
	LoginErr error
	// LogoutBlock, when non-nil, makes Logout wait on it or the context.
	LogoutBlock chan struct{}

	mu      sync.Mutex
	scripts map[string][]error
	panics  map[string]bool
	calls   []Call

	active atomic.Int32
	peak   atomic.Int32
}

var _ promotion.RegistryClient = (*FakeRegistry)(nil)

// NewFakeRegistry returns a registry where every call succeeds.
func NewFakeRegistry() *FakeRegistry {
	return &FakeRegistry{
		scripts: make(map[string][]error),
		panics:  make(map[string]bool),
	}
}

// Script queues errs for op ("pull", "tag", "push") on artifact.
func (f *FakeRegistry) Script(op, artifact string, errs ...error) *FakeRegistry {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := op + "/" + artifact
	f.scripts[k] = append(f.scripts[k], errs...)
	return f
}

// Always makes every call of op on artifact fail with err.
func (f *FakeRegistry) Always(op, artifact string, err error, n int) *FakeRegistry {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = err
	}
	return f.Script(op, artifact, errs...)
}

// Panic makes op on artifact panic.
func (f *FakeRegistry) Panic(op, artifact string) *FakeRegistry {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panics[op+"/"+artifact] = true
	return f
}

func (f *FakeRegistry) Login(_ context.Context, creds promotion.Credentials) error {
	f.record("login", "", creds.Username)
	return f.LoginErr
}

func (f *FakeRegistry) Pull(ctx context.Context, artifact, tag string) error {
	return f.step(ctx, "pull", artifact, tag)
}

func (f *FakeRegistry) Tag(ctx context.Context, artifact, srcTag, dstTag string) error {
	return f.step(ctx, "tag", artifact, srcTag, dstTag)
}

func (f *FakeRegistry) Push(ctx context.Context, artifact, tag string) error {
	return f.step(ctx, "push", artifact, tag)
}

func (f *FakeRegistry) Logout(ctx context.Context) error {
	f.record("logout", "")
	if f.LogoutBlock != nil {
		select {
		case <-f.LogoutBlock:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *FakeRegistry) step(_ context.Context, op, artifact string, args ...string) error {
	f.record(op, artifact, args...)

	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}

	k := op + "/" + artifact
	f.mu.Lock()
	shouldPanic := f.panics[k]
	var err error
	if q := f.scripts[k]; len(q) > 0 {
		err = q[0]
		f.scripts[k] = q[1:]
	}
	f.mu.Unlock()

	if shouldPanic {
		panic(fmt.Sprintf("fake registry: %s %s", op, artifact))
	}
	return err
}

func (f *FakeRegistry) record(op, artifact string, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, Artifact: artifact, Args: args})
}

// Calls returns every recorded call in order.
func (f *FakeRegistry) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many times op was called on artifact. An empty artifact
// counts calls on every artifact.
func (f *FakeRegistry) Count(op, artifact string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op && (artifact == "" || c.Artifact == artifact) {
			n++
		}
	}
	return n
}

// PeakConcurrency is the largest number of steps observed running at once.
func (f *FakeRegistry) PeakConcurrency() int {
	return int(f.peak.Load())
}

// StaticApprovals answers every request with the same response or error.
type StaticApprovals struct {
	Response promotion.ApprovalResponse
	Err      error
	// Block makes RequestApproval wait for ctx before answering.
	Block bool

	requests atomic.Int32
}

// Approve returns a channel that answers PROCEED as identity.
func Approve(identity string) *StaticApprovals {
	return &StaticApprovals{Response: promotion.ApprovalResponse{Identity: identity, Decision: promotion.DecisionProceed}}
}

// Reject returns a channel that answers ABORT as identity.
func Reject(identity string) *StaticApprovals {
	return &StaticApprovals{Response: promotion.ApprovalResponse{Identity: identity, Decision: promotion.DecisionAbort}}
}

func (s *StaticApprovals) RequestApproval(ctx context.Context, _ promotion.ApprovalRequest) (promotion.ApprovalResponse, error) {
	s.requests.Add(1)
	if s.Block {
		<-ctx.Done()
		return promotion.ApprovalResponse{}, ctx.Err()
	}
	return s.Response, s.Err
}

// Requests returns how many times RequestApproval was called.
func (s *StaticApprovals) Requests() int {
	return int(s.requests.Load())
}

// RecordingNotifier keeps every report it receives.
type RecordingNotifier struct {
	mu      sync.Mutex
	reports []promotion.RunReport
	ctxErrs []error
}

func (n *RecordingNotifier) Notify(ctx context.Context, report promotion.RunReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, report)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	return nil
}

// Reports returns the received reports.
func (n *RecordingNotifier) Reports() []promotion.RunReport {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]promotion.RunReport(nil), n.reports...)
}

// ContextErrs returns ctx.Err() observed on each Notify call.
func (n *RecordingNotifier) ContextErrs() []error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]error(nil), n.ctxErrs...)
}
