package promotion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/promoter/internal/log"
)

// GateState is the approval gate's state.
type GateState int

const (
	GateNotRequired GateState = iota
	GatePending
	GateApproved
	GateRejected
	GateTimedOut
)

func (s GateState) String() string {
	switch s {
	case GateNotRequired:
		return "not_required"
	case GatePending:
		return "pending"
	case GateApproved:
		return "approved"
	case GateRejected:
		return "rejected"
	case GateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Terminal reports whether the gate can no longer change state.
func (s GateState) Terminal() bool {
	return s == GateApproved || s == GateRejected || s == GateTimedOut
}

// ErrUnauthorizedApprover is recorded when the responder is not an approver.
var ErrUnauthorizedApprover = errors.New("identity is not an authorized approver")

// GateDecision is the final state of the gate for a run.
type GateDecision struct {
	State     GateState
	Required  bool
	Identity  string
	Decision  Decision
	Err       error
	DecidedAt time.Time
}

// Approved reports whether tasks may run.
func (d GateDecision) Approved() bool { return d.State == GateApproved }

// Fatal returns the run-fatal error for a gate that did not approve.
func (d GateDecision) Fatal() RunFatal {
	if d.State != GateRejected && d.State != GateTimedOut {
		return nil
	}
	return &GateError{State: d.State, Identity: d.Identity, Err: d.Err}
}

// ApprovalGate asks an approval channel once per run.
type ApprovalGate struct {
	channel ApprovalChannel

	mu    sync.Mutex
	state GateState
	used  bool
}

// NewApprovalGate creates a gate backed by channel.
func NewApprovalGate(channel ApprovalChannel) *ApprovalGate {
	return &ApprovalGate{channel: channel}
}

// State returns the current gate state.
func (g *ApprovalGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Decide runs the gate. Dry runs are approved without contacting the channel.
// The wait is bounded by req.MaxWait. A gate decides once; later calls return
// ErrGateClosed.
func (g *ApprovalGate) Decide(ctx context.Context, req ApprovalRequest, dryRun bool) (GateDecision, error) {
	g.mu.Lock()
	if g.used {
		g.mu.Unlock()
		return GateDecision{}, ErrGateClosed
	}
	g.used = true

	if dryRun {
		g.state = GateApproved
		g.mu.Unlock()
		log.Info(log.CatGate, "Dry run, approval not required", "run", req.RunID)
		return GateDecision{State: GateApproved, Required: false, DecidedAt: time.Now()}, nil
	}
	g.state = GatePending
	g.mu.Unlock()

	d := g.wait(ctx, req)
	d.Required = true
	d.DecidedAt = time.Now()

	g.mu.Lock()
	g.state = d.State
	g.mu.Unlock()

	log.Info(log.CatGate, "Gate decided",
		"run", req.RunID,
		"state", d.State,
		"identity", d.Identity,
		"decision", d.Decision)
	return d, nil
}

func (g *ApprovalGate) wait(ctx context.Context, req ApprovalRequest) GateDecision {
	if g.channel == nil {
		return GateDecision{State: GateRejected, Err: errors.New("no approval channel configured")}
	}

	if req.MaxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.MaxWait)
		defer cancel()
	}

	log.Info(log.CatGate, "Waiting for approval",
		"run", req.RunID,
		"approvers", strings.Join(req.Approvers, ","),
		"max_wait", req.MaxWait)

	resp, err := g.channel.RequestApproval(ctx, req)
	if err != nil {
		if errors.Is(err, ErrApprovalTimedOut) || errors.Is(err, context.DeadlineExceeded) {
			return GateDecision{State: GateTimedOut, Err: err}
		}
		log.ErrorErr(log.CatGate, "Approval channel failed", err, "run", req.RunID)
		return GateDecision{State: GateRejected, Err: err}
	}

	d := GateDecision{Identity: strings.TrimSpace(resp.Identity), Decision: resp.Decision}
	if !isApprover(d.Identity, req.Approvers) {
		d.State = GateRejected
		d.Err = fmt.Errorf("%w: %q", ErrUnauthorizedApprover, d.Identity)
		return d
	}

	switch Decision(strings.ToUpper(strings.TrimSpace(string(resp.Decision)))) {
	case DecisionProceed:
		d.State = GateApproved
	case DecisionAbort:
		d.State = GateRejected
	default:
		d.State = GateRejected
		d.Err = fmt.Errorf("unknown decision %q", resp.Decision)
	}
	return d
}

// isApprover matches trimmed identities case-insensitively.
func isApprover(identity string, approvers []string) bool {
	if identity == "" {
		return false
	}
	for _, a := range approvers {
		if strings.EqualFold(strings.TrimSpace(a), identity) {
			return true
		}
	}
	return false
}
