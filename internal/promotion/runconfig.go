package promotion

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultConcurrency  = 3
	DefaultRetryLimit   = 3
	DefaultRetryDelay   = 5 * time.Second
	DefaultApprovalWait = 30 * time.Minute
)

// Ticket is the change-request metadata shown to approvers and in reports.
type Ticket struct {
	ID          string
	ReleaseLink string
	JobURL      string
	RequestedBy string
}

// ApprovalPolicy names who may approve and how long to wait.
type ApprovalPolicy struct {
	Approvers []string
	MaxWait   time.Duration
}

// RunParams are the raw inputs for NewRunConfig. Zero values take defaults.
type RunParams struct {
	RunID       string
	Registry    string
	Credentials Credentials
	Mode        PromotionMode
	DryRun      bool
	Concurrency int
	RetryLimit  int
	RetryDelay  time.Duration
	Selection   []string
	Canonical   []string
	Ticket      Ticket
	Approval    ApprovalPolicy
}

// RunConfig is the immutable snapshot of one run's inputs. Build it with
// NewRunConfig; accessors return copies of slices.
type RunConfig struct {
	runID       string
	registry    string
	credentials Credentials
	mode        PromotionMode
	dryRun      bool
	concurrency int
	retryLimit  int
	retryDelay  time.Duration
	selection   []string
	canonical   []string
	ticket      Ticket
	approval    ApprovalPolicy
	createdAt   time.Time
}

// NewRunConfig applies defaults and freezes p. Validation happens when the
// orchestrator resolves the run so that bad input still produces a report.
func NewRunConfig(p RunParams) RunConfig {
	if p.RunID == "" {
		p.RunID = uuid.NewString()
	}
	if p.Concurrency == 0 {
		p.Concurrency = DefaultConcurrency
	}
	if p.RetryLimit == 0 {
		p.RetryLimit = DefaultRetryLimit
	}
	if p.RetryDelay == 0 {
		p.RetryDelay = DefaultRetryDelay
	}
	if p.Approval.MaxWait == 0 {
		p.Approval.MaxWait = DefaultApprovalWait
	}
	if p.Canonical == nil {
		p.Canonical = DefaultArtifacts
	}

	approvers := make([]string, 0, len(p.Approval.Approvers))
	for _, a := range p.Approval.Approvers {
		if a = strings.TrimSpace(a); a != "" {
			approvers = append(approvers, a)
		}
	}

	return RunConfig{
		runID:       p.RunID,
		registry:    strings.TrimSpace(p.Registry),
		credentials: p.Credentials,
		mode:        p.Mode,
		dryRun:      p.DryRun,
		concurrency: p.Concurrency,
		retryLimit:  p.RetryLimit,
		retryDelay:  p.RetryDelay,
		selection:   slices.Clone(p.Selection),
		canonical:   slices.Clone(p.Canonical),
		ticket:      p.Ticket,
		approval:    ApprovalPolicy{Approvers: approvers, MaxWait: p.Approval.MaxWait},
		createdAt:   time.Now(),
	}
}

func (c RunConfig) RunID() string             { return c.runID }
func (c RunConfig) Registry() string          { return c.registry }
func (c RunConfig) Credentials() Credentials  { return c.credentials }
func (c RunConfig) Mode() PromotionMode       { return c.mode }
func (c RunConfig) DryRun() bool              { return c.dryRun }
func (c RunConfig) Concurrency() int          { return c.concurrency }
func (c RunConfig) RetryLimit() int           { return c.retryLimit }
func (c RunConfig) RetryDelay() time.Duration { return c.retryDelay }
func (c RunConfig) Selection() []string       { return slices.Clone(c.selection) }
func (c RunConfig) Canonical() []string       { return slices.Clone(c.canonical) }
func (c RunConfig) Ticket() Ticket            { return c.ticket }
func (c RunConfig) CreatedAt() time.Time      { return c.createdAt }

// Approval returns the approval policy.
func (c RunConfig) Approval() ApprovalPolicy {
	return ApprovalPolicy{Approvers: slices.Clone(c.approval.Approvers), MaxWait: c.approval.MaxWait}
}

// validate checks the fields that do not depend on the mode.
func (c RunConfig) validate() error {
	if c.registry == "" {
		return missingField("registry")
	}
	if c.concurrency < 1 {
		return invalidValue("concurrency", "must be at least 1, got %d", c.concurrency)
	}
	if c.retryLimit < 1 {
		return invalidValue("retries", "must be at least 1, got %d", c.retryLimit)
	}
	if c.retryDelay < 0 {
		return invalidValue("retry_delay", "must not be negative")
	}
	if !c.dryRun && len(c.approval.Approvers) == 0 {
		return missingField("approvers")
	}
	if !c.dryRun && c.approval.MaxWait < 0 {
		return invalidValue("approval_timeout", "must not be negative")
	}
	return nil
}
