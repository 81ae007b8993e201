package promotion

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/promoter/internal/log"
	"github.com/zjrosen/promoter/internal/pool"
	"github.com/zjrosen/promoter/internal/pubsub"
	"github.com/zjrosen/promoter/internal/tracing"
)

// RunState is the orchestrator's position in a run.
type RunState string

const (
	StateInit             RunState = "init"
	StateResolving        RunState = "resolving"
	StateGating           RunState = "gating"
	StateScheduling       RunState = "scheduling"
	StateAggregating      RunState = "aggregating"
	StateDone             RunState = "done"
	StateValidationFailed RunState = "validation_failed"
	StateAborted          RunState = "aborted"
)

// DefaultLogoutTimeout bounds the best-effort registry logout.
const DefaultLogoutTimeout = 10 * time.Second

// Orchestrator runs promotions end to end.
type Orchestrator struct {
	client        RegistryClient
	approvals     ApprovalChannel
	notifier      Notifier
	sink          LogSink
	tracer        trace.Tracer
	broker        *pubsub.Broker[RunEvent]
	logoutTimeout time.Duration

	mu    sync.RWMutex
	state RunState
	peak  int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithApprovalChannel sets the channel the approval gate asks.
func WithApprovalChannel(ch ApprovalChannel) Option {
	return func(o *Orchestrator) { o.approvals = ch }
}

// WithNotifier sets the notifier that receives the run report.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithLogSink sets the run and per-artifact log streams.
func WithLogSink(s LogSink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

// WithTracer sets the tracer for run and task spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithLogoutTimeout bounds the registry logout at the end of a run.
func WithLogoutTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.logoutTimeout = d }
}

// NewOrchestrator creates an orchestrator that promotes through client.
func NewOrchestrator(client RegistryClient, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:        client,
		sink:          NopLogSink{},
		tracer:        noop.NewTracerProvider().Tracer("noop"),
		broker:        pubsub.NewBroker[RunEvent](),
		logoutTimeout: DefaultLogoutTimeout,
		state:         StateInit,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Broker returns the broker that publishes run progress.
func (o *Orchestrator) Broker() *pubsub.Broker[RunEvent] {
	return o.broker
}

// State returns the state of the current or most recent run.
func (o *Orchestrator) State() RunState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// PeakConcurrency returns the highest number of tasks that ran at once in the
// most recent run.
func (o *Orchestrator) PeakConcurrency() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.peak
}

// Close releases the event broker.
func (o *Orchestrator) Close() {
	o.broker.Close()
}

// Execute runs one promotion. It always returns an outcome and always hands
// exactly one report to the notifier, including for runs that never start.
func (o *Orchestrator) Execute(ctx context.Context, cfg RunConfig) RunOutcome {
	out := RunOutcome{RunID: cfg.RunID(), StartedAt: time.Now()}
	o.mu.Lock()
	o.state = StateInit
	o.peak = 0
	o.mu.Unlock()

	ctx, span := o.tracer.Start(ctx, tracing.SpanRun,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(tracing.AttrRunID, cfg.RunID()),
			attribute.String(tracing.AttrRegistry, cfg.Registry()),
			attribute.Bool(tracing.AttrDryRun, cfg.DryRun()),
		),
	)
	defer span.End()

	runLog := o.sink.Run()
	runLog.Info("Run started",
		"run", cfg.RunID(),
		"registry", cfg.Registry(),
		"mode", DescribeMode(cfg.Mode()),
		"dry_run", cfg.DryRun(),
		"ticket", cfg.Ticket().ID)

	// Resolving
	o.transition(cfg.RunID(), StateResolving)
	pair, artifacts, fatal := o.resolve(cfg)
	if fatal != nil {
		out.Status = RunValidationFailed
		out.Err = fatal
		runLog.Error("Validation failed", "error", fatal)
		return o.finish(ctx, span, cfg, out, StateValidationFailed)
	}
	out.TagPair = pair
	span.SetAttributes(
		attribute.String(tracing.AttrSourceTag, pair.Source),
		attribute.String(tracing.AttrDestinationTag, pair.Destination),
		attribute.Int(tracing.AttrArtifactCount, len(artifacts)),
	)
	runLog.Info("Resolved", "source", pair.Source, "destination", pair.Destination, "artifacts", len(artifacts))

	// Gating
	o.transition(cfg.RunID(), StateGating)
	decision := o.gate(ctx, cfg, pair, artifacts)
	out.Gate = decision
	if !decision.Approved() {
		out.Status = Aggregate(nil, decision)
		out.Err = decision.Fatal()
		runLog.Error("Run aborted at approval gate", "state", decision.State, "identity", decision.Identity)
		return o.finish(ctx, span, cfg, out, StateAborted)
	}
	runLog.Info("Approval granted", "required", decision.Required, "identity", decision.Identity)

	// Scheduling
	o.transition(cfg.RunID(), StateScheduling)
	out.Results = o.schedule(ctx, cfg, pair, artifacts)

	// Aggregating
	o.transition(cfg.RunID(), StateAggregating)
	out.Status = Aggregate(out.Results, decision)
	counts := out.Counts()
	runLog.Info("Run aggregated",
		"status", out.Status,
		"succeeded", counts[TaskSuccess],
		"failed", counts[TaskFailed],
		"skipped", counts[TaskSkipped])

	return o.finish(ctx, span, cfg, out, StateDone)
}

func (o *Orchestrator) resolve(cfg RunConfig) (TagPair, []ArtifactRef, RunFatal) {
	if err := cfg.validate(); err != nil {
		return TagPair{}, nil, asFatal(err)
	}
	pair, err := Resolve(cfg.Mode())
	if err != nil {
		return TagPair{}, nil, asFatal(err)
	}
	artifacts, err := ExpandSelection(cfg.Selection(), cfg.Canonical())
	if err != nil {
		return TagPair{}, nil, asFatal(err)
	}
	return pair, artifacts, nil
}

func asFatal(err error) RunFatal {
	var fatal RunFatal
	if errors.As(err, &fatal) {
		return fatal
	}
	return &ValidationError{Kind: InvalidValue, Detail: err.Error()}
}

func (o *Orchestrator) gate(ctx context.Context, cfg RunConfig, pair TagPair, artifacts []ArtifactRef) GateDecision {
	policy := cfg.Approval()
	req := ApprovalRequest{
		RunID:     cfg.RunID(),
		Registry:  cfg.Registry(),
		Ticket:    cfg.Ticket(),
		TagPair:   pair,
		Mode:      DescribeMode(cfg.Mode()),
		Artifacts: Names(artifacts),
		Approvers: policy.Approvers,
		MaxWait:   policy.MaxWait,
	}

	// A fresh gate per run so a decision never leaks into the next run.
	decision, err := NewApprovalGate(o.approvals).Decide(ctx, req, cfg.DryRun())
	if err != nil {
		decision = GateDecision{State: GateRejected, Required: !cfg.DryRun(), Err: err, DecidedAt: time.Now()}
	}

	o.broker.Publish(pubsub.UpdatedEvent, RunEvent{
		Type:  EventGateDecided,
		RunID: cfg.RunID(),
		State: StateGating,
		Gate:  &decision,
	})
	return decision
}

func (o *Orchestrator) schedule(ctx context.Context, cfg RunConfig, pair TagPair, artifacts []ArtifactRef) []TaskResult {
	runLog := o.sink.Run()

	if err := o.client.Login(ctx, cfg.Credentials()); err != nil {
		log.ErrorErr(log.CatRegistry, "Registry login failed", err, "registry", cfg.Registry())
		runLog.Error("Registry login failed", "registry", cfg.Registry(), "error", err)
		return loginFailed(artifacts, pair, cfg.DryRun(), err)
	}
	defer o.logout(ctx, cfg)

	runner := func(ctx context.Context, a ArtifactRef) TaskResult {
		ctx, span := o.tracer.Start(ctx, tracing.SpanTask,
			trace.WithAttributes(attribute.String(tracing.AttrArtifact, a.Name)))
		defer span.End()

		task := PromotionTask{
			Artifact:   a,
			TagPair:    pair,
			DryRun:     cfg.DryRun(),
			RetryLimit: cfg.RetryLimit(),
			RetryDelay: cfg.RetryDelay(),
		}
		res := task.Run(ctx, o.client, o.sink.Artifact(a.Name))

		span.SetAttributes(
			attribute.String(tracing.AttrTaskStatus, string(res.Status)),
			attribute.Int(tracing.AttrAttempts, res.Attempts),
		)
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return res
	}

	sched := NewScheduler(func(ev pool.Event) {
		re := RunEvent{RunID: cfg.RunID(), State: StateScheduling, Artifact: ev.Key, Active: ev.Active, Queued: ev.Queued}
		switch ev.Type {
		case pool.JobStarted:
			re.Type = EventWorkerStarted
		default:
			re.Type = EventWorkerFinished
		}
		o.broker.Publish(pubsub.UpdatedEvent, re)
	})
	results := sched.RunAll(ctx, artifacts, runner, cfg.Concurrency())

	o.mu.Lock()
	o.peak = sched.Peak()
	o.mu.Unlock()

	for i := range results {
		if results[i].TagPair == (TagPair{}) {
			results[i].TagPair = pair
		}
		results[i].DryRun = cfg.DryRun()
		r := results[i]
		runLog.Info("Artifact finished",
			"artifact", r.Artifact.Name,
			"status", r.Status,
			"attempts", r.Attempts,
			"message", r.Message())
		o.broker.Publish(pubsub.UpdatedEvent, RunEvent{
			Type:     EventTaskFinished,
			RunID:    cfg.RunID(),
			State:    StateScheduling,
			Artifact: r.Artifact.Name,
			Result:   &r,
		})
	}
	return results
}

func loginFailed(artifacts []ArtifactRef, pair TagPair, dryRun bool, err error) []TaskResult {
	now := time.Now()
	cause := err
	if ClassOf(err) != ClassPermanent {
		cause = Permanent(string(StepLogin), err)
	}
	results := make([]TaskResult, len(artifacts))
	for i, a := range artifacts {
		results[i] = TaskResult{
			Artifact:   a,
			TagPair:    pair,
			Status:     TaskFailed,
			Err:        &TaskError{Step: StepLogin, Class: ClassPermanent, Attempts: 1, Err: cause},
			DryRun:     dryRun,
			StartedAt:  now,
			FinishedAt: now,
		}
	}
	return results
}

// logout never blocks run completion for longer than logoutTimeout and its
// failure does not affect the outcome.
func (o *Orchestrator) logout(ctx context.Context, cfg RunConfig) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.logoutTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- o.client.Logout(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			log.Warn(log.CatRegistry, "Registry logout failed", "registry", cfg.Registry(), "error", err)
		}
	case <-ctx.Done():
		log.Warn(log.CatRegistry, "Registry logout timed out", "registry", cfg.Registry())
	}
}

func (o *Orchestrator) finish(ctx context.Context, span trace.Span, cfg RunConfig, out RunOutcome, state RunState) RunOutcome {
	o.transition(cfg.RunID(), state)
	out.State = state
	out.FinishedAt = time.Now()

	span.SetAttributes(attribute.String(tracing.AttrRunStatus, string(out.Status)))
	if out.Status == RunSuccess {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, string(out.Status))
	}
	if out.Err != nil {
		span.RecordError(out.Err)
	}

	o.sink.Run().Info("Run finished", "status", out.Status, "duration", out.FinishedAt.Sub(out.StartedAt))
	log.Info(log.CatRun, "Run finished", "run", cfg.RunID(), "status", out.Status, "state", state)

	if o.notifier != nil {
		// The run is over; a cancelled parent must not suppress the report.
		nctx := context.WithoutCancel(ctx)
		if err := o.notifier.Notify(nctx, RunReport{Outcome: out, Config: cfg}); err != nil {
			log.ErrorErr(log.CatNotify, "Notifier failed", err, "run", cfg.RunID())
		}
	}
	return out
}

func (o *Orchestrator) transition(runID string, to RunState) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()

	log.Debug(log.CatRun, "State transition", "run", runID, "from", from, "to", to)
	o.broker.Publish(pubsub.UpdatedEvent, RunEvent{Type: EventStateChanged, RunID: runID, State: to})
}
