package promotion_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/promoter/internal/promotion"
	"github.com/zjrosen/promoter/internal/pubsub"
	"github.com/zjrosen/promoter/internal/testutil"
	"github.com/zjrosen/promoter/internal/tracing"
)

func newOrchestrator(t *testing.T, client promotion.RegistryClient, opts ...promotion.Option) (*promotion.Orchestrator, *testutil.RecordingNotifier) {
	t.Helper()
	notifier := &testutil.RecordingNotifier{}
	o := promotion.NewOrchestrator(client, append([]promotion.Option{
		promotion.WithNotifier(notifier),
		promotion.WithLogoutTimeout(50 * time.Millisecond),
	}, opts...)...)
	t.Cleanup(o.Close)
	return o, notifier
}

func TestOrchestrator_DryRunScenario(t *testing.T) {
	fake := testutil.NewFakeRegistry()
	fake.Delay = 20 * time.Millisecond
	approvals := testutil.Approve("alice")
	o, notifier := newOrchestrator(t, fake, promotion.WithApprovalChannel(approvals))

	p := testutil.Params()
	p.DryRun = true
	p.Selection = []string{"appmw", "cardui"}
	p.Approval.Approvers = nil
	out := o.Execute(context.Background(), promotion.NewRunConfig(p))

	require.Equal(t, promotion.RunSuccess, out.Status)
	require.Equal(t, promotion.StateDone, out.State)
	require.Equal(t, promotion.TagPair{Source: "latest", Destination: "stable"}, out.TagPair)
	require.True(t, out.Gate.Approved())
	require.False(t, out.Gate.Required)
	require.Zero(t, approvals.Requests())

	require.Len(t, out.Results, 2)
	for _, r := range out.Results {
		require.Equal(t, promotion.TaskSuccess, r.Status)
		require.True(t, r.DryRun)
	}
	require.Zero(t, fake.Count("push", ""))
	require.Equal(t, 2, o.PeakConcurrency())
	require.Len(t, notifier.Reports(), 1)
}

func TestOrchestrator_PartialFailureScenario(t *testing.T) {
	fake := testutil.NewFakeRegistry().
		Script("pull", "appmw", promotion.Permanent("pull", errors.New("manifest unknown")))
	o, notifier := newOrchestrator(t, fake, promotion.WithApprovalChannel(testutil.Approve("alice")))

	p := testutil.Params()
	p.Selection = []string{"appmw", "cardui"}
	out := o.Execute(context.Background(), promotion.NewRunConfig(p))

	require.Equal(t, promotion.RunPartialFailure, out.Status)
	require.Len(t, out.Results, 2)
	counts := out.Counts()
	require.Equal(t, 1, counts[promotion.TaskFailed])
	require.Equal(t, 1, counts[promotion.TaskSuccess])
	require.Equal(t, promotion.StepPull, out.Results[0].Err.Step)
	require.Zero(t, fake.Count("tag", "appmw"))
	require.Equal(t, 1, fake.Count("push", "cardui"))
	require.Equal(t, 1, fake.Count("logout", ""))

	reports := notifier.Reports()
	require.Len(t, reports, 1)
	require.Equal(t, out.RunID, reports[0].Outcome.RunID)
}

func TestOrchestrator_ValidationFailedNotifiesOnce(t *testing.T) {
	fake := testutil.NewFakeRegistry()
	o, notifier := newOrchestrator(t, fake)

	p := testutil.Params()
	p.Selection = []string{"all", "appmw"}
	out := o.Execute(context.Background(), promotion.NewRunConfig(p))

	require.Equal(t, promotion.RunValidationFailed, out.Status)
	require.Equal(t, promotion.StateValidationFailed, out.State)
	require.Equal(t, 3, out.Status.ExitCode())
	var verr *promotion.ValidationError
	require.ErrorAs(t, out.Err, &verr)
	require.Equal(t, promotion.InvalidSelection, verr.Kind)
	require.Empty(t, out.Results)
	require.Empty(t, fake.Calls())
	require.Len(t, notifier.Reports(), 1)
}

func TestOrchestrator_ValidationChecks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*promotion.RunParams)
		field  string
	}{
		{"missing registry", func(p *promotion.RunParams) { p.Registry = " " }, "registry"},
		{"bad concurrency", func(p *promotion.RunParams) { p.Concurrency = -1 }, "concurrency"},
		{"bad retries", func(p *promotion.RunParams) { p.RetryLimit = -2 }, "retries"},
		{"no approvers", func(p *promotion.RunParams) { p.Approval.Approvers = nil }, "approvers"},
		{"missing source tag", func(p *promotion.RunParams) { p.Mode = promotion.StandardTagToLatest{} }, "source_tag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, notifier := newOrchestrator(t, testutil.NewFakeRegistry())
			p := testutil.Params()
			tt.mutate(&p)

			out := o.Execute(context.Background(), promotion.NewRunConfig(p))

			require.Equal(t, promotion.RunValidationFailed, out.Status)
			var verr *promotion.ValidationError
			require.ErrorAs(t, out.Err, &verr)
			require.Equal(t, tt.field, verr.Field)
			require.Len(t, notifier.Reports(), 1)
		})
	}
}

func TestOrchestrator_GateRejectedAborts(t *testing.T) {
	fake := testutil.NewFakeRegistry()
	o, notifier := newOrchestrator(t, fake, promotion.WithApprovalChannel(testutil.Reject("bob")))

	out := o.Execute(context.Background(), promotion.NewRunConfig(testutil.Params()))

	require.Equal(t, promotion.RunAborted, out.Status)
	require.Equal(t, promotion.StateAborted, out.State)
	require.Equal(t, promotion.GateRejected, out.Gate.State)
	require.Empty(t, out.Results)
	require.Empty(t, fake.Calls())

	var gerr *promotion.GateError
	require.ErrorAs(t, out.Err, &gerr)
	require.Len(t, notifier.Reports(), 1)
}

func TestOrchestrator_GateTimeoutAborts(t *testing.T) {
	fake := testutil.NewFakeRegistry()
	o, notifier := newOrchestrator(t, fake, promotion.WithApprovalChannel(&testutil.StaticApprovals{Block: true}))

	p := testutil.Params()
	p.Approval.MaxWait = 20 * time.Millisecond
	out := o.Execute(context.Background(), promotion.NewRunConfig(p))

	require.Equal(t, promotion.RunAborted, out.Status)
	require.Equal(t, promotion.GateTimedOut, out.Gate.State)
	require.Empty(t, fake.Calls())
	require.Len(t, notifier.Reports(), 1)
}

func TestOrchestrator_LoginFailureFailsEveryArtifact(t *testing.T) {
	fake := testutil.NewFakeRegistry()
	fake.LoginErr = errors.New("unauthorized")
	o, _ := newOrchestrator(t, fake, promotion.WithApprovalChannel(testutil.Approve("alice")))

	out := o.Execute(context.Background(), promotion.NewRunConfig(testutil.Params()))

	require.Equal(t, promotion.RunPartialFailure, out.Status)
	require.Len(t, out.Results, len(promotion.DefaultArtifacts))
	for _, r := range out.Results {
		require.Equal(t, promotion.TaskFailed, r.Status)
		require.Equal(t, promotion.StepLogin, r.Err.Step)
		require.Equal(t, promotion.ClassPermanent, r.Err.Class)
	}
	require.Zero(t, fake.Count("pull", ""))
	require.Zero(t, fake.Count("logout", ""))
}

func TestOrchestrator_LogoutIsBounded(t *testing.T) {
	fake := testutil.NewFakeRegistry()
	fake.LogoutBlock = make(chan struct{})
	defer close(fake.LogoutBlock)
	o, _ := newOrchestrator(t, fake, promotion.WithApprovalChannel(testutil.Approve("alice")))

	start := time.Now()
	out := o.Execute(context.Background(), promotion.NewRunConfig(testutil.Params()))

	require.Equal(t, promotion.RunSuccess, out.Status)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestOrchestrator_CancelledRunStillNotifies(t *testing.T) {
	fake := testutil.NewFakeRegistry()
	fake.Delay = 30 * time.Millisecond
	o, notifier := newOrchestrator(t, fake, promotion.WithApprovalChannel(testutil.Approve("alice")))

	ctx, cancel := context.WithCancel(context.Background())
	p := testutil.Params()
	p.Concurrency = 1
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	out := o.Execute(ctx, promotion.NewRunConfig(p))

	require.Equal(t, promotion.RunPartialFailure, out.Status)
	require.Equal(t, promotion.TaskSkipped, out.Results[len(out.Results)-1].Status)
	require.Len(t, notifier.Reports(), 1)
	require.NoError(t, notifier.ContextErrs()[0])
}

func TestOrchestrator_PublishesRunEvents(t *testing.T) {
	o, _ := newOrchestrator(t, testutil.NewFakeRegistry(), promotion.WithApprovalChannel(testutil.Approve("alice")))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := o.Broker().Subscribe(ctx)

	p := testutil.Params()
	p.Selection = []string{"gateway"}
	o.Execute(context.Background(), promotion.NewRunConfig(p))

	var (
		states   []promotion.RunState
		types    = map[promotion.RunEventType]int{}
		finished *promotion.TaskResult
	)
	timeout := time.After(time.Second)
	for states == nil || states[len(states)-1] != promotion.StateDone {
		select {
		case ev := <-events:
			require.Equal(t, pubsub.UpdatedEvent, ev.Type)
			types[ev.Payload.Type]++
			if ev.Payload.Type == promotion.EventStateChanged {
				states = append(states, ev.Payload.State)
			}
			if ev.Payload.Result != nil {
				finished = ev.Payload.Result
			}
		case <-timeout:
			t.Fatalf("timed out, states so far %v", states)
		}
	}

	require.Equal(t, []promotion.RunState{
		promotion.StateResolving,
		promotion.StateGating,
		promotion.StateScheduling,
		promotion.StateAggregating,
		promotion.StateDone,
	}, states)
	require.Equal(t, 1, types[promotion.EventGateDecided])
	require.Equal(t, 1, types[promotion.EventWorkerStarted])
	require.Equal(t, 1, types[promotion.EventWorkerFinished])
	require.Equal(t, 1, types[promotion.EventTaskFinished])
	require.NotNil(t, finished)
	require.Equal(t, "gateway", finished.Artifact.Name)
}

func TestOrchestrator_Spans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)).Tracer("test")
	o, _ := newOrchestrator(t, testutil.NewFakeRegistry(),
		promotion.WithApprovalChannel(testutil.Approve("alice")),
		promotion.WithTracer(tracer))

	p := testutil.Params()
	p.Selection = []string{"appmw", "cardui"}
	o.Execute(context.Background(), promotion.NewRunConfig(p))

	var runSpans, taskSpans int
	for _, s := range exporter.GetSpans() {
		switch s.Name {
		case tracing.SpanRun:
			runSpans++
		case tracing.SpanTask:
			taskSpans++
		}
	}
	require.Equal(t, 1, runSpans)
	require.Equal(t, 2, taskSpans)
}
