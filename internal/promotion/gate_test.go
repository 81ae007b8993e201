package promotion_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/promoter/internal/mocks"
	"github.com/zjrosen/promoter/internal/promotion"
	"github.com/zjrosen/promoter/internal/testutil"
)

func gateRequest() promotion.ApprovalRequest {
	return promotion.ApprovalRequest{
		RunID:     "run-1",
		TagPair:   promotion.TagPair{Source: "latest", Destination: "stable"},
		Approvers: []string{"alice", "Bob"},
		MaxWait:   time.Second,
	}
}

func TestApprovalGate_DryRunSkipsChannel(t *testing.T) {
	ch := mocks.NewMockApprovalChannel(t)
	gate := promotion.NewApprovalGate(ch)

	d, err := gate.Decide(context.Background(), gateRequest(), true)
	require.NoError(t, err)
	require.True(t, d.Approved())
	require.False(t, d.Required)
	require.Equal(t, promotion.GateApproved, gate.State())
}

func TestApprovalGate_Decisions(t *testing.T) {
	tests := []struct {
		name     string
		resp     promotion.ApprovalResponse
		err      error
		want     promotion.GateState
		wantErr  error
		identity string
	}{
		{name: "proceed", resp: promotion.ApprovalResponse{Identity: "alice", Decision: promotion.DecisionProceed}, want: promotion.GateApproved, identity: "alice"},
		{name: "proceed case-insensitive", resp: promotion.ApprovalResponse{Identity: " BOB ", Decision: "proceed"}, want: promotion.GateApproved, identity: "BOB"},
		{name: "abort", resp: promotion.ApprovalResponse{Identity: "alice", Decision: promotion.DecisionAbort}, want: promotion.GateRejected, identity: "alice"},
		{name: "unauthorized", resp: promotion.ApprovalResponse{Identity: "mallory", Decision: promotion.DecisionProceed}, want: promotion.GateRejected, wantErr: promotion.ErrUnauthorizedApprover, identity: "mallory"},
		{name: "unknown decision", resp: promotion.ApprovalResponse{Identity: "alice", Decision: "MAYBE"}, want: promotion.GateRejected, identity: "alice"},
		{name: "channel timeout", err: promotion.ErrApprovalTimedOut, want: promotion.GateTimedOut, wantErr: promotion.ErrApprovalTimedOut},
		{name: "channel failure", err: errors.New("tty closed"), want: promotion.GateRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := mocks.NewMockApprovalChannel(t)
			ch.EXPECT().RequestApproval(mock.Anything, mock.Anything).Return(tt.resp, tt.err).Once()
			gate := promotion.NewApprovalGate(ch)

			d, err := gate.Decide(context.Background(), gateRequest(), false)
			require.NoError(t, err)
			require.Equal(t, tt.want, d.State)
			require.Equal(t, tt.want, gate.State())
			require.True(t, d.Required)
			require.Equal(t, tt.identity, d.Identity)
			if tt.wantErr != nil {
				require.ErrorIs(t, d.Err, tt.wantErr)
			}
			if tt.want != promotion.GateApproved {
				var gerr *promotion.GateError
				require.ErrorAs(t, d.Fatal(), &gerr)
				require.Equal(t, tt.want, gerr.State)
			} else {
				require.Nil(t, d.Fatal())
			}
		})
	}
}

func TestApprovalGate_MaxWaitTimesOut(t *testing.T) {
	ch := &testutil.StaticApprovals{Block: true}
	gate := promotion.NewApprovalGate(ch)
	req := gateRequest()
	req.MaxWait = 20 * time.Millisecond

	start := time.Now()
	d, err := gate.Decide(context.Background(), req, false)
	require.NoError(t, err)
	require.Equal(t, promotion.GateTimedOut, d.State)
	require.ErrorIs(t, d.Err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestApprovalGate_NilChannelRejects(t *testing.T) {
	d, err := promotion.NewApprovalGate(nil).Decide(context.Background(), gateRequest(), false)
	require.NoError(t, err)
	require.Equal(t, promotion.GateRejected, d.State)
}

func TestApprovalGate_DecidesOnce(t *testing.T) {
	ch := testutil.Approve("alice")
	gate := promotion.NewApprovalGate(ch)

	_, err := gate.Decide(context.Background(), gateRequest(), false)
	require.NoError(t, err)

	_, err = gate.Decide(context.Background(), gateRequest(), false)
	require.ErrorIs(t, err, promotion.ErrGateClosed)
	require.Equal(t, 1, ch.Requests())
	require.Equal(t, promotion.GateApproved, gate.State())
}

func TestGateState_Terminal(t *testing.T) {
	require.False(t, promotion.GateNotRequired.Terminal())
	require.False(t, promotion.GatePending.Terminal())
	require.True(t, promotion.GateApproved.Terminal())
	require.True(t, promotion.GateRejected.Terminal())
	require.True(t, promotion.GateTimedOut.Terminal())
	require.Equal(t, "timed_out", promotion.GateTimedOut.String())
}
