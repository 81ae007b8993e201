package approval_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/promoter/internal/approval"
	"github.com/zjrosen/promoter/internal/promotion"
)

func TestTerminalChannel_ReadsAnswer(t *testing.T) {
	ch := approval.NewTerminalChannel(strings.NewReader("alice\t\r"), io.Discard)

	resp, err := ch.RequestApproval(context.Background(), promotion.ApprovalRequest{RunID: "run-1"})

	require.NoError(t, err)
	require.Equal(t, "alice", resp.Identity)
	require.Equal(t, promotion.DecisionProceed, resp.Decision)
}

func TestTerminalChannel_TimesOut(t *testing.T) {
	r, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })
	ch := approval.NewTerminalChannel(r, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := ch.RequestApproval(ctx, promotion.ApprovalRequest{RunID: "run-1"})

	require.ErrorIs(t, err, promotion.ErrApprovalTimedOut)
}
