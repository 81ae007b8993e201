package approval

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/promoter/internal/log"
	"github.com/zjrosen/promoter/internal/promotion"
)

// TerminalChannel prompts on the controlling terminal.
type TerminalChannel struct {
	in  io.Reader
	out io.Writer
}

// NewTerminalChannel creates a prompt reading from in and drawing to out.
// Nil values use the process stdin and stdout.
func NewTerminalChannel(in io.Reader, out io.Writer) *TerminalChannel {
	return &TerminalChannel{in: in, out: out}
}

// RequestApproval shows the prompt until the operator answers or ctx ends.
func (c *TerminalChannel) RequestApproval(ctx context.Context, req promotion.ApprovalRequest) (promotion.ApprovalResponse, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.in != nil {
		opts = append(opts, tea.WithInput(c.in))
	}
	if c.out != nil {
		opts = append(opts, tea.WithOutput(c.out))
	}

	log.Debug(log.CatGate, "Opening approval prompt", "run", req.RunID)
	final, err := tea.NewProgram(newPromptModel(req), opts...).Run()
	if ctx.Err() != nil {
		return promotion.ApprovalResponse{}, waitErr(ctx)
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return promotion.ApprovalResponse{}, fmt.Errorf("running approval prompt: %w", err)
	}

	m, ok := final.(promptModel)
	if !ok || m.response == nil {
		return promotion.ApprovalResponse{}, ErrPromptCancelled
	}
	return *m.response, nil
}
