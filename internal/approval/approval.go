// Package approval implements the human approval channels used by the
// promotion gate: an interactive terminal prompt and a decision file drop
// for unattended runs.
package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zjrosen/promoter/internal/promotion"
)

// Channel kinds accepted in configuration and on the command line.
const (
	ChannelTerminal = "terminal"
	ChannelFile     = "file"
)

// ErrPromptCancelled is returned when the operator closes the prompt without
// answering.
var ErrPromptCancelled = errors.New("approval prompt cancelled")

// Config selects and configures an approval channel.
type Config struct {
	Channel string `mapstructure:"channel"`
	Dir     string `mapstructure:"dir"`
}

// New builds the channel named by cfg.Channel.
func New(cfg Config) (promotion.ApprovalChannel, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Channel)) {
	case "", ChannelTerminal:
		return NewTerminalChannel(nil, nil), nil
	case ChannelFile:
		if cfg.Dir == "" {
			return nil, errors.New("approval.dir is required for the file channel")
		}
		return NewFileChannel(FileConfig{Dir: cfg.Dir}), nil
	default:
		return nil, fmt.Errorf("unknown approval channel %q", cfg.Channel)
	}
}

// waitErr maps a finished context to the error a channel should return.
func waitErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", promotion.ErrApprovalTimedOut, ctx.Err())
	}
	return ctx.Err()
}
