package notify

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/zjrosen/promoter/internal/promotion"
)

// DefaultTerminalWidth is the word wrap used when none is configured.
const DefaultTerminalWidth = 100

// Terminal prints the report to a terminal, styled when out supports color.
type Terminal struct {
	out   io.Writer
	width int
}

// NewTerminal creates a terminal notifier. width <= 0 uses
// DefaultTerminalWidth.
func NewTerminal(out io.Writer, width int) *Terminal {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	return &Terminal{out: out, width: width}
}

// Notify implements promotion.Notifier.
func (t *Terminal) Notify(_ context.Context, report promotion.RunReport) error {
	text, err := t.Render(report)
	if err != nil {
		return err
	}
	_, err = io.WriteString(t.out, text)
	return err
}

// Render returns the report as it would be printed.
func (t *Terminal) Render(report promotion.RunReport) (string, error) {
	output := termenv.NewOutput(t.out)
	plain := output.EnvColorProfile() == termenv.Ascii

	style := "notty"
	if !plain {
		style = "light"
		if output.HasDarkBackground() {
			style = "dark"
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(t.width),
	)
	if err != nil {
		return "", fmt.Errorf("creating report renderer: %w", err)
	}
	text, err := r.Render(Markdown(report))
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	if plain {
		text = ansi.Strip(text)
	}
	return text, nil
}
