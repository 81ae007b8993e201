package approval

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/promoter/internal/keys"
	"github.com/zjrosen/promoter/internal/promotion"
)

const (
	minPromptWidth   = 56
	maxListedImages  = 12
	identityMaxChars = 64
)

// field identifies which element of the prompt has focus.
type field int

const (
	fieldIdentity field = iota
	fieldProceed
	fieldAbort
)

// promptModel asks the operator for an identity and a PROCEED/ABORT answer.
type promptModel struct {
	req      promotion.ApprovalRequest
	identity textinput.Model
	keys     keys.PromptKeyMap
	help     help.Model
	focus    field
	width    int

	response  *promotion.ApprovalResponse
	cancelled bool
	errMsg    string
}

func newPromptModel(req promotion.ApprovalRequest) promptModel {
	ti := textinput.New()
	ti.Placeholder = "your approver id"
	ti.Prompt = ""
	ti.Width = minPromptWidth - 6
	ti.CharLimit = identityMaxChars
	ti.Focus()

	return promptModel{
		req:      req,
		identity: ti,
		keys:     keys.DefaultPromptKeyMap(),
		help:     help.New(),
		focus:    fieldIdentity,
	}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Next):
			m = m.nextField()
			return m, nil

		case key.Matches(msg, m.keys.Prev):
			m = m.prevField()
			return m, nil

		case key.Matches(msg, m.keys.Left):
			if m.focus == fieldAbort {
				m.focus = fieldProceed
				return m, nil
			}

		case key.Matches(msg, m.keys.Right):
			if m.focus == fieldProceed {
				m.focus = fieldAbort
				return m, nil
			}

		case key.Matches(msg, m.keys.Submit):
			switch m.focus {
			case fieldIdentity:
				m = m.nextField()
				return m, nil
			case fieldProceed:
				return m.answer(promotion.DecisionProceed)
			case fieldAbort:
				return m.answer(promotion.DecisionAbort)
			}

		case key.Matches(msg, m.keys.Cancel):
			m.cancelled = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
	}

	if m.focus == fieldIdentity {
		var cmd tea.Cmd
		m.identity, cmd = m.identity.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m promptModel) answer(d promotion.Decision) (tea.Model, tea.Cmd) {
	id := strings.TrimSpace(m.identity.Value())
	if id == "" {
		m.errMsg = "identity is required"
		m.focus = fieldIdentity
		m.identity.Focus()
		return m, nil
	}
	m.response = &promotion.ApprovalResponse{Identity: id, Decision: d}
	return m, tea.Quit
}

func (m promptModel) nextField() promptModel {
	switch m.focus {
	case fieldIdentity:
		m.identity.Blur()
		m.focus = fieldProceed
	case fieldProceed:
		m.focus = fieldAbort
	default:
		m.focus = fieldIdentity
		m.identity.Focus()
	}
	return m
}

func (m promptModel) prevField() promptModel {
	switch m.focus {
	case fieldIdentity:
		m.identity.Blur()
		m.focus = fieldAbort
	case fieldAbort:
		m.focus = fieldProceed
	default:
		m.focus = fieldIdentity
		m.identity.Focus()
	}
	return m
}

func (m promptModel) View() string {
	if m.response != nil || m.cancelled {
		return ""
	}

	width := minPromptWidth
	if m.width > 0 && m.width-4 < width {
		width = max(m.width-4, 24)
	}

	var content strings.Builder
	row := func(label, value string) {
		content.WriteString(labelStyle.Render(label))
		content.WriteString(valueStyle.Render(value))
		content.WriteString("\n")
	}
	row("Run", m.req.RunID)
	row("Ticket", m.req.Ticket.ID)
	if m.req.Ticket.RequestedBy != "" {
		row("Requested", m.req.Ticket.RequestedBy)
	}
	row("Registry", m.req.Registry)
	row("Mode", m.req.Mode)
	row("Tags", fmt.Sprintf("%s -> %s", m.req.TagPair.Source, m.req.TagPair.Destination))
	row("Images", artifactSummary(m.req.Artifacts))
	content.WriteString("\n")

	border := borderDefaultColor
	if m.focus == fieldIdentity {
		border = borderFocusColor
	}
	input := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(width - 4).
		Render(m.identity.View())
	content.WriteString(hintStyle.Render("Approver identity"))
	content.WriteString("\n")
	content.WriteString(input)
	content.WriteString("\n")

	if m.errMsg != "" {
		content.WriteString(errorStyle.Render(m.errMsg))
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(m.renderButtons())
	content.WriteString("\n\n")
	content.WriteString(m.help.View(m.keys))

	var out strings.Builder
	out.WriteString(titleStyle.Render("Approve promotion"))
	out.WriteString("\n")
	out.WriteString(dividerStyle.Render(strings.Repeat("─", width)))
	out.WriteString("\n")
	out.WriteString(lipgloss.NewStyle().Padding(1, 1).Render(content.String()))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderDefaultColor).
		Width(width).
		Render(out.String()) + "\n"
}

func (m promptModel) renderButtons() string {
	proceed := proceedButtonStyle
	if m.focus == fieldProceed {
		proceed = proceedButtonFocusedStyle
	}
	abort := abortButtonStyle
	if m.focus == fieldAbort {
		abort = abortButtonFocusedStyle
	}
	return proceed.Render("Proceed") + "  " + abort.Render("Abort")
}

func artifactSummary(artifacts []string) string {
	if len(artifacts) <= maxListedImages {
		return fmt.Sprintf("%d: %s", len(artifacts), strings.Join(artifacts, ", "))
	}
	shown := strings.Join(artifacts[:maxListedImages], ", ")
	return fmt.Sprintf("%d: %s, +%d more", len(artifacts), shown, len(artifacts)-maxListedImages)
}
