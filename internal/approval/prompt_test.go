package approval

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/promoter/internal/promotion"
)

func testRequest() promotion.ApprovalRequest {
	return promotion.ApprovalRequest{
		RunID:     "run-1",
		Registry:  "registry.example.com/team",
		Ticket:    promotion.Ticket{ID: "CHG-1001", RequestedBy: "carol"},
		TagPair:   promotion.TagPair{Source: "latest", Destination: "stable"},
		Mode:      "latest-to-stable",
		Artifacts: []string{"appmw", "cardui"},
		Approvers: []string{"alice"},
	}
}

func typeText(m promptModel, s string) promptModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(promptModel)
}

func press(m promptModel, k tea.KeyType) (promptModel, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(promptModel), cmd
}

func requireQuit(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	require.True(t, ok, "expected quit command")
}

func TestPrompt_StartsOnIdentity(t *testing.T) {
	m := newPromptModel(testRequest())

	require.Equal(t, fieldIdentity, m.focus)
	require.True(t, m.identity.Focused())
}

func TestPrompt_ProceedWithIdentity(t *testing.T) {
	m := typeText(newPromptModel(testRequest()), "alice")

	m, _ = press(m, tea.KeyEnter)
	require.Equal(t, fieldProceed, m.focus)

	m, cmd := press(m, tea.KeyEnter)
	requireQuit(t, cmd)
	require.NotNil(t, m.response)
	require.Equal(t, "alice", m.response.Identity)
	require.Equal(t, promotion.DecisionProceed, m.response.Decision)
}

func TestPrompt_Abort(t *testing.T) {
	m := typeText(newPromptModel(testRequest()), "alice")

	m, _ = press(m, tea.KeyTab)
	m, _ = press(m, tea.KeyRight)
	require.Equal(t, fieldAbort, m.focus)

	m, cmd := press(m, tea.KeyEnter)
	requireQuit(t, cmd)
	require.Equal(t, promotion.DecisionAbort, m.response.Decision)
}

func TestPrompt_EmptyIdentityBlocksAnswer(t *testing.T) {
	m := newPromptModel(testRequest())

	m, _ = press(m, tea.KeyTab)
	m, cmd := press(m, tea.KeyEnter)

	require.Nil(t, cmd)
	require.Nil(t, m.response)
	require.Equal(t, fieldIdentity, m.focus)
	require.Contains(t, m.View(), "identity is required")
}

func TestPrompt_EscCancels(t *testing.T) {
	m := newPromptModel(testRequest())

	m, cmd := press(m, tea.KeyEsc)

	requireQuit(t, cmd)
	require.True(t, m.cancelled)
	require.Nil(t, m.response)
	require.Empty(t, m.View())
}

func TestPrompt_FocusWraps(t *testing.T) {
	m := newPromptModel(testRequest())

	m, _ = press(m, tea.KeyShiftTab)
	require.Equal(t, fieldAbort, m.focus)
	m, _ = press(m, tea.KeyLeft)
	require.Equal(t, fieldProceed, m.focus)
	m, _ = press(m, tea.KeyTab)
	m, _ = press(m, tea.KeyTab)
	require.Equal(t, fieldIdentity, m.focus)
	require.True(t, m.identity.Focused())
}

func TestPrompt_ViewShowsRequest(t *testing.T) {
	view := newPromptModel(testRequest()).View()

	require.Contains(t, view, "Approve promotion")
	require.Contains(t, view, "CHG-1001")
	require.Contains(t, view, "latest -> stable")
	require.Contains(t, view, "appmw, cardui")
	require.Contains(t, view, "Proceed")
	require.Contains(t, view, "Abort")
	require.Contains(t, view, "cancel")
}

func TestArtifactSummary_Truncates(t *testing.T) {
	names := make([]string, maxListedImages+3)
	for i := range names {
		names[i] = "img"
	}

	got := artifactSummary(names)

	require.Contains(t, got, "+3 more")
}
