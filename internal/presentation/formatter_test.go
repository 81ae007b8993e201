package presentation

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/promoter/internal/approval"
	"github.com/zjrosen/promoter/internal/history"
	"github.com/zjrosen/promoter/internal/promotion"
)

func sampleRun() history.RunRecord {
	start := time.Date(2025, 12, 6, 10, 45, 0, 0, time.UTC)
	return history.RunRecord{
		RunID:      "run-1",
		Registry:   "registry.example.com/team",
		Mode:       "latest-to-stable",
		SourceTag:  "latest",
		DestTag:    "stable",
		Status:     promotion.RunPartialFailure,
		Ticket:     "CHG-1",
		GateState:  "approved",
		Approver:   "alice",
		Succeeded:  1,
		Failed:     1,
		StartedAt:  start,
		FinishedAt: start.Add(12 * time.Second),
	}
}

func TestNewFormatter_RejectsUnknownOutput(t *testing.T) {
	_, err := NewFormatter(&bytes.Buffer{}, "yaml")
	require.ErrorContains(t, err, `unknown output format "yaml"`)
}

func TestFormatRuns_Table(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(&buf, "")
	require.NoError(t, err)

	require.NoError(t, f.FormatRuns(FromRunRecords([]history.RunRecord{sampleRun()})))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "RUN ID"))
	require.Contains(t, lines[1], "run-1")
	require.Contains(t, lines[1], "latest -> stable")
	require.Contains(t, lines[1], "partial_failure")
	require.Contains(t, lines[1], "1/1/0")
	require.Contains(t, lines[1], "12s")
}

func TestFormatRuns_Empty(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(&buf, OutputTable)
	require.NoError(t, err)

	require.NoError(t, f.FormatRuns(nil))

	require.Equal(t, "No runs recorded\n", buf.String())
}

func TestFormatRuns_JSON(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(&buf, OutputJSON)
	require.NoError(t, err)

	require.NoError(t, f.FormatRuns(FromRunRecords([]history.RunRecord{sampleRun()})))

	var got []RunDTO
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "run-1", got[0].RunID)
	require.Equal(t, "12s", got[0].Duration)
	require.Equal(t, "alice", got[0].Approver)
}

func TestFormatRun_IncludesArtifacts(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(&buf, OutputTable)
	require.NoError(t, err)

	arts := []history.ArtifactRecord{
		{Artifact: "appmw", Status: promotion.TaskSuccess, Attempts: 1, Message: "promoted"},
		{Artifact: "cardui", Status: promotion.TaskFailed, Attempts: 3, Step: "push", ErrorClass: "transient", Message: "push failed"},
	}
	require.NoError(t, f.FormatRun(FromRunDetail(sampleRun(), arts)))

	out := buf.String()
	require.Contains(t, out, "Approval:")
	require.Contains(t, out, "approved by alice")
	require.Contains(t, out, "ARTIFACT")
	require.Contains(t, out, "cardui")
	require.Contains(t, out, "push failed")
}

func TestFormatPending(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(&buf, OutputTable)
	require.NoError(t, err)

	pending := FromPendingRequests([]approval.RequestFile{{
		RunID:     "run-9",
		Ticket:    "CHG-9",
		SourceTag: "rc1",
		DestTag:   "qa",
		Artifacts: []string{"appmw", "gateway"},
		Approvers: []string{"alice"},
	}})
	require.NoError(t, f.FormatPending(pending))

	require.Contains(t, buf.String(), "rc1 -> qa")
	require.Contains(t, buf.String(), "appmw,gateway")
}

func TestFormatArtifacts(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(&buf, OutputTable)
	require.NoError(t, err)

	require.NoError(t, f.FormatArtifacts([]string{"appmw", "cardui"}))

	require.Equal(t, "appmw\ncardui\n", buf.String())
}
