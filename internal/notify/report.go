// Package notify delivers the end-of-run report: to the terminal, a JSON
// results file, email, a CloudEvents sink and an object-store archive.
package notify

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/zjrosen/promoter/internal/metrics"
	"github.com/zjrosen/promoter/internal/promotion"
)

// Row statuses written to results files and email tables.
const (
	RowSuccess       = "SUCCESS"
	RowDryRunSuccess = "DRY_RUN_SUCCESS"
	RowFailure       = "FAILURE"
	RowSkipped       = "SKIPPED"
)

// Overall job statuses used in subjects and event types.
const (
	JobSuccess = "SUCCESS"
	JobFailure = "FAILURE"
)

// ResultRow is one artifact line of a report.
type ResultRow struct {
	Image       string `json:"image"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

// Rows flattens the task results of a report in execution order.
func Rows(report promotion.RunReport) []ResultRow {
	out := report.Outcome
	rows := make([]ResultRow, 0, len(out.Results))
	for _, r := range out.Results {
		pair := r.TagPair
		if pair.Source == "" {
			pair = out.TagPair
		}
		rows = append(rows, ResultRow{
			Image:       r.Artifact.Name,
			Source:      pair.Source,
			Destination: pair.Destination,
			Status:      rowStatus(r),
			Message:     r.Message(),
		})
	}
	return rows
}

func rowStatus(r promotion.TaskResult) string {
	switch r.Status {
	case promotion.TaskSuccess:
		if r.DryRun {
			return RowDryRunSuccess
		}
		return RowSuccess
	case promotion.TaskSkipped:
		return RowSkipped
	default:
		return RowFailure
	}
}

// JobStatus collapses the run status into SUCCESS or FAILURE.
func JobStatus(report promotion.RunReport) string {
	if report.Outcome.Status == promotion.RunSuccess {
		return JobSuccess
	}
	return JobFailure
}

// TicketLabel is the ticket id, or the last path element of the release link
// when no id was given.
func TicketLabel(t promotion.Ticket) string {
	if t.ID != "" {
		return t.ID
	}
	if t.ReleaseLink != "" {
		return path.Base(strings.TrimRight(t.ReleaseLink, "/"))
	}
	return "unknown"
}

// Subject is the one-line title used by email and archives.
func Subject(report promotion.RunReport) string {
	return fmt.Sprintf("[%s] Docker Tagging Job: %s", JobStatus(report), TicketLabel(report.Config.Ticket()))
}

// Summary is the machine-readable form of a report shared by the JSON
// notifiers.
type Summary struct {
	RunID       string             `json:"run_id"`
	Status      string             `json:"status"`
	JobStatus   string             `json:"job_status"`
	Ticket      string             `json:"ticket"`
	ReleaseLink string             `json:"release_link,omitempty"`
	JobURL      string             `json:"job_url,omitempty"`
	RequestedBy string             `json:"requested_by,omitempty"`
	Registry    string             `json:"registry"`
	Mode        string             `json:"mode"`
	SourceTag   string             `json:"source_tag"`
	DestTag     string             `json:"dest_tag"`
	DryRun      bool               `json:"dry_run"`
	Gate        string             `json:"gate"`
	Approver    string             `json:"approver,omitempty"`
	Error       string             `json:"error,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Metrics     metrics.RunSummary `json:"metrics"`
	Results     []ResultRow        `json:"results"`
}

// Summarize builds the Summary of report.
func Summarize(report promotion.RunReport) Summary {
	out, cfg := report.Outcome, report.Config
	ticket := cfg.Ticket()
	s := Summary{
		RunID:       out.RunID,
		Status:      string(out.Status),
		JobStatus:   JobStatus(report),
		Ticket:      TicketLabel(ticket),
		ReleaseLink: ticket.ReleaseLink,
		JobURL:      ticket.JobURL,
		RequestedBy: ticket.RequestedBy,
		Registry:    cfg.Registry(),
		Mode:        promotion.DescribeMode(cfg.Mode()),
		SourceTag:   out.TagPair.Source,
		DestTag:     out.TagPair.Destination,
		DryRun:      cfg.DryRun(),
		Gate:        out.Gate.State.String(),
		Approver:    out.Gate.Identity,
		StartedAt:   out.StartedAt,
		FinishedAt:  out.FinishedAt,
		Metrics:     metrics.Summarize(out),
		Results:     Rows(report),
	}
	if s.RunID == "" {
		s.RunID = cfg.RunID()
	}
	if out.Err != nil {
		s.Error = out.Err.Error()
	}
	return s
}
