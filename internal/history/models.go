package history

import (
	"time"

	"github.com/zjrosen/promoter/internal/promotion"
)

// RunRecord is one row of the runs table.
type RunRecord struct {
	RunID       string
	Registry    string
	Mode        string
	SourceTag   string
	DestTag     string
	Status      promotion.RunStatus
	DryRun      bool
	Ticket      string
	RequestedBy string
	ReleaseLink string
	JobURL      string
	GateState   string
	Approver    string
	Succeeded   int
	Failed      int
	Skipped     int
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Duration is the wall time of the run.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ArtifactRecord is one row of the artifact_results table.
type ArtifactRecord struct {
	RunID      string
	Artifact   string
	Status     promotion.TaskStatus
	Attempts   int
	Step       string
	ErrorClass string
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time
}

// toRunRecord flattens a report into a runs row.
func toRunRecord(report promotion.RunReport) RunRecord {
	out, cfg := report.Outcome, report.Config
	counts := out.Counts()
	ticket := cfg.Ticket()

	r := RunRecord{
		RunID:       out.RunID,
		Registry:    cfg.Registry(),
		Mode:        promotion.DescribeMode(cfg.Mode()),
		SourceTag:   out.TagPair.Source,
		DestTag:     out.TagPair.Destination,
		Status:      out.Status,
		DryRun:      cfg.DryRun(),
		Ticket:      ticket.ID,
		RequestedBy: ticket.RequestedBy,
		ReleaseLink: ticket.ReleaseLink,
		JobURL:      ticket.JobURL,
		GateState:   out.Gate.State.String(),
		Approver:    out.Gate.Identity,
		Succeeded:   counts[promotion.TaskSuccess],
		Failed:      counts[promotion.TaskFailed],
		Skipped:     counts[promotion.TaskSkipped],
		StartedAt:   out.StartedAt,
		FinishedAt:  out.FinishedAt,
	}
	if r.RunID == "" {
		r.RunID = cfg.RunID()
	}
	if out.Err != nil {
		r.Error = out.Err.Error()
	}
	return r
}

func toArtifactRecords(runID string, results []promotion.TaskResult) []ArtifactRecord {
	recs := make([]ArtifactRecord, len(results))
	for i, res := range results {
		rec := ArtifactRecord{
			RunID:      runID,
			Artifact:   res.Artifact.Name,
			Status:     res.Status,
			Attempts:   res.Attempts,
			Message:    res.Message(),
			StartedAt:  res.StartedAt,
			FinishedAt: res.FinishedAt,
		}
		if res.Err != nil {
			rec.Step = string(res.Err.Step)
			rec.ErrorClass = res.Err.Class.String()
		}
		recs[i] = rec
	}
	return recs
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
