package presentation

import (
	"time"

	"github.com/zjrosen/promoter/internal/approval"
	"github.com/zjrosen/promoter/internal/history"
)

// RunDTO represents one recorded run for presentation
type RunDTO struct {
	RunID      string    `json:"run_id"`
	Status     string    `json:"status"`
	Ticket     string    `json:"ticket"`
	Registry   string    `json:"registry"`
	Mode       string    `json:"mode"`
	SourceTag  string    `json:"source_tag"`
	DestTag    string    `json:"dest_tag"`
	DryRun     bool      `json:"dry_run"`
	Gate       string    `json:"gate"`
	Approver   string    `json:"approver,omitempty"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Duration   string    `json:"duration"`
}

// ArtifactDTO represents one artifact result of a recorded run
type ArtifactDTO struct {
	Artifact   string `json:"artifact"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	Step       string `json:"step,omitempty"`
	ErrorClass string `json:"error_class,omitempty"`
	Message    string `json:"message"`
	Duration   string `json:"duration,omitempty"`
}

// RunDetailDTO is a run with its artifact results
type RunDetailDTO struct {
	RunDTO
	ReleaseLink string        `json:"release_link,omitempty"`
	JobURL      string        `json:"job_url,omitempty"`
	RequestedBy string        `json:"requested_by,omitempty"`
	Artifacts   []ArtifactDTO `json:"artifacts"`
}

// PendingDTO represents an approval request waiting for a decision
type PendingDTO struct {
	RunID     string    `json:"run_id"`
	Ticket    string    `json:"ticket"`
	Registry  string    `json:"registry"`
	Tags      string    `json:"tags"`
	Artifacts []string  `json:"artifacts"`
	Approvers []string  `json:"approvers"`
	Deadline  time.Time `json:"deadline,omitzero"`
}

// FromRunRecord converts a history row to a DTO.
func FromRunRecord(r history.RunRecord) RunDTO {
	return RunDTO{
		RunID:      r.RunID,
		Status:     string(r.Status),
		Ticket:     r.Ticket,
		Registry:   r.Registry,
		Mode:       r.Mode,
		SourceTag:  r.SourceTag,
		DestTag:    r.DestTag,
		DryRun:     r.DryRun,
		Gate:       r.GateState,
		Approver:   r.Approver,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Skipped:    r.Skipped,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Duration:   r.Duration().Round(time.Millisecond).String(),
	}
}

// FromRunRecords converts history rows to DTOs.
func FromRunRecords(records []history.RunRecord) []RunDTO {
	dtos := make([]RunDTO, len(records))
	for i, r := range records {
		dtos[i] = FromRunRecord(r)
	}
	return dtos
}

// FromArtifactRecord converts an artifact result row to a DTO.
func FromArtifactRecord(a history.ArtifactRecord) ArtifactDTO {
	dto := ArtifactDTO{
		Artifact:   a.Artifact,
		Status:     string(a.Status),
		Attempts:   a.Attempts,
		Step:       a.Step,
		ErrorClass: a.ErrorClass,
		Message:    a.Message,
	}
	if !a.StartedAt.IsZero() && !a.FinishedAt.IsZero() {
		dto.Duration = a.FinishedAt.Sub(a.StartedAt).Round(time.Millisecond).String()
	}
	return dto
}

// FromRunDetail converts a run and its artifact rows.
func FromRunDetail(r history.RunRecord, arts []history.ArtifactRecord) RunDetailDTO {
	dto := RunDetailDTO{
		RunDTO:      FromRunRecord(r),
		ReleaseLink: r.ReleaseLink,
		JobURL:      r.JobURL,
		RequestedBy: r.RequestedBy,
		Artifacts:   make([]ArtifactDTO, len(arts)),
	}
	for i, a := range arts {
		dto.Artifacts[i] = FromArtifactRecord(a)
	}
	return dto
}

// FromPendingRequests converts approval request files.
func FromPendingRequests(reqs []approval.RequestFile) []PendingDTO {
	dtos := make([]PendingDTO, len(reqs))
	for i, r := range reqs {
		dtos[i] = PendingDTO{
			RunID:     r.RunID,
			Ticket:    r.Ticket,
			Registry:  r.Registry,
			Tags:      r.SourceTag + " -> " + r.DestTag,
			Artifacts: r.Artifacts,
			Approvers: r.Approvers,
			Deadline:  r.Deadline,
		}
	}
	return dtos
}
