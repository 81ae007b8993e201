package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zjrosen/promoter/internal/log"
	"github.com/zjrosen/promoter/internal/promotion"
)

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit bounds List when no limit is given.
const DefaultListLimit = 20

const runColumns = `run_id, registry, mode, source_tag, dest_tag, status, dry_run, ticket, requested_by,
	release_link, job_url, gate_state, approver, succeeded, failed, skipped, error, started_at, finished_at`

const artifactColumns = `run_id, artifact, status, attempts, step, error_class, message, started_at, finished_at`

// Store reads and writes run history. It also implements promotion.Notifier
// so a run is recorded when the orchestrator reports it.
type Store struct {
	db *DB
}

var _ promotion.Notifier = (*Store)(nil)

// NewStore creates a store on db.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Notify records the report.
func (s *Store) Notify(ctx context.Context, report promotion.RunReport) error {
	return s.Record(ctx, report)
}

// Record inserts the run and its artifact results in one transaction. Recording
// the same run id twice replaces the earlier rows.
func (s *Store) Record(ctx context.Context, report promotion.RunReport) error {
	run := toRunRecord(report)
	arts := toArtifactRecords(run.RunID, report.Outcome.Results)

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, run.RunID); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}

	var runErr sql.NullString
	if run.Error != "" {
		runErr = sql.NullString{String: run.Error, Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Registry, run.Mode, run.SourceTag, run.DestTag, string(run.Status), run.DryRun,
		run.Ticket, run.RequestedBy, run.ReleaseLink, run.JobURL, run.GateState, run.Approver,
		run.Succeeded, run.Failed, run.Skipped, runErr, toMillis(run.StartedAt), toMillis(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, a := range arts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO artifact_results (`+artifactColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.RunID, a.Artifact, string(a.Status), a.Attempts,
			nullString(a.Step), nullString(a.ErrorClass), a.Message,
			toMillis(a.StartedAt), toMillis(a.FinishedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert artifact result %s: %w", a.Artifact, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	log.Debug(log.CatHistory, "Recorded run", "run", run.RunID, "status", run.Status, "artifacts", len(arts))
	return nil
}

// List returns the most recent runs first.
func (s *Store) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns a run and its artifact results in artifact order.
func (s *Store) Get(ctx context.Context, runID string) (RunRecord, []ArtifactRecord, error) {
	run, err := scanRun(s.db.conn.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return RunRecord{}, nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+artifactColumns+` FROM artifact_results WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return RunRecord{}, nil, fmt.Errorf("failed to get artifact results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var arts []ArtifactRecord
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return RunRecord{}, nil, fmt.Errorf("failed to scan artifact result: %w", err)
		}
		arts = append(arts, a)
	}
	return run, arts, rows.Err()
}

type scanner interface{ Scan(...any) error }

func scanRun(sc scanner) (RunRecord, error) {
	var (
		r        RunRecord
		status   string
		runErr   sql.NullString
		started  int64
		finished int64
	)
	err := sc.Scan(
		&r.RunID, &r.Registry, &r.Mode, &r.SourceTag, &r.DestTag, &status, &r.DryRun,
		&r.Ticket, &r.RequestedBy, &r.ReleaseLink, &r.JobURL, &r.GateState, &r.Approver,
		&r.Succeeded, &r.Failed, &r.Skipped, &runErr, &started, &finished,
	)
	if err != nil {
		return RunRecord{}, err
	}
	r.Status = promotion.RunStatus(status)
	r.Error = runErr.String
	r.StartedAt = fromMillis(started)
	r.FinishedAt = fromMillis(finished)
	return r, nil
}

func scanArtifact(sc scanner) (ArtifactRecord, error) {
	var (
		a          ArtifactRecord
		status     string
		step       sql.NullString
		errorClass sql.NullString
		started    sql.NullInt64
		finished   sql.NullInt64
	)
	err := sc.Scan(&a.RunID, &a.Artifact, &status, &a.Attempts, &step, &errorClass, &a.Message, &started, &finished)
	if err != nil {
		return ArtifactRecord{}, err
	}
	a.Status = promotion.TaskStatus(status)
	a.Step = step.String
	a.ErrorClass = errorClass.String
	a.StartedAt = fromMillis(started.Int64)
	a.FinishedAt = fromMillis(finished.Int64)
	return a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
