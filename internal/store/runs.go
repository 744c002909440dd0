package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"internmatch-engine/internal/domain"
)

// maxRunClaimAttempts bounds the retry loop in Start. Conflicts only
// happen when two starts race for the same run number, so a handful of
// attempts is plenty.
const maxRunClaimAttempts = 5

// Sequencer assigns run numbers and tracks the started→completed|failed
// state machine for allocation executions. Run numbers are claimed by a
// conditional insert under a UNIQUE(run_no) index: a losing racer gets a
// constraint conflict and retries with a fresh number, so two concurrent
// starts can never share one.
type Sequencer struct {
	db  *sql.DB // always the primary
	log *zap.Logger
}

func NewSequencer(primary *sql.DB, log *zap.Logger) *Sequencer {
	return &Sequencer{db: primary, log: log}
}

func (s *Sequencer) Start(ctx context.Context, by string) (domain.AllocationRun, error) {
	for attempt := 0; attempt < maxRunClaimAttempts; attempt++ {
		var next int64
		if err := s.db.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(run_no), 0) + 1 FROM allocation_runs;`,
		).Scan(&next); err != nil {
			return domain.AllocationRun{}, fmt.Errorf("next run number: %w", err)
		}

		run := domain.AllocationRun{
			ID:        uuid.NewString(),
			RunNo:     next,
			Status:    domain.RunStarted,
			StartedBy: by,
			StartedAt: time.Now().UTC(),
		}

		_, err := s.db.ExecContext(ctx, `
INSERT INTO allocation_runs (id, run_no, status, started_by, started_at)
VALUES (?, ?, ?, ?, ?);`,
			run.ID, run.RunNo, string(run.Status), run.StartedBy,
			run.StartedAt.Format(time.RFC3339),
		)
		if isUniqueViolation(err) {
			s.log.Debug("run number already claimed, retrying",
				zap.Int64("runNo", next))
			continue
		}
		if err != nil {
			return domain.AllocationRun{}, fmt.Errorf("start run: %w", err)
		}
		return run, nil
	}
	return domain.AllocationRun{}, ErrRunContention
}

// Complete moves a run to its terminal success state. The run id must
// exist; a repeated call is last-write-wins, matching the audit-trail
// contract.
func (s *Sequencer) Complete(ctx context.Context, runID string, stats domain.RunStats) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE allocation_runs
SET status = ?, completed_at = ?, processed = ?, created = ?, error = ''
WHERE id = ?;`,
		string(domain.RunCompleted), time.Now().UTC().Format(time.RFC3339),
		stats.Processed, stats.Created, runID,
	)
	if err != nil {
		return fmt.Errorf("complete run %s: %w", runID, err)
	}
	return requireRun(res, runID)
}

// Fail moves a run to its terminal failure state with a message.
func (s *Sequencer) Fail(ctx context.Context, runID, message string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE allocation_runs
SET status = ?, completed_at = ?, error = ?
WHERE id = ?;`,
		string(domain.RunFailed), time.Now().UTC().Format(time.RFC3339),
		message, runID,
	)
	if err != nil {
		return fmt.Errorf("fail run %s: %w", runID, err)
	}
	return requireRun(res, runID)
}

func requireRun(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

func (s *Sequencer) Get(ctx context.Context, runID string) (domain.AllocationRun, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, run_no, status, started_by, started_at, completed_at, processed, created, error
FROM allocation_runs WHERE id = ?;`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AllocationRun{}, ErrRunNotFound
	}
	if err != nil {
		return domain.AllocationRun{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// Summary aggregates run counts and lifetime totals plus the most
// recent run. Pure read; TotalEvents is filled in by the caller from
// the events hub.
func (s *Sequencer) Summary(ctx context.Context) (domain.Summary, error) {
	var sum domain.Summary
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(status = 'started'), 0),
       COALESCE(SUM(status = 'completed'), 0),
       COALESCE(SUM(status = 'failed'), 0),
       COALESCE(SUM(processed), 0),
       COALESCE(SUM(created), 0)
FROM allocation_runs;`).Scan(
		&sum.TotalRuns, &sum.ActiveRuns, &sum.CompletedRuns,
		&sum.FailedRuns, &sum.TotalProcessed, &sum.TotalCreated,
	)
	if err != nil {
		return sum, fmt.Errorf("run summary: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM postings;`).Scan(&sum.TotalPostings); err != nil {
		return sum, fmt.Errorf("run summary postings: %w", err)
	}
	if sum.TotalStudents, err = CountStudents(ctx, s.db); err != nil {
		return sum, fmt.Errorf("run summary: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
SELECT id, run_no, status, started_by, started_at, completed_at, processed, created, error
FROM allocation_runs ORDER BY run_no DESC LIMIT 1;`)
	last, err := scanRun(row)
	if err == nil {
		sum.LastRun = &last
	} else if !errors.Is(err, sql.ErrNoRows) {
		return sum, fmt.Errorf("run summary last: %w", err)
	}

	return sum, nil
}

func scanRun(row scanner) (domain.AllocationRun, error) {
	var run domain.AllocationRun
	var status, startedAt string
	var completedAt sql.NullString
	if err := row.Scan(
		&run.ID, &run.RunNo, &status, &run.StartedBy, &startedAt,
		&completedAt, &run.Processed, &run.Created, &run.Error,
	); err != nil {
		return run, err
	}
	run.Status = domain.RunStatus(status)
	run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	if completedAt.Valid && completedAt.String != "" {
		t, err := time.Parse(time.RFC3339, completedAt.String)
		if err == nil {
			run.CompletedAt = &t
		}
	}
	return run, nil
}
