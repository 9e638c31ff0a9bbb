package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runColumns = "id, started_at, finished_at, outcome, items, created, updated, auto_approved, below_threshold, skipped, failures, error_message"

// StartRun records a run as running.
func (s *Store) StartRun(ctx context.Context, id string, startedAt time.Time) error {
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, started_at, outcome) VALUES (?, ?, ?)`,
		id, formatTime(startedAt), RunRunning,
	); err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// FinishRun stores the terminal outcome and counters of a run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	finished := run.FinishedAt
	if finished == nil {
		t := time.Now().UTC()
		finished = &t
	}
	if _, err := s.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, outcome = ?, items = ?, created = ?, updated = ?,
             auto_approved = ?, below_threshold = ?, skipped = ?, failures = ?, error_message = ?
         WHERE id = ?`,
		nullableTime(finished), run.Outcome, run.Items, run.Created, run.Updated,
		run.AutoApproved, run.BelowThreshold, run.Skipped, run.Failures, nullableString(run.ErrorMessage),
		run.ID,
	); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// ResetInterruptedRuns marks runs left in the running state by a previous
// process as interrupted.
func (s *Store) ResetInterruptedRuns(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET outcome = ?, finished_at = ?, error_message = 'process exited before the run finished'
         WHERE outcome = ?`,
		RunInterrupted, now(), RunRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("reset interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LastRun returns the most recently started run, or nil when none exist.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last run: %w", err)
	}
	return &run, nil
}

// RecordDiagnostics appends diagnostics for a run. It is independent of
// Commit so failures are kept even when the run's changeset is discarded.
func (s *Store) RecordDiagnostics(ctx context.Context, runID string, diagnostics []Diagnostic) error {
	if len(diagnostics) == 0 {
		return nil
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		timestamp := now()
		for _, d := range diagnostics {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_diagnostics (run_id, item_id, kind, message, created_at) VALUES (?, ?, ?, ?, ?)`,
				runID, nullableString(d.ItemID), d.Kind, nullableString(d.Message), timestamp,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record diagnostics: %w", err)
	}
	return nil
}

// ListDiagnostics returns the diagnostics recorded for a run in insert order.
func (s *Store) ListDiagnostics(ctx context.Context, runID string) ([]Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, item_id, kind, message, created_at FROM run_diagnostics WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	defer rows.Close()

	var out []Diagnostic
	for rows.Next() {
		var (
			d       Diagnostic
			itemID  sql.NullString
			message sql.NullString
			created sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.RunID, &itemID, &d.Kind, &message, &created); err != nil {
			return nil, err
		}
		d.ItemID = itemID.String
		d.Message = message.String
		if t, err := parseTimeString(created.String); err == nil {
			d.CreatedAt = t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanRun(scanner rowScanner) (Run, error) {
	var (
		run         Run
		startedRaw  string
		finishedRaw sql.NullString
		outcome     string
		errorMsg    sql.NullString
	)
	if err := scanner.Scan(
		&run.ID, &startedRaw, &finishedRaw, &outcome,
		&run.Items, &run.Created, &run.Updated, &run.AutoApproved,
		&run.BelowThreshold, &run.Skipped, &run.Failures, &errorMsg,
	); err != nil {
		return Run{}, err
	}
	if t, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = t
	}
	run.FinishedAt = parseNullTime(finishedRaw)
	run.Outcome = RunOutcome(outcome)
	run.ErrorMessage = errorMsg.String
	return run, nil
}
