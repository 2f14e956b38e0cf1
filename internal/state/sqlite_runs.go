package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RecordRun stores run and its results in one transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) (string, error) {
	if s.db == nil {
		return "", errNotOpened
	}
	if run.ID == "" {
		run.ID = generateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	s.logger.Debug("recording run", slog.String("id", run.ID), slog.String("command", run.Command),
		slog.String("solution", run.Solution), slog.String("status", string(run.Status)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var finished sql.NullString
	if !run.FinishedAt.IsZero() {
		finished = sql.NullString{String: run.FinishedAt.UTC().Format(timeLayout), Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, command, solution, status, started_at, finished_at, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Solution, string(run.Status),
		run.StartedAt.UTC().Format(timeLayout), finished, nullString(run.Error),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for i, r := range run.Results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_results (run_id, position, step, passed, duration_ns, diagnostics, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, r.Step, r.Passed, int64(r.Duration), r.Diagnostics, nullString(r.Error),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert result %s: %w", r.Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, solution, status, started_at, finished_at, error
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun retrieves a run and its results by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, command, solution, status, started_at, finished_at, error FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT step, passed, duration_ns, diagnostics, error FROM run_results WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r RunResult
		var duration int64
		var errMsg sql.NullString
		if err := rows.Scan(&r.Step, &r.Passed, &duration, &r.Diagnostics, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run result: %w", err)
		}
		r.Duration = time.Duration(duration)
		r.Error = errMsg.String
		run.Results = append(run.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run results: %w", err)
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var status, started string
	var finished, errMsg sql.NullString
	if err := row.Scan(&run.ID, &run.Command, &run.Solution, &status, &started, &finished, &errMsg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Status = RunStatus(status)
	run.Error = errMsg.String

	var err error
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return run, fmt.Errorf("run %s has a bad start time: %w", run.ID, err)
	}
	if finished.Valid {
		if run.FinishedAt, err = time.Parse(timeLayout, finished.String); err != nil {
			return run, fmt.Errorf("run %s has a bad finish time: %w", run.ID, err)
		}
	}
	return run, nil
}
