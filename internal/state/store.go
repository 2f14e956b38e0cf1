// Package state keeps a history of slnlint runs in SQLite.
// Each run records the command, the solution it ran against, its outcome
// and one row per validator or fix step.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned by GetRun for unknown ids.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the outcome of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusPassed    RunStatus = "passed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusError     RunStatus = "error"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is one command invocation against one solution or project set.
type Run struct {
	ID         string      `json:"id"`
	Command    string      `json:"command"`
	Solution   string      `json:"solution"`
	Status     RunStatus   `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Error      string      `json:"error,omitempty"`
	Results    []RunResult `json:"results,omitempty"`
}

// RunResult is the outcome of one validator or fix step within a run.
type RunResult struct {
	Step        string        `json:"step"`
	Passed      bool          `json:"passed"`
	Duration    time.Duration `json:"duration"`
	Diagnostics int           `json:"diagnostics"`
	Error       string        `json:"error,omitempty"`
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists run history.
type Store interface {
	// RecordRun stores run with its results and returns its id. A new id is
	// generated when run.ID is empty.
	RecordRun(ctx context.Context, run Run) (string, error)
	// ListRuns returns the most recent runs first, without their results.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	// GetRun returns a run with its results.
	GetRun(ctx context.Context, id string) (*Run, error)
	Close() error
}
