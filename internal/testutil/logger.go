// Package testutil provides logging helpers for tests.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Recorder is a slog.Handler that keeps every record at or above Warn so
// tests can assert on warnings and errors.
type Recorder struct {
	mu      sync.Mutex
	records []slog.Record
}

// NewRecordingLogger returns a logger backed by a Recorder.
func NewRecordingLogger() (*slog.Logger, *Recorder) {
	r := &Recorder{}
	return slog.New(r), r
}

func (r *Recorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn
}

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec.Clone())
	return nil
}

func (r *Recorder) WithAttrs(_ []slog.Attr) slog.Handler { return r }

func (r *Recorder) WithGroup(_ string) slog.Handler { return r }

// Messages returns the recorded messages in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Message
	}
	return out
}
