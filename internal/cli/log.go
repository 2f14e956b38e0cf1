package cli

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// newLogger creates the console logger. Timestamps are formatted as
// "HH:MM:SS.ms".
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	return slog.New(handler)
}
