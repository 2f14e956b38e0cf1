package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/slnlint/internal/cli/config"
	"github.com/leapstack-labs/slnlint/internal/cli/output"
	"github.com/leapstack-labs/slnlint/internal/colour"
	intconfig "github.com/leapstack-labs/slnlint/internal/config"
	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/solution"
	"github.com/leapstack-labs/slnlint/internal/state"
)

// ErrFailed is returned by commands whose checks found problems. The
// details have already been rendered, so callers only set the exit code.
var ErrFailed = errors.New("checks failed")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	History  state.Store
}

// NewCommandContext creates a CommandContext with the run history store
// opened. Returns the context and a cleanup function that must be called
// (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	c := NewCommandContextWithoutHistory(cmd)
	if c.Cfg.NoHistory {
		return c, func() {}, nil
	}

	store, err := openHistory(cmd.Context(), c.Cfg.StatePath, c.Logger)
	if err != nil {
		return nil, nil, err
	}
	c.History = store
	return c, func() { _ = store.Close() }, nil
}

// NewCommandContextWithoutHistory creates a CommandContext that records
// nothing.
func NewCommandContextWithoutHistory(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

func openHistory(ctx context.Context, path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	store := state.NewSQLiteStore(logger)
	if err := store.Open(ctx, path); err != nil {
		return nil, err
	}
	return store, nil
}

// getConfig returns the current configuration, falling back to defaults
// when commands run without the root command.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		OutputFormat:     getEnvOrDefault("SLNLINT_OUTPUT", config.DefaultOutput),
		StatePath:        getEnvOrDefault("SLNLINT_STATE_PATH", config.DefaultStateFile),
		NoHistory:        os.Getenv("SLNLINT_NO_HISTORY") == "true",
		HistoryLimit:     intconfig.DefaultHistoryLimit,
		SolutionExcludes: intconfig.DefaultSolutionExcludes(),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadChart builds the colour chart, reading the configured colour file
// when there is one.
func (c *CommandContext) loadChart() (*colour.Chart, error) {
	chart := colour.NewChart(c.Logger)
	if c.Cfg.ColourChart == "" {
		return chart, nil
	}
	if err := chart.LoadFile(c.Cfg.ColourChart); err != nil {
		return nil, fmt.Errorf("loading colour chart %s: %w", c.Cfg.ColourChart, err)
	}
	return chart, nil
}

// resolveProjects expands patterns into project paths. Solution files
// contribute every project they list.
func (c *CommandContext) resolveProjects(patterns []string) ([]project.Path, error) {
	files, err := solution.Find(patterns, c.Cfg.SolutionExcludes, c.Logger)
	if err != nil {
		return nil, err
	}

	seen := make(map[project.Path]bool)
	var out []project.Path
	add := func(p project.Path) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, f := range files {
		if !strings.EqualFold(filepath.Ext(f), ".sln") {
			add(project.NewPath(f))
			continue
		}
		sln, err := solution.Read(f)
		if err != nil {
			return nil, err
		}
		for _, p := range sln.ProjectPaths() {
			add(p)
		}
	}

	c.Logger.Info("loaded project files from input files", "count", len(out))
	return out, nil
}

// newStore returns the project store, read-only for dry runs.
func (c *CommandContext) newStore(dryRun bool) project.Store {
	var store project.Store = project.NewFileStore()
	if dryRun {
		store = project.ReadOnly(store, c.Logger)
	}
	return store
}

// record stores run in the history. Failures only warn since the command
// itself has already done its work.
func (c *CommandContext) record(ctx context.Context, run state.Run) {
	if c.History == nil {
		return
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	if _, err := c.History.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		c.Logger.Warn("failed to record run history", "command", run.Command, "error", err)
	}
}

// runStatus maps a command outcome onto a history status.
func runStatus(ctx context.Context, passed bool, err error) state.RunStatus {
	switch {
	case ctx.Err() != nil:
		return state.RunStatusCancelled
	case err != nil:
		return state.RunStatusError
	case passed:
		return state.RunStatusPassed
	default:
		return state.RunStatusFailed
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func statusWord(passed bool) string {
	if passed {
		return "success"
	}
	return "failed"
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
