package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/slnlint/internal/cli/output"
	"github.com/leapstack-labs/slnlint/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show previous runs",
		Long: `List recorded runs, newest first, or show the steps of a single run.

Runs are recorded in the state database unless --no-history is set.`,
		Example: `  slnlint history
  slnlint history --limit 5 -o json
  slnlint history 3f2c9a4e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of runs to list (default from config)")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string, opts *HistoryOptions) error {
	cmdCtx := NewCommandContextWithoutHistory(cmd)
	if cmdCtx.Cfg.NoHistory {
		return errors.New("run history is disabled")
	}

	store, err := openHistory(cmd.Context(), cmdCtx.Cfg.StatePath, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if len(args) == 1 {
		run, err := store.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return renderRun(cmdCtx.Renderer, run)
	}

	limit := opts.Limit
	if limit == 0 {
		limit = cmdCtx.Cfg.HistoryLimit
	}
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return renderRuns(cmdCtx.Renderer, runs)
}

func renderRuns(r *output.Renderer, runs []state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []state.Run{}
		}
		return r.JSON(runs)
	}

	r.Header(2, "Run History")
	if len(runs) == 0 {
		r.Muted("no runs recorded")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Command,
			run.Solution,
			string(run.Status),
			output.FormatDuration(run.Duration()),
		})
	}
	r.Table([]string{"ID", "Started", "Command", "Target", "Status", "Duration"}, rows)
	return nil
}

func renderRun(r *output.Renderer, run *state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(run)
	}

	r.Header(2, "Run "+run.ID)
	r.Println(output.FormatKeyValue("Command", run.Command))
	r.Println(output.FormatKeyValue("Target", run.Solution))
	r.Println(output.FormatKeyValue("Status", string(run.Status)))
	r.Println(output.FormatKeyValue("Started", run.StartedAt.Local().Format("2006-01-02 15:04:05")))
	r.Println(output.FormatKeyValue("Duration", output.FormatDuration(run.Duration())))
	if run.Error != "" {
		r.Println(output.FormatKeyValue("Error", run.Error))
	}

	if len(run.Results) == 0 {
		return nil
	}
	r.Println("")
	r.Header(3, "Steps")
	for _, res := range run.Results {
		detail := output.FormatDuration(res.Duration)
		if res.Diagnostics > 0 {
			detail = fmt.Sprintf("%s, %d issue(s)", detail, res.Diagnostics)
		}
		if res.Error != "" {
			detail = res.Error
		}
		r.StatusLine(res.Step, statusWord(res.Passed), detail)
	}
	return nil
}
