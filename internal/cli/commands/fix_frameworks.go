package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/slnlint/internal/cli/output"
	"github.com/leapstack-labs/slnlint/internal/fix"
	"github.com/leapstack-labs/slnlint/internal/graph"
	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/solution"
	"github.com/leapstack-labs/slnlint/internal/state"
)

// FixFrameworksOptions holds options for the fix-frameworks command.
type FixFrameworksOptions struct {
	DryRun bool
}

// NewFixFrameworksCommand creates the fix-frameworks command.
func NewFixFrameworksCommand() *cobra.Command {
	opts := &FixFrameworksOptions{}
	cmd := &cobra.Command{
		Use:   "fix-frameworks <sln-globs...>",
		Short: "Add and remove target frameworks until every project target resolves",
		Long: `Rewrite the target frameworks of the projects in the matched solutions.

Frameworks that are only reachable by upgrading are declared, frameworks with
no valid project target are removed, and test projects gain the frameworks
their project under test is consumed with.

Nothing is changed while any project in a solution fails to load.`,
		Example: `  slnlint fix-frameworks "**/*.sln"
  slnlint fix-frameworks App.sln --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixFrameworks(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report the changes without writing project files")
	return cmd
}

// fixResult is the report for one solution.
type fixResult struct {
	Solution string `json:"solution"`
	DryRun   bool   `json:"dry_run"`
	fix.Report
}

func runFixFrameworks(cmd *cobra.Command, args []string, opts *FixFrameworksOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	solutions, err := solution.Load(args, cmdCtx.Cfg.SolutionExcludes, cmdCtx.Logger)
	if err != nil {
		return err
	}
	if len(solutions) == 0 {
		return fmt.Errorf("no solutions matched %s", strings.Join(args, ", "))
	}

	loader := project.NewLoader(cmdCtx.newStore(opts.DryRun), cmdCtx.Logger)
	fixer := fix.NewFrameworkFixer(loader, graph.NewTargetBuilder(loader, cmdCtx.Logger), cmdCtx.Logger)

	var results []fixResult
	var runErr error
	for _, sln := range solutions {
		if err := cmd.Context().Err(); err != nil {
			runErr = err
			break
		}

		started := time.Now().UTC()
		report, err := fixer.Fix(sln.ProjectPaths())
		results = append(results, fixResult{Solution: sln.Path, DryRun: opts.DryRun, Report: report})
		cmdCtx.record(cmd.Context(), state.Run{
			Command:   cmd.Name(),
			Solution:  sln.Path,
			Status:    runStatus(cmd.Context(), len(report.Skipped) == 0, err),
			StartedAt: started,
			Error:     errString(err),
			Results:   fixSteps(report, time.Since(started)),
		})
		if err != nil {
			runErr = fmt.Errorf("fixing %s: %w", sln.Name, err)
			break
		}
	}

	if err := renderFixResults(cmdCtx.Renderer, results); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	for _, r := range results {
		if len(r.Skipped) > 0 {
			return ErrFailed
		}
	}
	return nil
}

func fixSteps(report fix.Report, d time.Duration) []state.RunResult {
	steps := []state.RunResult{{Step: "fix-frameworks", Passed: true, Duration: d, Diagnostics: len(report.Changes)}}
	for _, s := range report.Skipped {
		steps = append(steps, state.RunResult{Step: s, Passed: false, Error: "skipped: invalid projects"})
	}
	return steps
}

func renderFixResults(r *output.Renderer, results []fixResult) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}

	for _, res := range results {
		r.Header(2, res.Solution)
		renderChanges(r, res.Changes, res.DryRun)
		for _, s := range res.Skipped {
			r.StatusLine(s, "skipped", "invalid projects in the dependency graph")
		}
		r.Println("")
	}
	return nil
}

func renderChanges(r *output.Renderer, changes []fix.Change, dryRun bool) {
	if len(changes) == 0 {
		r.Muted("no changes needed")
		return
	}
	rows := make([][]string, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, []string{c.Project, c.Action, c.Value})
	}
	r.Table([]string{"Project", "Action", "Value"}, rows)
	if dryRun {
		r.Warning(fmt.Sprintf("dry run: %d change(s) not written", len(changes)))
	} else {
		r.Success(fmt.Sprintf("%d change(s) written", len(changes)))
	}
}
