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

// TrimFrameworksOptions holds options for the trim-frameworks command.
type TrimFrameworksOptions struct {
	DryRun    bool
	MaxPasses int
}

// NewTrimFrameworksCommand creates the trim-frameworks command.
func NewTrimFrameworksCommand() *cobra.Command {
	opts := &TrimFrameworksOptions{}
	cmd := &cobra.Command{
		Use:   "trim-frameworks <sln-globs...>",
		Short: "Remove target frameworks nothing in the dependency graph uses",
		Long: `Remove every declared target framework that the combined dependency graph
of the matched solutions never builds.

The graph starts from the top-level non-test projects. Test project targets
are added for the frameworks their project under test is consumed with, and
this repeats until no test target is added. A project whose frameworks are
all unused is left untouched.

The command refuses to run while any project in the graph fails to load.`,
		Example: `  slnlint trim-frameworks "**/*.sln"
  slnlint trim-frameworks App.sln Tools.sln --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrimFrameworks(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report the changes without writing project files")
	cmd.Flags().IntVar(&opts.MaxPasses, "max-passes", 0, "Give up when test targets are still being added after this many passes (0 derives it from the test projects)")
	return cmd
}

func runTrimFrameworks(cmd *cobra.Command, args []string, opts *TrimFrameworksOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	started := time.Now().UTC()
	changes, err := trimFrameworks(cmdCtx, args, opts)
	cmdCtx.record(cmd.Context(), state.Run{
		Command:   cmd.Name(),
		Solution:  joinArgs(args),
		Status:    runStatus(cmd.Context(), err == nil, err),
		StartedAt: started,
		Error:     errString(err),
		Results: []state.RunResult{{
			Step:        "trim-frameworks",
			Passed:      err == nil,
			Duration:    time.Since(started),
			Diagnostics: len(changes),
			Error:       errString(err),
		}},
	})
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(fixResult{Solution: joinArgs(args), DryRun: opts.DryRun, Report: fix.Report{Changes: changes}})
	}
	r.Header(2, "Trim Frameworks")
	renderChanges(r, changes, opts.DryRun)
	return nil
}

func trimFrameworks(cmdCtx *CommandContext, args []string, opts *TrimFrameworksOptions) ([]fix.Change, error) {
	solutions, err := solution.Load(args, cmdCtx.Cfg.SolutionExcludes, cmdCtx.Logger)
	if err != nil {
		return nil, err
	}
	if len(solutions) == 0 {
		return nil, fmt.Errorf("no solutions matched %s", strings.Join(args, ", "))
	}

	seen := make(map[project.Path]bool)
	var paths []project.Path
	for _, sln := range solutions {
		for _, p := range sln.ProjectPaths() {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	cmdCtx.Logger.Info("trimming target frameworks", "solutions", len(solutions), "projects", len(paths))

	loader := project.NewLoader(cmdCtx.newStore(opts.DryRun), cmdCtx.Logger)
	trimmer := fix.NewFrameworkTrimmer(loader, graph.NewTargetBuilder(loader, cmdCtx.Logger), cmdCtx.Logger)
	trimmer.MaxPasses = opts.MaxPasses
	return trimmer.Trim(paths)
}
