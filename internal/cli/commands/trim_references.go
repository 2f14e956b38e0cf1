package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/slnlint/internal/cli/output"
	"github.com/leapstack-labs/slnlint/internal/fix"
	"github.com/leapstack-labs/slnlint/internal/graph"
	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/state"
)

// TrimReferencesOptions holds options for the trim-references command.
type TrimReferencesOptions struct {
	DryRun bool
}

// NewTrimReferencesCommand creates the trim-references command.
func NewTrimReferencesCommand() *cobra.Command {
	opts := &TrimReferencesOptions{}
	cmd := &cobra.Command{
		Use:   "trim-references <projects...>",
		Short: "Remove project references that are already implied transitively",
		Long: `Remove every direct project reference that is also reachable through
another reference of the same project.

The command refuses to run while any project in the graph fails to load.`,
		Example: `  slnlint trim-references App.sln
  slnlint trim-references "src/**/*.csproj" --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrimReferences(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report the changes without writing project files")
	return cmd
}

func runTrimReferences(cmd *cobra.Command, args []string, opts *TrimReferencesOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	started := time.Now().UTC()
	changes, err := trimReferences(cmdCtx, args, opts.DryRun)
	cmdCtx.record(cmd.Context(), state.Run{
		Command:   cmd.Name(),
		Solution:  joinArgs(args),
		Status:    runStatus(cmd.Context(), err == nil, err),
		StartedAt: started,
		Error:     errString(err),
		Results: []state.RunResult{{
			Step:        "trim-references",
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
	r.Header(2, "Trim References")
	renderChanges(r, changes, opts.DryRun)
	return nil
}

func trimReferences(cmdCtx *CommandContext, args []string, dryRun bool) ([]fix.Change, error) {
	paths, err := cmdCtx.resolveProjects(args)
	if err != nil {
		return nil, err
	}
	loader := project.NewLoader(cmdCtx.newStore(dryRun), cmdCtx.Logger)
	g := graph.NewBuilder(loader, cmdCtx.Logger).GenerateGraph(paths...)
	return fix.TrimReferences(g, cmdCtx.Logger)
}
