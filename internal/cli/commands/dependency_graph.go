package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/slnlint/internal/cli/output"
	"github.com/leapstack-labs/slnlint/internal/colour"
	"github.com/leapstack-labs/slnlint/internal/graph"
	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/state"
)

// DependencyGraphOptions holds options for the validate-dependency-graph command.
type DependencyGraphOptions struct {
	AddMissingColours bool
}

// NewValidateDependencyGraphCommand creates the validate-dependency-graph command.
func NewValidateDependencyGraphCommand() *cobra.Command {
	opts := &DependencyGraphOptions{}
	cmd := &cobra.Command{
		Use:   "validate-dependency-graph <projects...>",
		Short: "Check that project colours are compatible with their dependencies",
		Long: `Build the dependency graph of the given projects and check every project's
colour against the colours of the projects it references.

Arguments may be project files, solution files or globs of either.`,
		Example: `  slnlint validate-dependency-graph src/App/App.csproj
  slnlint validate-dependency-graph App.sln --colours colours.yaml --add-missing-colours`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateDependencyGraph(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.AddMissingColours, "add-missing-colours", false, "Register colours projects declare but the chart lacks as new base colours")
	return cmd
}

// colourIssue is one project whose colour could not be matched.
type colourIssue struct {
	Project string `json:"project"`
	Path    string `json:"path"`
	Colour  string `json:"colour,omitempty"`
	Reason  string `json:"reason"`
}

func runValidateDependencyGraph(cmd *cobra.Command, args []string, opts *DependencyGraphOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	started := time.Now().UTC()
	issues, runErr := checkColours(cmdCtx, args, opts.AddMissingColours)

	passed := runErr == nil && len(issues) == 0
	cmdCtx.record(cmd.Context(), state.Run{
		Command:   cmd.Name(),
		Solution:  joinArgs(args),
		Status:    runStatus(cmd.Context(), passed, runErr),
		StartedAt: started,
		Error:     errString(runErr),
		Results: []state.RunResult{{
			Step:        "colours",
			Passed:      passed,
			Duration:    time.Since(started),
			Diagnostics: len(issues),
			Error:       errString(runErr),
		}},
	})
	if runErr != nil {
		return runErr
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(map[string]any{"passed": passed, "issues": issues}); err != nil {
			return err
		}
	} else {
		renderColourIssues(r, issues)
	}
	if !passed {
		return ErrFailed
	}
	return nil
}

func checkColours(cmdCtx *CommandContext, args []string, addMissing bool) ([]colourIssue, error) {
	paths, err := cmdCtx.resolveProjects(args)
	if err != nil {
		return nil, err
	}
	chart, err := cmdCtx.loadChart()
	if err != nil {
		return nil, err
	}

	loader := project.NewLoader(project.NewFileStore(), cmdCtx.Logger)
	g := graph.NewBuilder(loader, cmdCtx.Logger).GenerateGraph(paths...)
	return colourIssues(g, chart, addMissing, cmdCtx.Logger)
}

// colourIssues reports unloadable projects, or when every project loaded,
// the projects whose colour clashes with their dependencies.
func colourIssues(g *graph.ProjectGraph, chart *colour.Chart, addMissing bool, logger *slog.Logger) ([]colourIssue, error) {
	var issues []colourIssue
	for _, n := range g.InvalidNodes() {
		issues = append(issues, colourIssue{
			Project: n.Name(),
			Path:    n.Path().String(),
			Reason:  "project could not be loaded",
		})
	}
	if len(issues) > 0 {
		return issues, nil
	}

	invalid, _, err := graph.MatchColours(g, chart, addMissing, logger)
	if err != nil {
		return nil, err
	}
	for _, n := range invalid {
		issues = append(issues, colourIssue{
			Project: n.Name(),
			Path:    n.Path().String(),
			Colour:  n.Colour(),
			Reason:  "colour is incompatible with its dependencies",
		})
	}
	return issues, nil
}

func renderColourIssues(r *output.Renderer, issues []colourIssue) {
	r.Header(2, "Dependency Graph")
	if len(issues) == 0 {
		r.Success("all project colours are valid")
		return
	}
	for _, i := range issues {
		detail := i.Reason
		if i.Colour != "" {
			detail = fmt.Sprintf("%s (%s)", i.Reason, i.Colour)
		}
		r.StatusLine(i.Project, "failed", detail)
	}
	r.Println("")
	r.Error(fmt.Sprintf("%d invalid project(s)", len(issues)))
}
