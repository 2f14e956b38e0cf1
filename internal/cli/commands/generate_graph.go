package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/slnlint/internal/cli/output"
	intconfig "github.com/leapstack-labs/slnlint/internal/config"
	"github.com/leapstack-labs/slnlint/internal/graph"
	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/render"
	"github.com/leapstack-labs/slnlint/internal/state"
)

// GenerateGraphOptions holds options for the generate-graph command.
type GenerateGraphOptions struct {
	OutputFile    string
	ExcludeLegend bool
}

// NewGenerateGraphCommand creates the generate-graph command.
func NewGenerateGraphCommand() *cobra.Command {
	opts := &GenerateGraphOptions{}
	cmd := &cobra.Command{
		Use:   "generate-graph <projects...>",
		Short: "Write the project dependency graph as Graphviz DOT",
		Long: `Build the dependency graph of the given projects and write it as a DOT file.

Nodes are styled by their resolved colour. Only required references are drawn,
so references that are already implied through another project are left out.`,
		Example: `  slnlint generate-graph App.sln
  slnlint generate-graph src/App/App.csproj --output-file app.gv --exclude-legend`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateGraph(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.OutputFile, "output-file", intconfig.DefaultGraphFile, "File to write the DOT graph to")
	cmd.Flags().BoolVar(&opts.ExcludeLegend, "exclude-legend", false, "Leave the colour legend out of the graph")
	return cmd
}

func runGenerateGraph(cmd *cobra.Command, args []string, opts *GenerateGraphOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	started := time.Now().UTC()
	nodes, err := writeGraph(cmdCtx, args, opts)
	cmdCtx.record(cmd.Context(), state.Run{
		Command:   cmd.Name(),
		Solution:  joinArgs(args),
		Status:    runStatus(cmd.Context(), err == nil, err),
		StartedAt: started,
		Error:     errString(err),
	})
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"file": opts.OutputFile, "nodes": nodes})
	}
	r.Success(fmt.Sprintf("wrote %d project(s) to %s", nodes, opts.OutputFile))
	return nil
}

func writeGraph(cmdCtx *CommandContext, args []string, opts *GenerateGraphOptions) (int, error) {
	paths, err := cmdCtx.resolveProjects(args)
	if err != nil {
		return 0, err
	}
	chart, err := cmdCtx.loadChart()
	if err != nil {
		return 0, err
	}

	loader := project.NewLoader(project.NewFileStore(), cmdCtx.Logger)
	g := graph.NewBuilder(loader, cmdCtx.Logger).GenerateGraph(paths...)

	_, colours, err := graph.MatchColours(g, chart, true, cmdCtx.Logger)
	if err != nil {
		return 0, err
	}

	if dir := filepath.Dir(opts.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(opts.OutputFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create graph file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := render.WriteDOT(f, g, colours, chart, render.Options{ExcludeLegend: opts.ExcludeLegend}); err != nil {
		return 0, fmt.Errorf("failed to write graph: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to write graph: %w", err)
	}
	cmdCtx.Logger.Info("wrote dependency graph", "file", opts.OutputFile, "nodes", g.Count())
	return g.Count(), nil
}
