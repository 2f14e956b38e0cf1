package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/slnlint/internal/cli/output"
	intconfig "github.com/leapstack-labs/slnlint/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a slnlint configuration",
		Long: `Create a slnlint.yaml configuration and a starter colours.yaml chart.

This creates:
  - slnlint.yaml with the default settings
  - colours.yaml with an example architecture colour chart
  - .gitignore entry for the run history database`,
		Example: `  # Initialize in the current directory
  slnlint init

  # Initialize next to a solution elsewhere
  slnlint init ../my-repo

  # Overwrite an existing configuration
  slnlint init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := NewCommandContextWithoutHistory(cmd).Renderer
			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, intconfig.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", intconfig.ConfigFileName)
	}

	written, err := copyTemplate("default", dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"directory": dir, "files": written})
	}

	for _, f := range written {
		r.StatusLine(f, "success", "")
	}
	r.Println("")
	r.Success("slnlint initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Declare <Colour> properties in your project files")
	r.Println("  2. Run 'slnlint validate-solutions \"**/*.sln\"'")
	r.Println("  3. Run 'slnlint generate-graph <solution>' to draw the dependency graph")
	return nil
}
