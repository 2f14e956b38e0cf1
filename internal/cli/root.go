// Package cli provides the command-line interface for slnlint.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/slnlint/internal/cli/commands"
	"github.com/leapstack-labs/slnlint/internal/cli/config"
)

var cfgFile string

// Command groups shown in help output.
const (
	GroupChecks  = "checks"
	GroupFixes   = "fixes"
	GroupInspect = "inspect"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "slnlint",
		Short: "slnlint - solution and project dependency linter",
		Long: `slnlint checks .NET solutions and the projects they reference against a set
of structural rules: every referenced project is in the solution, solutions
stay lean, target frameworks line up across references and project colours
respect the architecture layering.

It can also fix target frameworks, trim redundant references and draw the
dependency graph as Graphviz DOT.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(config.WithLogger(ctx, logger))

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./slnlint.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")
	rootCmd.PersistentFlags().String("state", "", "Path to the run history database")
	rootCmd.PersistentFlags().Bool("no-history", false, "Do not record runs")
	rootCmd.PersistentFlags().String("colours", "", "Colour configuration file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("exclude", "", "Regex of executable projects kept out of lean solutions")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputModes, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("colours", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "json", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	// Add subcommands
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupChecks, Title: "Checks:"},
		&cobra.Group{ID: GroupFixes, Title: "Fixes:"},
		&cobra.Group{ID: GroupInspect, Title: "Inspection:"},
	)
	addGroup(rootCmd, GroupChecks,
		commands.NewValidateSolutionsCommand(),
		commands.NewValidateDependencyGraphCommand(),
		commands.NewDoctorCommand(),
	)
	addGroup(rootCmd, GroupFixes,
		commands.NewFixFrameworksCommand(),
		commands.NewTrimFrameworksCommand(),
		commands.NewTrimReferencesCommand(),
	)
	addGroup(rootCmd, GroupInspect,
		commands.NewGenerateGraphCommand(),
		commands.NewValidatorsCommand(),
		commands.NewHistoryCommand(),
	)
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

func addGroup(root *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.GroupID = group
		root.AddCommand(c)
	}
}

// ExecuteContext runs the root command with ctx. Errors other than failed
// checks are printed to stderr.
func ExecuteContext(ctx context.Context) error {
	rootCmd := NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, commands.ErrFailed) {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for slnlint.

To load completions:

Bash:
  $ source <(slnlint completion bash)
  
  # To load completions for each session, execute once:
  # Linux:
  $ slnlint completion bash > /etc/bash_completion.d/slnlint
  # macOS:
  $ slnlint completion bash > $(brew --prefix)/etc/bash_completion.d/slnlint

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  
  # To load completions for each session, execute once:
  $ slnlint completion zsh > "${fpath[1]}/_slnlint"
  
  # You will need to start a new shell for this setup to take effect.

Fish:
  $ slnlint completion fish | source
  
  # To load completions for each session, execute once:
  $ slnlint completion fish > ~/.config/fish/completions/slnlint.fish

PowerShell:
  PS> slnlint completion powershell | Out-String | Invoke-Expression
  
  # To load completions for every new session, run:
  PS> slnlint completion powershell > slnlint.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
	return cmd
}
