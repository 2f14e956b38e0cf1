package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/slnlint/internal/cli/output"
	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/solution"
	"github.com/leapstack-labs/slnlint/internal/state"
	"github.com/leapstack-labs/slnlint/internal/validate"
)

// ValidateSolutionsOptions holds options for the validate-solutions command.
type ValidateSolutionsOptions struct {
	Validators []string // IDs or names; empty runs all
}

// NewValidateSolutionsCommand creates the validate-solutions command.
func NewValidateSolutionsCommand() *cobra.Command {
	opts := &ValidateSolutionsOptions{}
	cmd := &cobra.Command{
		Use:   "validate-solutions <sln-globs...>",
		Short: "Validate solutions against the structural rules",
		Long: `Run the solution validators against every solution matching the given globs.

Solutions whose ExtendedSolutionProperties set the ignore property are skipped.
Each solution gets its own summary; the command fails if any validator fails.`,
		Example: `  # Validate every solution below the current directory
  slnlint validate-solutions "**/*.sln"

  # Only run the framework checks
  slnlint validate-solutions App.sln --validators SV04,SV05`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateSolutions(cmd, args, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Validators, "validators", nil, "Validator IDs or names to run (default all)")
	return cmd
}

func runValidateSolutions(cmd *cobra.Command, args []string, opts *ValidateSolutionsOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	validators, err := selectValidators(opts.Validators)
	if err != nil {
		return err
	}

	solutions, err := solution.Load(args, cmdCtx.Cfg.SolutionExcludes, cmdCtx.Logger)
	if err != nil {
		return err
	}
	if len(solutions) == 0 {
		return fmt.Errorf("no solutions matched %s", strings.Join(args, ", "))
	}

	// One loader for all solutions so shared projects are read once.
	loader := project.NewLoader(project.NewFileStore(), cmdCtx.Logger)
	exclude := cmdCtx.Cfg.ExcludePattern()

	summaries := make([]validate.Summary, 0, len(solutions))
	var runErr error
	for _, sln := range solutions {
		started := time.Now().UTC()
		vc := validate.NewContext(sln, loader, exclude, cmdCtx.Logger)
		summary, err := validate.Run(cmd.Context(), vc, validators...)
		summaries = append(summaries, summary)
		cmdCtx.record(cmd.Context(), summaryRun(cmd.Context(), cmd.Name(), summary, started, err))
		if err != nil {
			runErr = err
			break
		}
	}

	if err := renderSummaries(cmdCtx.Renderer, summaries); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	for _, s := range summaries {
		if !s.Passed() {
			return ErrFailed
		}
	}
	return nil
}

func selectValidators(names []string) ([]validate.Validator, error) {
	if len(names) == 0 {
		return validate.GetAll(), nil
	}
	out := make([]validate.Validator, 0, len(names))
	for _, name := range names {
		v, ok := validate.GetByName(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown validator %q", name)
		}
		out = append(out, v)
	}
	return out, nil
}

func summaryRun(ctx context.Context, command string, s validate.Summary, started time.Time, err error) state.Run {
	run := state.Run{
		Command:   command,
		Solution:  s.Solution,
		Status:    runStatus(ctx, s.Passed(), err),
		StartedAt: started,
		Error:     errString(err),
	}
	for _, r := range s.Results {
		run.Results = append(run.Results, state.RunResult{
			Step:        r.Validator,
			Passed:      r.Passed,
			Duration:    r.Duration,
			Diagnostics: len(r.Diagnostics),
			Error:       r.Error,
		})
	}
	return run
}

func renderSummaries(r *output.Renderer, summaries []validate.Summary) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(summaries)
	}

	failed := 0
	for _, s := range summaries {
		r.Header(2, s.Solution)
		for _, res := range s.Results {
			detail := output.FormatDuration(res.Duration)
			if res.Error != "" {
				detail = res.Error
			}
			r.StatusLine(res.Validator, statusWord(res.Passed), detail)
			for _, d := range res.Diagnostics {
				r.Printf("    %s\n", d.Message)
			}
		}
		if !s.Passed() {
			failed++
		}
		r.Println("")
	}

	if failed == 0 {
		r.Success(fmt.Sprintf("%d solution(s) passed", len(summaries)))
	} else {
		r.Error(fmt.Sprintf("%d of %d solution(s) failed validation", failed, len(summaries)))
	}
	return nil
}
