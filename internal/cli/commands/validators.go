package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/slnlint/internal/cli/output"
	"github.com/leapstack-labs/slnlint/internal/validate"
)

// NewValidatorsCommand creates the validators command.
func NewValidatorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validators [id-or-name]",
		Short: "List the solution validators",
		Long: `List every validator run by validate-solutions, or show a single one.

Validators can be selected by ID or name with validate-solutions --validators.`,
		Example: `  # List all validators
  slnlint validators

  # Show one validator
  slnlint validators SV03
  slnlint validators lean-solution -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := NewCommandContextWithoutHistory(cmd).Renderer
			if len(args) == 1 {
				v, ok := validate.GetByName(args[0])
				if !ok {
					return fmt.Errorf("validator %q not found", args[0])
				}
				return showValidator(r, infoOf(v))
			}
			return listValidators(r, validate.GetAll())
		},
	}
}

// validatorInfo is the printable part of a validator.
type validatorInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func infoOf(v validate.Validator) validatorInfo {
	return validatorInfo{ID: v.ID, Name: v.Name, Description: v.Description}
}

func listValidators(r *output.Renderer, validators []validate.Validator) error {
	infos := make([]validatorInfo, 0, len(validators))
	for _, v := range validators {
		infos = append(infos, infoOf(v))
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(map[string]any{"validators": infos, "count": len(infos)})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Validators"))
		r.Println("")
		for _, v := range infos {
			r.Printf("- **%s** - %s\n", v.ID, v.Name)
		}
		r.Println("")
	default:
		styles := r.Styles()
		r.Println("")
		r.Println(styles.Header1.Render(fmt.Sprintf("Validators (%d)", len(infos))))
		r.Println("")
		for _, v := range infos {
			r.Printf("  %s  %s\n", styles.Muted.Render(v.ID), v.Name)
			r.Println(styles.Muted.Render("      " + v.Description))
		}
		r.Println("")
		r.Println(styles.Muted.Render("Use 'slnlint validators <id>' for a single validator"))
		r.Println("")
	}
	return nil
}

func showValidator(r *output.Renderer, v validatorInfo) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(v)
	case output.ModeMarkdown:
		r.Printf("# %s - %s\n\n", v.ID, v.Name)
		r.Println(v.Description)
		r.Println("")
	default:
		styles := r.Styles()
		r.Println("")
		r.Println(styles.Header1.Render(fmt.Sprintf("%s - %s", v.ID, v.Name)))
		r.Println("")
		r.Println(styles.Bold.Render("Description"))
		r.Println("  " + v.Description)
		r.Println("")
	}
	return nil
}
