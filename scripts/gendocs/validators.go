package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/slnlint/internal/validate"
)

// generateValidatorDocs writes the validator catalogue.
func generateValidatorDocs(outDir string) error {
	log.Printf("Generating validator docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	validators := validate.GetAll()

	w := NewMarkdownWriter()
	w.Frontmatter("Validators", "Solution checks run by slnlint validate-solutions")
	w.GeneratedMarker()

	w.Header(1, "Validators")
	w.Paragraph(fmt.Sprintf("slnlint runs %s against every solution matched by %s.",
		Bold(fmt.Sprintf("%d validators", len(validators))), InlineCode("validate-solutions")))

	w.Header(2, "Selecting Validators")
	w.Paragraph("All validators run by default. Pass IDs or names to run a subset:")
	w.CodeBlock("bash", `slnlint validate-solutions "**/*.sln" --validators SV01,lean-solution`)

	w.Header(2, "Suppressing Framework Checks")
	w.Paragraph(fmt.Sprintf("Projects that set %s to %s are ignored by the test framework validator.",
		InlineCode("<SuppressFrameworkValidationFailure>"), InlineCode("true")))

	rows := make([][]string, 0, len(validators))
	for _, v := range validators {
		rows = append(rows, []string{
			fmt.Sprintf("[%s](#%s)", v.ID, v.ID),
			InlineCode(v.Name),
			cleanDescription(v.Description),
		})
	}
	w.Header(2, "Catalogue")
	w.Table([]string{"ID", "Name", "Description"}, rows)

	for _, v := range validators {
		writeValidatorDoc(w, v)
	}

	if err := os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated index.md")
	return nil
}

// writeValidatorDoc writes detailed documentation for a single validator.
func writeValidatorDoc(w *MarkdownWriter, v validate.Validator) {
	w.Line(fmt.Sprintf("### %s - %s {#%s}", v.ID, v.Name, v.ID))
	w.Newline()
	w.Paragraph(cleanDescription(v.Description))
	w.Line("---")
	w.Newline()
}
