package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/slnlint/internal/cli"
	"github.com/leapstack-labs/slnlint/internal/cli/config"
	"github.com/leapstack-labs/slnlint/internal/validate"
)

// generateCLIDocs writes the CLI reference: an index and one page per command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	pages := []page{{"index.md", renderCLIIndex(root)}}
	for _, cmd := range documented(root) {
		pages = append(pages, page{cmd.Name() + ".md", renderCommandPage(cmd)})
	}

	for _, p := range pages {
		if err := os.WriteFile(filepath.Join(outDir, p.name), p.content, 0600); err != nil {
			return err
		}
		log.Printf("  Generated %s", p.name)
	}
	return nil
}

type page struct {
	name    string
	content []byte
}

func documented(root *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.IsAvailableCommand() {
			out = append(out, cmd)
		}
	}
	return out
}

func renderCLIIndex(root *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", root.Short)
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	writeParagraphs(w, root.Long)
	w.CodeBlock("bash", root.Name()+" <command> [options]")

	// One section per command group, in the order the root declares them.
	commands := documented(root)
	for _, g := range root.Groups() {
		w.Header(2, strings.TrimSuffix(g.Title, ":"))
		writeCommandTable(w, commands, g.ID)
	}
	w.Header(2, "Other Commands")
	writeCommandTable(w, commands, "")

	validators := validate.GetAll()
	w.Header(2, "Validators")
	w.Paragraph(fmt.Sprintf("%s runs %d validators. See the [validator reference](/validators/) for details.",
		InlineCode("validate-solutions"), len(validators)))
	rows := make([][]string, 0, len(validators))
	for _, v := range validators {
		rows = append(rows, []string{
			fmt.Sprintf("[%s](/validators/#%s)", v.ID, v.ID),
			InlineCode(v.Name),
			cleanDescription(v.Description),
		})
	}
	w.Table([]string{"ID", "Name", "Checks"}, rows)

	w.Header(2, "Configuration")
	w.Paragraph(fmt.Sprintf("Settings are read from %s, then %s environment variables, then flags. Later sources win.",
		InlineCode("slnlint.yaml"), InlineCode("SLNLINT_")))
	rows = nil
	for _, s := range config.Settings() {
		flag := ""
		if root.PersistentFlags().Lookup(s.Flag) != nil {
			flag = InlineCode("--" + s.Flag)
		}
		rows = append(rows, []string{InlineCode(s.Key), InlineCode(s.Env), flag, s.Description})
	}
	w.Table([]string{"Key", "Environment", "Flag", "Description"}, rows)

	w.Header(2, "Exit Codes")
	rows = nil
	for _, c := range cli.ExitCodes {
		rows = append(rows, []string{InlineCode(strconv.Itoa(c.Code)), c.Meaning})
	}
	w.Table([]string{"Code", "Meaning"}, rows)

	return w.Bytes()
}

func writeCommandTable(w *MarkdownWriter, commands []*cobra.Command, group string) {
	var rows [][]string
	for _, cmd := range commands {
		if cmd.GroupID != group {
			continue
		}
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)
}

func renderCommandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		writeParagraphs(w, cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", strings.TrimSuffix(cmd.UseLine(), " [flags]"))

	if cmd.Flags().Lookup("dry-run") != nil {
		w.Paragraph(fmt.Sprintf("This command rewrites project files in place. Run it with %s first to review the changes.",
			InlineCode("--dry-run")))
	}
	if cmd.GroupID == cli.GroupChecks {
		w.Paragraph(fmt.Sprintf("Exits with %s when a check fails.", InlineCode(strconv.Itoa(cli.ExitFailure))))
	}

	if flags := cmd.LocalFlags(); flags.HasAvailableFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, flags)
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		lines := strings.Split(cmd.Example, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimPrefix(l, "  ")
		}
		w.CodeBlock("bash", strings.Join(lines, "\n"))
	}

	w.Paragraph("Global options and environment variables are listed in the [CLI reference](/cli/).")
	return w.Bytes()
}

func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		option := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			option += ", " + InlineCode("-"+f.Shorthand)
		}
		def := ""
		switch f.DefValue {
		case "", "false", "0", "[]":
		default:
			def = InlineCode(f.DefValue)
		}
		rows = append(rows, []string{option, def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Default", "Description"}, rows)
}

// writeParagraphs renders cobra help text: blank lines separate paragraphs
// and indented lines become code blocks.
func writeParagraphs(w *MarkdownWriter, text string) {
	var para, code []string
	flush := func() {
		if len(para) > 0 {
			w.Paragraph(cleanDescription(strings.Join(para, " ")))
			para = nil
		}
		if len(code) > 0 {
			w.CodeBlock("bash", strings.Join(code, "\n"))
			code = nil
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case strings.HasPrefix(line, "  "):
			if len(para) > 0 {
				flush()
			}
			code = append(code, strings.TrimPrefix(line, "  "))
		default:
			if len(code) > 0 {
				flush()
			}
			para = append(para, line)
		}
	}
	flush()
}
