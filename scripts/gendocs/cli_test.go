package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/slnlint/internal/cli"
	"github.com/leapstack-labs/slnlint/internal/validate"
)

func findCommand(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range root.Commands() {
		if c.Name() == name {
			return c
		}
	}
	require.FailNow(t, "command not found", name)
	return nil
}

func TestRenderCLIIndex(t *testing.T) {
	out := string(renderCLIIndex(cli.NewRootCmd()))

	for _, want := range []string{
		"## Checks",
		"## Fixes",
		"## Inspection",
		"## Other Commands",
		"[`trim-frameworks`](/cli/trim-frameworks)",
		"| `state_path` | `SLNLINT_STATE_PATH` | `--state` |",
		"| `solution_excludes` | `SLNLINT_SOLUTION_EXCLUDES` |  |",
		"| `2` | Interrupted by SIGINT or SIGTERM |",
	} {
		assert.Contains(t, out, want)
	}
	for _, v := range validate.GetAll() {
		assert.Contains(t, out, "["+v.ID+"](/validators/#"+v.ID+")")
	}
}

func TestRenderCommandPage(t *testing.T) {
	root := cli.NewRootCmd()

	t.Run("fix command", func(t *testing.T) {
		out := string(renderCommandPage(findCommand(t, root, "trim-frameworks")))
		assert.Contains(t, out, "slnlint trim-frameworks <sln-globs...>\n")
		assert.Contains(t, out, "Run it with `--dry-run` first")
		assert.Contains(t, out, "| `--max-passes` |")
		assert.NotContains(t, out, "when a check fails")
		assert.Contains(t, out, "```bash\nslnlint trim-frameworks \"**/*.sln\"\n")
	})

	t.Run("check command", func(t *testing.T) {
		out := string(renderCommandPage(findCommand(t, root, "validate-solutions")))
		assert.Contains(t, out, "Exits with `1` when a check fails.")
		assert.NotContains(t, out, "--dry-run")
	})
}

func TestWriteParagraphs(t *testing.T) {
	w := NewMarkdownWriter()
	writeParagraphs(w, `First line
continues here.

Bash:
  $ source <(slnlint completion bash)
  $ slnlint completion bash > /etc/bash_completion.d/slnlint
Done.`)

	assert.Equal(t, "First line continues here.\n\n"+
		"Bash:\n\n"+
		"```bash\n$ source <(slnlint completion bash)\n$ slnlint completion bash > /etc/bash_completion.d/slnlint\n```\n\n"+
		"Done.\n\n", string(w.Bytes()))
}
