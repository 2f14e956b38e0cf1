// Package output renders command results for terminals, markdown consumers
// and machines.
//
// ModeAuto picks styled text when stdout is a terminal and markdown
// otherwise, so piping slnlint into a file or an agent yields plain,
// parseable output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// OutputMode selects how results are written.
type OutputMode string //nolint:revive // name matches the --output flag

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Mode parses a mode name. Unknown names fall back to ModeAuto.
func Mode(s string) OutputMode {
	switch OutputMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeText:
		return ModeText
	case ModeMarkdown, "md":
		return ModeMarkdown
	case ModeJSON:
		return ModeJSON
	default:
		return ModeAuto
	}
}

// Renderer writes command output in one mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	isTTY  bool
	mode   OutputMode
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	profile := termenv.Ascii
	if isTTY {
		profile = termenv.NewOutput(out).EnvColorProfile()
	}
	lr := lipgloss.NewRenderer(out)
	lr.SetColorProfile(profile)

	return &Renderer{
		out:    out,
		errOut: errOut,
		isTTY:  isTTY,
		mode:   mode,
		styles: NewStyles(lr),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// EffectiveMode resolves ModeAuto against the terminal state.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Styles returns the text styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Writer returns the stdout writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the stderr writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Println writes a line to stdout.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Printf writes formatted output to stdout.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Header writes a heading.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeText {
		style := r.styles.Header1
		if level > 1 {
			style = r.styles.Header2
		}
		r.Println(style.Render(text))
		r.Println("")
		return
	}
	r.Println(FormatHeader(level, text))
	r.Println("")
}

// Success writes a success message.
func (r *Renderer) Success(msg string) {
	r.status(r.styles.StatusSuccess.String(), r.styles.Success, msg)
}

// Warning writes a warning to stderr.
func (r *Renderer) Warning(msg string) {
	if r.EffectiveMode() == ModeText {
		_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("! "+msg))
		return
	}
	_, _ = fmt.Fprintln(r.errOut, "Warning: "+msg)
}

// Error writes an error message to stderr.
func (r *Renderer) Error(msg string) {
	if r.EffectiveMode() == ModeText {
		_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render(r.styles.StatusFailed.String()+" "+msg))
		return
	}
	_, _ = fmt.Fprintln(r.errOut, "Error: "+msg)
}

// Muted writes de-emphasised text.
func (r *Renderer) Muted(msg string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Muted.Render(msg))
		return
	}
	r.Println(msg)
}

func (r *Renderer) status(icon string, style lipgloss.Style, msg string) {
	if r.EffectiveMode() == ModeText {
		r.Println(style.Render(icon + " " + msg))
		return
	}
	r.Println(msg)
}

// StatusLine writes one item with a pass/fail marker. status is "success",
// "failed", "warning" or "skipped".
func (r *Renderer) StatusLine(name, status, detail string) {
	if r.EffectiveMode() != ModeText {
		line := fmt.Sprintf("- %s %s", markdownStatus(status), name)
		if detail != "" {
			line += ": " + detail
		}
		r.Println(line)
		return
	}

	var icon string
	switch status {
	case "success":
		icon = r.styles.StatusSuccess.String()
	case "failed":
		icon = r.styles.StatusFailed.String()
	case "warning":
		icon = r.styles.Warning.Render("!")
	default:
		icon = r.styles.Muted.Render("-")
	}
	line := fmt.Sprintf("  %s %s", icon, name)
	if detail != "" {
		line += " " + r.styles.Muted.Render(detail)
	}
	r.Println(line)
}

func markdownStatus(status string) string {
	switch status {
	case "success":
		return "[x]"
	case "failed":
		return "[ ]"
	case "warning":
		return "[!]"
	default:
		return "[-]"
	}
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table writes rows under headers: a box table in text mode, a markdown
// table otherwise.
func (r *Renderer) Table(headers []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeText {
		t.SetStyle(table.StyleLight)
		t.Render()
		return
	}
	t.RenderMarkdown()
}
