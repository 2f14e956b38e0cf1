package main

import (
	"bytes"
	"fmt"
	"strings"
)

// MarkdownWriter accumulates a markdown document.
type MarkdownWriter struct {
	buf bytes.Buffer
}

// NewMarkdownWriter returns an empty writer.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{}
}

// Frontmatter writes a YAML frontmatter block for the docs site.
func (w *MarkdownWriter) Frontmatter(title, description string) {
	w.Line("---")
	w.Line(fmt.Sprintf("title: %q", title))
	w.Line(fmt.Sprintf("description: %q", description))
	w.Line("---")
	w.Newline()
}

// GeneratedMarker notes that the page must not be edited by hand.
func (w *MarkdownWriter) GeneratedMarker() {
	w.Line("<!-- Code generated by scripts/gendocs. DO NOT EDIT. -->")
	w.Newline()
}

func (w *MarkdownWriter) Header(level int, text string) {
	w.Line(strings.Repeat("#", level) + " " + text)
	w.Newline()
}

func (w *MarkdownWriter) Paragraph(text string) {
	w.Line(strings.TrimSpace(text))
	w.Newline()
}

func (w *MarkdownWriter) CodeBlock(lang, code string) {
	w.Line("```" + lang)
	w.Line(strings.TrimRight(code, "\n"))
	w.Line("```")
	w.Newline()
}

// Table writes a pipe table. Pipes inside cells are escaped.
func (w *MarkdownWriter) Table(headers []string, rows [][]string) {
	w.Line("| " + strings.Join(headers, " | ") + " |")
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	w.Line("| " + strings.Join(sep, " | ") + " |")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		w.Line("| " + strings.Join(cells, " | ") + " |")
	}
	w.Newline()
}

func (w *MarkdownWriter) Line(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

func (w *MarkdownWriter) Newline() {
	w.buf.WriteByte('\n')
}

func (w *MarkdownWriter) Bytes() []byte {
	return w.buf.Bytes()
}

// InlineCode wraps s in backticks.
func InlineCode(s string) string {
	return "`" + s + "`"
}

func Bold(s string) string {
	return "**" + s + "**"
}

// cleanDescription collapses whitespace so text fits in one table cell.
func cleanDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
