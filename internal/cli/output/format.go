package output

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Title title-cases a kebab-case or snake_case name: "lean-solution"
// becomes "Lean Solution".
func Title(s string) string {
	return titleCaser.String(strings.NewReplacer("-", " ", "_", " ").Replace(s))
}

// FormatHeader returns a markdown heading.
func FormatHeader(level int, text string) string {
	level = max(1, min(level, 6))
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// FormatDuration rounds d for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return "-"
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}
