// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/slnlint/internal/cli/output"
)

// Project describes a project file written by WriteProject.
type Project struct {
	Name       string
	Frameworks string // e.g. "net7.0" or "net472;net7.0"
	OutputType string
	Colour     string
	References []string // names of sibling projects under src/
}

// WriteProject writes src/<Name>/<Name>.csproj under dir and returns its path.
func WriteProject(t *testing.T, dir string, p Project) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("<Project Sdk=\"Microsoft.NET.Sdk\">\n  <PropertyGroup>\n")
	if strings.Contains(p.Frameworks, ";") {
		fmt.Fprintf(&b, "    <TargetFrameworks>%s</TargetFrameworks>\n", p.Frameworks)
	} else {
		fmt.Fprintf(&b, "    <TargetFramework>%s</TargetFramework>\n", p.Frameworks)
	}
	if p.OutputType != "" {
		fmt.Fprintf(&b, "    <OutputType>%s</OutputType>\n", p.OutputType)
	}
	if p.Colour != "" {
		fmt.Fprintf(&b, "    <Colour>%s</Colour>\n", p.Colour)
	}
	b.WriteString("  </PropertyGroup>\n")
	if len(p.References) > 0 {
		b.WriteString("  <ItemGroup>\n")
		for _, ref := range p.References {
			fmt.Fprintf(&b, "    <ProjectReference Include=\"..\\%s\\%s.csproj\" />\n", ref, ref)
		}
		b.WriteString("  </ItemGroup>\n")
	}
	b.WriteString("</Project>\n")

	path := filepath.Join(dir, "src", p.Name, p.Name+".csproj")
	WriteFile(t, path, b.String())
	return path
}

// WriteSolution writes <name>.sln under dir listing the named projects from
// src/ and returns its path.
func WriteSolution(t *testing.T, dir, name string, projects ...string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("\nMicrosoft Visual Studio Solution File, Format Version 12.00\n# Visual Studio Version 17\n")
	for i, p := range projects {
		fmt.Fprintf(&b, "Project(\"{9A19103F-16F7-4668-BE54-9A1E7A4F7556}\") = \"%s\", \"src\\%s\\%s.csproj\", \"{%08d-0000-0000-0000-000000000000}\"\nEndProject\n",
			p, p, p, i+1)
	}
	b.WriteString("Global\nEndGlobal\n")

	path := filepath.Join(dir, name+".sln")
	WriteFile(t, path, b.String())
	return path
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// ColourChart is a colour configuration where Web may depend on Core.
const ColourChart = `- name: Core
  description: Domain libraries
- name: Web
  description: Web hosts
- name: WebCore
  description: Web hosts using domain libraries
  componentColours: [Web, Core]
`

// SetupTestProject creates a temporary repository with a valid solution:
// App (Web executable) references Lib (Core), and Lib.Tests tests Lib.
// A colours.yaml holding ColourChart sits next to App.sln.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	WriteProject(t, dir, Project{Name: "Lib", Frameworks: "net7.0", Colour: "Core"})
	WriteProject(t, dir, Project{Name: "App", Frameworks: "net7.0", OutputType: "Exe", Colour: "Web", References: []string{"Lib"}})
	WriteProject(t, dir, Project{Name: "Lib.Tests", Frameworks: "net7.0", References: []string{"Lib"}})
	WriteSolution(t, dir, "App", "App", "Lib", "Lib.Tests")
	WriteFile(t, filepath.Join(dir, "colours.yaml"), ColourChart)
	return dir
}

// ReadFile returns the content of path or fails the test.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererAuto creates a new test renderer with auto mode detection.
// In tests, non-TTY defaults to markdown output.
func NewTestRendererAuto() *TestRenderer {
	return NewTestRenderer(output.ModeAuto, false)
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the combined stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains checks that the string contains the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}

// AssertNotContains checks that the string does not contain the substring.
func AssertNotContains(t *testing.T, s, unexpected string) {
	t.Helper()
	if strings.Contains(s, unexpected) {
		t.Errorf("string %q unexpectedly contains %q", s, unexpected)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and basic structure.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	// Check for balanced code fences
	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	// Check that headers have content
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}

// AssertOutputMode checks that the renderer output matches expected mode characteristics.
func AssertOutputMode(t *testing.T, tr *TestRenderer, expectedMode output.OutputMode) {
	t.Helper()

	combinedOutput := tr.Output() + tr.ErrorOutput()

	switch expectedMode {
	case output.ModeMarkdown:
		AssertNoANSI(t, combinedOutput)
		// Markdown mode should not contain ANSI codes
	case output.ModeText:
		// Text mode may contain ANSI codes if TTY
		// No specific assertion needed
	case output.ModeJSON:
		AssertNoANSI(t, combinedOutput)
		// JSON mode should not contain ANSI codes
	}
}
