// Package project loads project metadata and exposes it to the graph
// builders as immutable snapshots.
package project

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/leapstack-labs/slnlint/internal/framework"
)

// ID identifies a project within one loader session.
type ID int

// Counter hands out project IDs. Each Loader owns one, so independent loaders
// never share state.
type Counter struct {
	next ID
}

// Next returns a fresh ID.
func (c *Counter) Next() ID {
	id := c.next
	c.next++
	return id
}

// Well-known project properties.
const (
	PropOutputType        = "OutputType"
	PropColour            = "Colour"
	PropColourClashes     = "ColourClashes"
	PropTargetFramework   = "TargetFramework"
	PropTargetFrameworks  = "TargetFrameworks"
	PropSuppressFramework = "SuppressFrameworkValidationFailure"
)

// testNamePattern matches names ending in Test, Tests, Test2 and so on.
var testNamePattern = regexp.MustCompile(`(\.?)(?i)test(s?)(\d?)$`)

// IsTestProjectName reports whether name follows the test project convention.
func IsTestProjectName(name string) bool {
	return testNamePattern.MatchString(name)
}

// Metadata is the already-evaluated content of a project file.
type Metadata struct {
	Properties map[string]string
	References []Reference
}

// Reference is a ProjectReference item and the conditions guarding it.
type Reference struct {
	Include        string
	Condition      string
	GroupCondition string
}

// Details is a snapshot of one project. Only AddTargetFrameworks,
// RemoveTargetFramework and RemoveReferences change it, and callers must
// clear any graph cache built from it afterwards.
type Details struct {
	ID            ID
	Path          Path
	Name          string
	OutputType    string
	Colour        string
	ColourClashes []string
	// References holds every project reference, conditions ignored.
	References []Path
	Valid      bool

	frameworks []framework.TargetFramework
	properties map[string]string
	items      []Reference
	store      Store
	logger     *slog.Logger
}

// NewDetails builds a snapshot from metadata. It fails when a declared
// target framework cannot be parsed.
func NewDetails(id ID, p Path, md Metadata, store Store, logger *slog.Logger) (*Details, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	frameworks, err := frameworksFromProperties(md.Properties)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}

	d := &Details{
		ID:         id,
		Path:       p,
		Name:       p.Name(),
		OutputType: md.Properties[PropOutputType],
		Colour:     md.Properties[PropColour],
		frameworks: frameworks,
		properties: md.Properties,
		items:      slices.Clone(md.References),
		store:      store,
		logger:     logger,
	}
	if d.Colour == "" {
		d.Colour = "Default"
	}
	if clashes := md.Properties[PropColourClashes]; clashes != "" {
		for _, c := range strings.Split(clashes, ";") {
			if c = strings.TrimSpace(c); c != "" {
				d.ColourClashes = append(d.ColourClashes, c)
			}
		}
	}
	for _, item := range d.items {
		d.References = append(d.References, p.Resolve(item.Include))
	}

	if len(frameworks) == 0 {
		logger.Error("unable to determine target framework", "project", p.String())
	}
	d.Valid = len(frameworks) > 0

	return d, nil
}

// InvalidDetails stands in for a project that could not be loaded.
func InvalidDetails(id ID, p Path) *Details {
	return &Details{
		ID:         id,
		Path:       p,
		Name:       p.Name(),
		OutputType: "Unknown",
		Colour:     "Default",
		properties: map[string]string{},
		logger:     slog.New(slog.DiscardHandler),
	}
}

func frameworksFromProperties(props map[string]string) ([]framework.TargetFramework, error) {
	if single := strings.TrimSpace(props[PropTargetFramework]); single != "" {
		tf, err := framework.Parse(single)
		if err != nil {
			return nil, err
		}
		return []framework.TargetFramework{tf}, nil
	}
	return framework.ParseList(props[PropTargetFrameworks])
}

// TargetFrameworks returns the declared frameworks in declaration order.
func (d *Details) TargetFrameworks() []framework.TargetFramework {
	return slices.Clone(d.frameworks)
}

// DeclaresFramework reports whether tf is among the declared frameworks.
func (d *Details) DeclaresFramework(tf framework.TargetFramework) bool {
	return framework.Contains(d.frameworks, tf)
}

// Property returns a raw project property.
func (d *Details) Property(name string) string {
	return d.properties[name]
}

// IsTestProject reports whether the project name follows the test convention.
func (d *Details) IsTestProject() bool {
	return IsTestProjectName(d.Name)
}

// IsExecutable reports whether the project builds an executable.
func (d *Details) IsExecutable() bool {
	return strings.EqualFold(d.OutputType, "exe")
}

// SuppressFrameworkValidation reports whether the project opted out of test
// framework checks.
func (d *Details) SuppressFrameworkValidation() bool {
	return strings.EqualFold(strings.TrimSpace(d.properties[PropSuppressFramework]), "true")
}

// ProjectUnderTest finds the reference a test project exercises. The test
// suffix is dropped from the name, then trailing dot segments are stripped
// one at a time until a reference with that name turns up.
func (d *Details) ProjectUnderTest() (Path, bool) {
	if !d.IsTestProject() {
		return Path{}, false
	}

	expected := testNamePattern.ReplaceAllString(d.Name, "")
	for {
		if ref, ok := d.referenceNamed(expected); ok {
			d.logger.Debug("found project under test", "test_project", d.Name, "project", ref.Name())
			return ref, true
		}

		idx := strings.LastIndex(expected, ".")
		if idx == -1 {
			break
		}
		expected = expected[:idx]
	}

	d.logger.Warn("unable to find project under test", "test_project", d.Name)
	return Path{}, false
}

func (d *Details) referenceNamed(name string) (Path, bool) {
	for _, ref := range d.References {
		if ref.Name() == name {
			return ref, true
		}
	}
	return Path{}, false
}

// ReferencesFor returns the references that apply when building for tf.
func (d *Details) ReferencesFor(tf framework.TargetFramework) []Path {
	var out []Path
	for _, item := range d.items {
		if item.GroupCondition != "" && !d.matchesCondition(item.GroupCondition, tf) {
			continue
		}
		if item.Condition != "" && !d.matchesCondition(item.Condition, tf) {
			continue
		}
		out = append(out, d.Path.Resolve(item.Include))
	}
	return out
}

// matchesCondition evaluates simple framework conditions such as
// '$(TargetFramework)' == 'net6.0'. Anything it cannot evaluate counts as a
// match.
func (d *Details) matchesCondition(condition string, tf framework.TargetFramework) bool {
	evaluated := condition
	substituted := false
	if strings.Contains(evaluated, "$(TargetFrameworkIdentifier)") {
		evaluated = strings.ReplaceAll(evaluated, "$(TargetFrameworkIdentifier)", tf.Identifier())
		substituted = true
	}
	if strings.Contains(evaluated, "$(TargetFramework)") {
		evaluated = strings.ReplaceAll(evaluated, "$(TargetFramework)", tf.String())
		substituted = true
	}
	if !substituted {
		d.logger.Error("project reference condition does not depend on the target framework, assuming match",
			"condition", condition, "project", d.Name)
		return true
	}

	for _, op := range []string{"==", "!="} {
		lhs, rhs, found := strings.Cut(evaluated, op)
		if !found || strings.Contains(rhs, op) {
			continue
		}
		equal := strings.EqualFold(unquote(lhs), unquote(rhs))
		if op == "==" {
			return equal
		}
		return !equal
	}

	d.logger.Error("unable to evaluate condition, assuming match", "condition", condition, "project", d.Name)
	return true
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), "'\"")
}

// AddTargetFrameworks declares additional frameworks. It reports whether
// anything was added; the stored list is kept sorted.
func (d *Details) AddTargetFrameworks(missing []framework.TargetFramework) (bool, error) {
	updated := slices.Clone(d.frameworks)
	added := false
	for _, tf := range missing {
		if !framework.Contains(updated, tf) {
			updated = append(updated, tf)
			added = true
		}
	}
	if !added {
		return false, nil
	}

	slices.SortFunc(updated, framework.TargetFramework.Compare)
	d.logger.Info("setting target frameworks", "project", d.Name, "frameworks", framework.Join(updated))
	if err := d.writeFrameworks(updated); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveTargetFramework drops one declared framework.
func (d *Details) RemoveTargetFramework(tf framework.TargetFramework) error {
	remaining := slices.DeleteFunc(slices.Clone(d.frameworks), tf.Equal)
	if len(remaining) == len(d.frameworks) {
		return nil
	}
	if len(remaining) == 0 {
		return fmt.Errorf("refusing to remove %s, the last framework of %s", tf, d.Name)
	}

	slices.SortFunc(remaining, framework.TargetFramework.Compare)
	d.logger.Info("setting target frameworks", "project", d.Name, "frameworks", framework.Join(remaining))
	return d.writeFrameworks(remaining)
}

func (d *Details) writeFrameworks(list []framework.TargetFramework) error {
	if d.store != nil {
		if err := d.store.WriteTargetFrameworks(d.Path, list); err != nil {
			return fmt.Errorf("updating frameworks of %s: %w", d.Name, err)
		}
	}

	d.frameworks = list
	props := make(map[string]string, len(d.properties))
	for k, v := range d.properties {
		props[k] = v
	}
	delete(props, PropTargetFramework)
	delete(props, PropTargetFrameworks)
	if len(list) == 1 {
		props[PropTargetFramework] = list[0].String()
	} else {
		props[PropTargetFrameworks] = framework.Join(list)
	}
	d.properties = props
	return nil
}

// RemoveReferences deletes the project references pointing at any of paths.
// It reports whether anything was removed.
func (d *Details) RemoveReferences(paths map[Path]bool) (bool, error) {
	var includes []string
	var kept []Reference
	for _, item := range d.items {
		if paths[d.Path.Resolve(item.Include)] {
			includes = append(includes, item.Include)
			continue
		}
		kept = append(kept, item)
	}
	if len(includes) == 0 {
		return false, nil
	}

	if d.store != nil {
		if err := d.store.RemoveReferences(d.Path, includes); err != nil {
			return false, fmt.Errorf("removing references from %s: %w", d.Name, err)
		}
	}

	d.logger.Info("removed project references", "project", d.Name, "references", includes)
	d.items = kept
	d.References = make([]Path, 0, len(kept))
	for _, item := range kept {
		d.References = append(d.References, d.Path.Resolve(item.Include))
	}
	return true, nil
}
