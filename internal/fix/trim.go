package fix

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/slnlint/internal/framework"
	"github.com/leapstack-labs/slnlint/internal/graph"
	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/validate"
)

// FrameworkTrimmer removes declared target frameworks that nothing needs.
//
// The target graph starts from the top-level non-test projects. Test project
// targets are then added for every framework their project under test is
// consumed with. A test target can pull in library targets nothing else
// reached, which in turn makes more test frameworks required, so this repeats
// until a pass adds no nodes.
type FrameworkTrimmer struct {
	loader  *project.Loader
	targets *graph.TargetBuilder
	logger  *slog.Logger

	// MaxPasses caps the test target loop. Zero means one pass per declared
	// test target plus one, which is always enough: every pass that changes
	// the graph adds at least one test target.
	MaxPasses int
}

// NewFrameworkTrimmer creates a trimmer. targets must read from loader.
func NewFrameworkTrimmer(loader *project.Loader, targets *graph.TargetBuilder, logger *slog.Logger) *FrameworkTrimmer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FrameworkTrimmer{loader: loader, targets: targets, logger: logger}
}

// Trim removes from every project in paths the frameworks with no target in
// the graph. A project keeps its frameworks when none of them is used, since
// a project must declare at least one.
func (t *FrameworkTrimmer) Trim(paths []project.Path) ([]Change, error) {
	top := t.loader.TopLevelNonTestProjects(paths)
	g := t.targets.GenerateGraph(top)
	if g.HasInvalidNodes() || slices.ContainsFunc(top, func(d *project.Details) bool { return !d.Valid }) {
		t.logger.Error("invalid projects in the dependency graph, cannot safely trim target frameworks", "count", len(g.InvalidNodes()))
		return nil, ErrInvalidGraph
	}

	tests := t.testProjects(paths)
	limit := t.MaxPasses
	if limit <= 0 {
		limit = 1
		for _, d := range tests {
			limit += len(d.TargetFrameworks())
		}
	}

	referenced := validate.GetReferencedFrameworks(g)
	for pass := 0; ; pass++ {
		if pass == limit {
			return nil, fmt.Errorf("%w: test targets still changing after %d passes", validate.ErrNoConvergence, pass)
		}
		if !t.addTestTargets(g, tests, referenced) {
			break
		}
		updated := validate.GetReferencedFrameworks(g)
		if !sameFrameworks(referenced, updated) {
			t.logger.Warn("test targets changed the frameworks libraries are consumed with, repeating", "pass", pass+1)
		}
		referenced = updated
	}

	var changes []Change
	for _, p := range paths {
		d, ok := t.loader.TryGetProject(p)
		if !ok {
			continue
		}

		declared := d.TargetFrameworks()
		unused := slices.DeleteFunc(slices.Clone(declared), func(tf framework.TargetFramework) bool {
			return g.Contains(graph.TargetID(tf, d.ID))
		})
		if len(unused) == 0 {
			continue
		}
		if len(unused) == len(declared) {
			t.logger.Warn("no target framework of the project is used, leaving it untouched", "project", d.Name)
			continue
		}

		for _, tf := range unused {
			t.logger.Info("removing target framework as it is not referenced", "project", d.Name, "framework", tf.String())
			if err := d.RemoveTargetFramework(tf); err != nil {
				return changes, fmt.Errorf("trimming frameworks: %w", err)
			}
			changes = append(changes, Change{Project: d.Path.String(), Action: ActionRemoveFramework, Value: tf.String()})
		}
	}

	if len(changes) > 0 {
		t.targets.ClearCache()
	}
	return changes, nil
}

func (t *FrameworkTrimmer) testProjects(paths []project.Path) []*project.Details {
	var out []*project.Details
	for _, p := range paths {
		if !project.IsTestProjectName(p.Name()) {
			continue
		}
		if d, ok := t.loader.TryGetProject(p); ok {
			out = append(out, d)
		}
	}
	return out
}

// addTestTargets adds the required targets of every test project to g and
// reports whether any node was added.
func (t *FrameworkTrimmer) addTestTargets(g *graph.TargetGraph, tests []*project.Details, referenced map[project.ID][]framework.TargetFramework) bool {
	updated := false
	for _, test := range tests {
		for _, tf := range t.requiredTestFrameworks(test, referenced) {
			if added := g.AddNode(t.targets.GetNode(tf, test)); added > 0 {
				updated = true
				t.logger.Info("added test target to the graph", "project", test.Name, "framework", tf.String(), "nodes", added)
			}
		}
	}
	return updated
}

// requiredTestFrameworks returns the frameworks of test that cover a
// framework its project under test is consumed with. Without a known project
// under test every declared framework is required.
func (t *FrameworkTrimmer) requiredTestFrameworks(test *project.Details, referenced map[project.ID][]framework.TargetFramework) []framework.TargetFramework {
	putPath, ok := test.ProjectUnderTest()
	if !ok {
		return test.TargetFrameworks()
	}
	put, ok := t.loader.TryGetProject(putPath)
	if !ok {
		return test.TargetFrameworks()
	}
	consumed, ok := referenced[put.ID]
	if !ok {
		return test.TargetFrameworks()
	}

	var required []framework.TargetFramework
	for _, tf := range test.TargetFrameworks() {
		if coversAny(tf, consumed) {
			required = append(required, tf)
			continue
		}
		t.logger.Info("framework is not a required test framework", "project", test.Name, "framework", tf.String())
	}
	return required
}

// coversAny reports whether a test built for tf exercises one of consumed.
// A .NET Core test covers any .NET Standard library; otherwise the library
// framework must share tf's family and major version and not be newer.
func coversAny(tf framework.TargetFramework, consumed []framework.TargetFramework) bool {
	return slices.ContainsFunc(consumed, func(c framework.TargetFramework) bool {
		if tf.Type() == framework.NetCore && c.Type() == framework.NetStandard {
			return true
		}
		return c.Type() == tf.Type() &&
			c.Version().Major == tf.Version().Major &&
			c.Version().Compare(tf.Version()) <= 0
	})
}

func sameFrameworks(a, b map[project.ID][]framework.TargetFramework) bool {
	if len(a) != len(b) {
		return false
	}
	for id, list := range a {
		if !slices.EqualFunc(list, b[id], framework.TargetFramework.Equal) {
			return false
		}
	}
	return true
}
