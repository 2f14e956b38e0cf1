// Package fix edits project files so solutions pass framework validation and
// drops project references that are already available transitively.
package fix

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/slnlint/internal/framework"
	"github.com/leapstack-labs/slnlint/internal/graph"
	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/validate"
)

// ErrInvalidGraph is returned when a fix needs a fully valid graph.
var ErrInvalidGraph = errors.New("graph has invalid nodes")

// Change actions.
const (
	ActionAddFramework    = "add-framework"
	ActionRemoveFramework = "remove-framework"
	ActionRemoveReference = "remove-reference"
)

// Change is one edit applied to a project file.
type Change struct {
	Project string `json:"project"`
	Action  string `json:"action"`
	Value   string `json:"value"`
}

// Report describes what a fix run did.
type Report struct {
	Changes []Change `json:"changes"`
	// Skipped lists the steps that did not run because the graph was invalid.
	Skipped []string `json:"skipped,omitempty"`
}

// FrameworkFixer adds and removes target frameworks until every declared
// framework resolves to a valid project target.
type FrameworkFixer struct {
	provider graph.Provider
	targets  *graph.TargetBuilder
	logger   *slog.Logger
	report   Report
}

// NewFrameworkFixer creates a fixer. targets must read from provider.
func NewFrameworkFixer(provider graph.Provider, targets *graph.TargetBuilder, logger *slog.Logger) *FrameworkFixer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FrameworkFixer{provider: provider, targets: targets, logger: logger}
}

// Fix repairs frameworks, adds missing test frameworks and, when any were
// added, repairs frameworks again since new test targets can pull in
// different library targets.
func (f *FrameworkFixer) Fix(paths []project.Path) (Report, error) {
	f.report = Report{}

	if err := f.FixInvalidFrameworks(paths); err != nil {
		return f.report, err
	}
	added, err := f.AddMissingTestFrameworks(paths)
	if err != nil {
		return f.report, err
	}
	if added {
		f.logger.Info("added missing test frameworks, fixing frameworks again")
		if err := f.FixInvalidFrameworks(paths); err != nil {
			return f.report, err
		}
	}
	return f.report, nil
}

// Report returns the changes made since the last call to Fix.
func (f *FrameworkFixer) Report() Report {
	return f.report
}

// FixInvalidFrameworks declares the frameworks of project targets that were
// only reachable by upgrading, then removes declared frameworks that have no
// project target of their own. Nothing happens while any project fails to
// load.
func (f *FrameworkFixer) FixInvalidFrameworks(paths []project.Path) error {
	g := f.targets.GenerateGraphForPaths(paths...)

	for _, n := range g.InvalidNodes() {
		if !n.Details.Valid {
			f.logger.Error("invalid projects in the dependency graph, skipping framework fixing", "project", n.Name())
			f.report.Skipped = append(f.report.Skipped, "fix-frameworks")
			return nil
		}
	}

	for _, n := range g.InvalidNodes() {
		if n.IsExisting {
			continue
		}
		f.logger.Info("adding target framework", "project", n.Name(), "framework", n.Framework.String())
		added, err := n.Details.AddTargetFrameworks([]framework.TargetFramework{n.Framework})
		if err != nil {
			return err
		}
		if added {
			f.record(n.Details, ActionAddFramework, n.Framework.String())
		}
	}

	for _, missing := range validate.MissingTargets(g) {
		f.logger.Info("removing target framework", "project", missing.Project.Name, "framework", missing.Framework.String())
		if err := missing.Project.RemoveTargetFramework(missing.Framework); err != nil {
			return fmt.Errorf("fixing frameworks: %w", err)
		}
		f.record(missing.Project, ActionRemoveFramework, missing.Framework.String())
	}

	f.targets.ClearCache()
	return nil
}

// AddMissingTestFrameworks adds to each test project the frameworks its
// project under test is consumed with. It reports whether anything changed.
func (f *FrameworkFixer) AddMissingTestFrameworks(paths []project.Path) (bool, error) {
	g := f.targets.GenerateGraphForPaths(paths...)
	if g.HasInvalidNodes() {
		f.logger.Error("invalid nodes in the dependency graph, skipping test framework fixing", "count", len(g.InvalidNodes()))
		f.report.Skipped = append(f.report.Skipped, "add-test-frameworks")
		return false, nil
	}

	referenced := validate.GetReferencedFrameworks(g)

	changed := false
	for _, p := range paths {
		test, ok := f.provider.TryGetProject(p)
		if !ok || !test.IsTestProject() {
			continue
		}
		missing := validate.GetMissingTestFrameworks(test, referenced, f.provider, f.logger)
		if len(missing) == 0 {
			continue
		}

		f.logger.Info("adding missing test frameworks", "project", test.Name, "frameworks", framework.Join(missing))
		added, err := test.AddTargetFrameworks(missing)
		if err != nil {
			return changed, err
		}
		if added {
			for _, tf := range missing {
				f.record(test, ActionAddFramework, tf.String())
			}
			changed = true
		}
	}

	if changed {
		f.targets.ClearCache()
	}
	return changed, nil
}

func (f *FrameworkFixer) record(d *project.Details, action, value string) {
	f.report.Changes = append(f.report.Changes, Change{Project: d.Path.String(), Action: action, Value: value})
}

// TrimReferences removes direct project references that are also reachable
// through another reference. The project graph must be fully valid.
func TrimReferences(g *graph.ProjectGraph, logger *slog.Logger) ([]Change, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if g.HasInvalidNodes() {
		logger.Error("invalid projects in the dependency graph, cannot safely trim references")
		return nil, ErrInvalidGraph
	}

	var changes []Change
	for _, n := range g.Nodes() {
		redundant := n.Redundant()
		if len(redundant) == 0 {
			continue
		}

		drop := make(map[project.Path]bool, len(redundant))
		for _, r := range redundant {
			drop[r.Path()] = true
		}
		logger.Info("removing references available transitively", "project", n.Name(), "count", len(drop))
		removed, err := n.Details.RemoveReferences(drop)
		if err != nil {
			return changes, err
		}
		if !removed {
			continue
		}
		for _, r := range redundant {
			changes = append(changes, Change{Project: n.Path().String(), Action: ActionRemoveReference, Value: r.Path().String()})
		}
	}
	return changes, nil
}
