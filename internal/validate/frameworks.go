package validate

import (
	"log/slog"
	"slices"

	"github.com/leapstack-labs/slnlint/internal/framework"
	"github.com/leapstack-labs/slnlint/internal/graph"
	"github.com/leapstack-labs/slnlint/internal/project"
)

const (
	frameworkName     = "frameworks"
	testFrameworkName = "test-frameworks"
)

var (
	netcoreapp21 = framework.MustParse("netcoreapp2.1")
	netcoreapp31 = framework.MustParse("netcoreapp3.1")
)

func init() {
	Register(Validator{
		ID:          "SV04",
		Name:        frameworkName,
		Description: "Every declared target framework of every project resolves to a valid project target.",
		Check:       checkFrameworks,
	})
	Register(Validator{
		ID:          "SV05",
		Name:        testFrameworkName,
		Description: "Test projects target every framework their project under test is consumed with.",
		Check:       checkTestFrameworks,
	})
}

func checkFrameworks(c *Context) ([]Diagnostic, error) {
	g := c.Targets.GenerateGraphForPaths(c.Solution.ProjectPaths()...)

	var diags []Diagnostic
	for _, n := range g.InvalidNodes() {
		d := diag(frameworkName, "invalid project target %s", n)
		d.Project = n.Path().String()
		diags = append(diags, d)
	}
	for _, missing := range MissingTargets(g) {
		d := diag(frameworkName, "declared framework %s cannot be built without changing frameworks", missing.Framework)
		d.Project = missing.Project.Path.String()
		diags = append(diags, d)
	}

	if len(diags) > 0 {
		c.Logger.Error("found invalid project targets", "solution", c.Solution.Name, "count", len(diags))
	} else {
		c.Logger.Info("project target graph is valid", "solution", c.Solution.Name)
	}
	return diags, nil
}

// MissingTarget is a declared framework with no node of its own in a target
// graph. It happens when resolving references upgraded the framework.
type MissingTarget struct {
	Project   *project.Details
	Framework framework.TargetFramework
}

// MissingTargets lists the declared frameworks of every project in g whose
// target id is absent from g.
func MissingTargets(g *graph.TargetGraph) []MissingTarget {
	seen := make(map[project.ID]bool)
	var out []MissingTarget
	for _, n := range g.Nodes() {
		if seen[n.Details.ID] {
			continue
		}
		seen[n.Details.ID] = true
		for _, tf := range n.Details.TargetFrameworks() {
			if !g.Contains(graph.TargetID(tf, n.Details.ID)) {
				out = append(out, MissingTarget{Project: n.Details, Framework: tf})
			}
		}
	}
	return out
}

func checkTestFrameworks(c *Context) ([]Diagnostic, error) {
	paths := c.Solution.ProjectPaths()
	g := c.Targets.GenerateGraphForPaths(paths...)
	if g.HasInvalidNodes() {
		c.Logger.Error("invalid nodes in the project target graph, cannot resolve frameworks", "solution", c.Solution.Name)
		return []Diagnostic{diag(testFrameworkName, "project target graph has %d invalid nodes", len(g.InvalidNodes()))}, nil
	}

	referenced := GetReferencedFrameworks(g)

	var diags []Diagnostic
	for _, p := range paths {
		test, _ := c.Loader.TryGetProject(p)
		if !test.IsTestProject() {
			continue
		}
		missing := GetMissingTestFrameworks(test, referenced, c.Loader, c.Logger)
		if len(missing) > 0 {
			c.Logger.Error("test project is missing frameworks", "project", test.Name, "frameworks", framework.Join(missing))
			d := diag(testFrameworkName, "missing frameworks %s", framework.Join(missing))
			d.Project = test.Path.String()
			diags = append(diags, d)
		}
	}
	return diags, nil
}

// GetReferencedFrameworks returns, for each non-test project in g, every
// framework it is built for, either directly or on behalf of a non-test
// project consuming it.
func GetReferencedFrameworks(g *graph.TargetGraph) map[project.ID][]framework.TargetFramework {
	byTarget := make(map[int64][]framework.TargetFramework)
	owner := make(map[int64]project.ID)

	add := func(n *graph.ProjectTarget, tfs ...framework.TargetFramework) []framework.TargetFramework {
		owner[n.ID()] = n.Details.ID
		set := byTarget[n.ID()]
		for _, tf := range tfs {
			if !framework.Contains(set, tf) {
				set = append(set, tf)
			}
		}
		byTarget[n.ID()] = set
		return set
	}

	for _, level := range g.EnumerateTopDown() {
		for _, n := range level {
			if n.IsTestProject() {
				continue
			}
			set := add(n, n.Framework)
			for _, child := range n.References() {
				if !child.IsTestProject() {
					add(child, set...)
				}
			}
		}
	}

	out := make(map[project.ID][]framework.TargetFramework)
	for id, set := range byTarget {
		pid := owner[id]
		for _, tf := range set {
			if !framework.Contains(out[pid], tf) {
				out[pid] = append(out[pid], tf)
			}
		}
	}
	for pid := range out {
		slices.SortFunc(out[pid], framework.TargetFramework.Compare)
	}
	return out
}

// GetMissingTestFrameworks returns the frameworks a test project must add to
// cover every framework its project under test is built for.
//
// A .NET Framework target is covered by any .NET Framework test target. A
// .NET Core target needs the same major version at an equal or higher minor.
// netstandard2.0 needs any .NET Core target, reported as netcoreapp2.1 when
// absent, and later .NET Standard versions need a 3.x one, reported as
// netcoreapp3.1.
func GetMissingTestFrameworks(test *project.Details, referenced map[project.ID][]framework.TargetFramework, provider graph.Provider, logger *slog.Logger) []framework.TargetFramework {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	putPath, ok := test.ProjectUnderTest()
	if !ok {
		logger.Warn("unable to validate test frameworks without a project under test", "project", test.Name)
		return nil
	}
	put, _ := provider.TryGetProject(putPath)
	required, ok := referenced[put.ID]
	if !ok {
		logger.Warn("project under test has no referenced frameworks", "project", test.Name, "project_under_test", put.Name)
		return nil
	}

	testFrameworks := test.TargetFrameworks()
	hasType := func(t framework.Type) bool {
		return slices.ContainsFunc(testFrameworks, func(f framework.TargetFramework) bool { return f.Type() == t })
	}

	var missing []framework.TargetFramework
	addMissing := func(tf framework.TargetFramework) {
		if !framework.Contains(missing, tf) {
			missing = append(missing, tf)
		}
	}

	for _, tf := range required {
		switch tf.Type() {
		case framework.NetFramework:
			if !hasType(framework.NetFramework) {
				addMissing(tf)
			}
		case framework.NetCore:
			covered := slices.ContainsFunc(testFrameworks, func(f framework.TargetFramework) bool {
				return f.Type() == framework.NetCore &&
					f.Version().Major == tf.Version().Major &&
					f.Version().Minor >= tf.Version().Minor
			})
			if !covered {
				addMissing(tf)
			}
		case framework.NetStandard:
			if tf.Version().Compare(framework.V(2, 0)) == 0 {
				if !hasType(framework.NetCore) {
					addMissing(netcoreapp21)
				}
				continue
			}
			covered := slices.ContainsFunc(testFrameworks, func(f framework.TargetFramework) bool {
				return f.Type() == framework.NetCore && f.Version().Major == 3
			})
			if !covered {
				addMissing(netcoreapp31)
			}
		default:
			logger.Error("unsupported framework", "framework", tf.String(), "project", test.Name)
			addMissing(tf)
		}
	}

	if len(missing) > 0 && test.SuppressFrameworkValidation() {
		logger.Warn("test project is missing frameworks but suppresses framework validation",
			"project", test.Name, "frameworks", framework.Join(missing), "property", project.PropSuppressFramework)
		return nil
	}
	slices.SortFunc(missing, framework.TargetFramework.Compare)
	return missing
}
