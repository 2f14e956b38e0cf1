package validate

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/slnlint/internal/graph"
	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/solution"
)

const leanName = "lean-solution"

func init() {
	Register(Validator{
		ID:   "SV03",
		Name: leanName,
		Description: "A solution named after one of its projects holds only that project's dependency graph, " +
			"its test projects and additional executables.",
		Check: checkLean,
	})
}

func checkLean(c *Context) ([]Diagnostic, error) {
	idx := slices.IndexFunc(c.Solution.Projects, func(p solution.Project) bool {
		return p.Name == c.Solution.Name
	})
	if idx == -1 {
		c.Logger.Debug("no entry point project, skipping lean check", "solution", c.Solution.Name)
		return nil, nil
	}

	g := c.Graphs.GenerateGraph(c.Solution.Projects[idx].Path)
	superfluous, err := c.GetSuperfluousProjects(g, c.Solution.ProjectPaths())
	if err != nil {
		return nil, err
	}

	var diags []Diagnostic
	for _, p := range superfluous {
		d := diag(leanName, "project is not part of the dependency graph of %s", c.Solution.Name)
		d.Project = p.String()
		diags = append(diags, d)
	}
	if len(diags) > 0 {
		c.Logger.Error("found superfluous projects", "solution", c.Solution.Name, "count", len(diags))
	}
	return diags, nil
}

// GetSuperfluousProjects returns the candidates that do not belong in a
// solution built around g. Test projects for projects in g and executables
// not matching the exclude pattern are accepted and folded into g, which may
// in turn make further candidates acceptable.
func (c *Context) GetSuperfluousProjects(g *graph.ProjectGraph, candidates []project.Path) ([]project.Path, error) {
	remaining := make(map[project.Path]bool)
	for _, p := range candidates {
		if !graph.ContainsPath(g, p) {
			remaining[p] = true
		}
	}

	maxPasses := len(candidates) + 1
	for pass := 0; ; pass++ {
		if pass == maxPasses {
			return nil, fmt.Errorf("%w: superfluous projects after %d passes", ErrNoConvergence, pass)
		}

		var accepted []project.Path
		for _, p := range sortedPaths(remaining) {
			if graph.ContainsPath(g, p) {
				accepted = append(accepted, p)
				continue
			}

			d, ok := c.Loader.TryGetProject(p)
			if !ok {
				continue
			}

			switch {
			case d.IsTestProject():
				if IsTestProjectForGraph(d, g, c.Logger) {
					accepted = append(accepted, p)
					c.Graphs.AddNode(p, g)
				}
			case d.IsExecutable():
				if c.Exclude != nil && c.Exclude.MatchString(d.Name) {
					c.Logger.Info("not adding executable matching the exclude pattern", "project", d.Name)
					continue
				}
				c.Logger.Info("adding additional executable to the project graph", "project", d.Name)
				accepted = append(accepted, p)
				c.Graphs.AddNode(p, g)
			}
		}

		if len(accepted) == 0 {
			return sortedPaths(remaining), nil
		}
		for _, p := range accepted {
			delete(remaining, p)
		}
	}
}

// IsTestProjectForGraph reports whether a test project belongs with g: its
// project under test is in g, or, failing to find one, it references
// something in g.
func IsTestProjectForGraph(d *project.Details, g *graph.ProjectGraph, logger *slog.Logger) bool {
	if put, ok := d.ProjectUnderTest(); ok {
		if graph.ContainsPath(g, put) {
			logger.Debug("project under test is part of the graph", "test_project", d.Name, "project", put.Name())
			return true
		}
		logger.Warn("test project's project under test is not part of the graph", "test_project", d.Name, "project", put.Name())
		return false
	}

	if !slices.ContainsFunc(d.References, func(r project.Path) bool { return graph.ContainsPath(g, r) }) {
		logger.Debug("test project has no project under test and references nothing in the graph", "test_project", d.Name)
		return false
	}

	logger.Warn("cannot determine project under test but the test project references the graph; "+
		"consider renaming or removing it", "test_project", d.Name)
	return true
}

func sortedPaths(set map[project.Path]bool) []project.Path {
	out := make([]project.Path, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	slices.SortFunc(out, project.ComparePaths)
	return out
}
