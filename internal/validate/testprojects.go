package validate

import (
	"slices"
	"strings"

	"github.com/leapstack-labs/slnlint/internal/project"
)

const (
	testProjectsName = "test-projects"

	// noTestsMarker in a solution name marks a solution that must not build
	// any tests.
	noTestsMarker = "NoTests"
)

// TestProjectFinder locates the test projects of a project.
type TestProjectFinder interface {
	TestProjects(p project.Path) []project.Path
}

func init() {
	Register(Validator{
		ID:   "SV06",
		Name: testProjectsName,
		Description: "Test projects found next to a solution's projects by directory convention are part of the solution. " +
			"A solution with NoTests in its name contains no test projects at all.",
		Check: checkTestProjects,
	})
}

func checkTestProjects(c *Context) ([]Diagnostic, error) {
	if strings.Contains(c.Solution.Name, noTestsMarker) {
		c.Logger.Info("validating that a NoTests solution contains no test projects", "solution", c.Solution.Name)

		var diags []Diagnostic
		for _, sp := range c.Solution.Projects {
			if !project.IsTestProjectName(sp.Name) {
				continue
			}
			d := diag(testProjectsName, "test project in a %s solution", noTestsMarker)
			d.Project = sp.Path.String()
			diags = append(diags, d)
		}
		if len(diags) > 0 {
			c.Logger.Warn("found test projects in NoTests solution", "solution", c.Solution.Name, "count", len(diags))
		}
		return diags, nil
	}

	var diags []Diagnostic
	for _, m := range c.GetMissingTestProjects(c.Solution.ProjectPaths()) {
		d := diag(testProjectsName, "test project of %s is not part of the solution", m.For.Name())
		d.Project = m.Test.String()
		diags = append(diags, d)
	}
	return diags, nil
}

// MissingTest is a test project found by convention for For that the
// solution does not list.
type MissingTest struct {
	For  project.Path
	Test project.Path
}

// GetMissingTestProjects looks up the test projects of every non-test
// project in paths and returns those that paths lacks. Test projects for
// something outside the non-test projects' graph are ignored. A test project
// that cannot be loaded is always reported.
func (c *Context) GetMissingTestProjects(paths []project.Path) []MissingTest {
	inSolution := make(map[project.Path]bool)
	var nonTest []project.Path
	for _, p := range paths {
		if project.IsTestProjectName(p.Name()) {
			inSolution[p] = true
		} else {
			nonTest = append(nonTest, p)
		}
	}
	if len(nonTest) == 0 {
		c.Logger.Warn("unable to find any non-test projects", "solution", c.Solution.Name)
		return nil
	}

	g := c.Graphs.GenerateGraph(nonTest...)
	found := make(map[project.Path]bool)
	reported := make(map[project.Path]bool)
	var missing []MissingTest
	report := func(p, tp project.Path) {
		if !reported[tp] {
			reported[tp] = true
			missing = append(missing, MissingTest{For: p, Test: tp})
		}
	}

	for _, p := range nonTest {
		if _, ok := c.Loader.TryGetProject(p); !ok {
			c.Logger.Error("project does not exist, unable to search for its test projects", "project", p.String())
			continue
		}

		for _, tp := range c.Tests.TestProjects(p) {
			d, ok := c.Loader.TryGetProject(tp)
			if !ok {
				c.Logger.Error("unable to load test project", "test_project", tp.String())
				report(p, tp)
				continue
			}
			if !IsTestProjectForGraph(d, g, c.Logger) {
				c.Logger.Warn("test project does not test a project in the graph, not adding it", "test_project", tp.String())
				continue
			}

			found[tp] = true
			if !inSolution[tp] {
				c.Logger.Error("found test project which is not part of the solution", "test_project", tp.String(), "project", p.Name())
				report(p, tp)
			}
		}
	}

	var unconventional []string
	for p := range inSolution {
		if !found[p] {
			unconventional = append(unconventional, p.String())
		}
	}
	if len(unconventional) > 0 {
		slices.Sort(unconventional)
		c.Logger.Warn("test projects in the solution were not found by convention",
			"solution", c.Solution.Name, "test_projects", strings.Join(unconventional, ", "))
	}
	return missing
}
