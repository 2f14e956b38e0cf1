package validate

const (
	closureName   = "closure"
	duplicateName = "duplicate-projects"
)

func init() {
	Register(Validator{
		ID:          "SV01",
		Name:        closureName,
		Description: "Every project the solution's projects reference is part of the solution.",
		Check:       checkClosure,
	})
	Register(Validator{
		ID:          "SV02",
		Name:        duplicateName,
		Description: "No two projects in a solution share a name.",
		Check:       checkDuplicates,
	})
}

func checkClosure(c *Context) ([]Diagnostic, error) {
	var diags []Diagnostic
	for _, sp := range c.Solution.Projects {
		d, ok := c.Loader.TryGetProject(sp.Path)
		if !ok {
			c.Logger.Error("project listed in solution cannot be loaded", "project", sp.Path.String())
			issue := diag(closureName, "project listed in the solution cannot be loaded")
			issue.Project = sp.Path.String()
			diags = append(diags, issue)
			continue
		}
		for _, ref := range d.References {
			if c.Solution.Contains(ref) {
				continue
			}
			c.Logger.Error("referenced project is not in the solution", "reference", ref.String(), "project", sp.Path.String())
			issue := diag(closureName, "references %s which is not in the solution", ref)
			issue.Project = sp.Path.String()
			diags = append(diags, issue)
		}
	}
	return diags, nil
}

func checkDuplicates(c *Context) ([]Diagnostic, error) {
	seen := make(map[string]bool, len(c.Solution.Projects))
	var diags []Diagnostic
	for _, sp := range c.Solution.Projects {
		if seen[sp.Name] {
			c.Logger.Error("duplicate project name", "project", sp.Name)
			issue := diag(duplicateName, "duplicate project name %s", sp.Name)
			issue.Project = sp.Path.String()
			diags = append(diags, issue)
			continue
		}
		seen[sp.Name] = true
	}
	return diags, nil
}
