package commands

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/slnlint/internal/cli/config"
	"github.com/leapstack-labs/slnlint/internal/cli/output"
	"github.com/leapstack-labs/slnlint/internal/graph"
	"github.com/leapstack-labs/slnlint/internal/project"
	"github.com/leapstack-labs/slnlint/internal/validate"
)

// Health check statuses.
const (
	checkPass  = "pass"
	checkWarn  = "warn"
	checkError = "error"
	checkSkip  = "skip"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor <projects...>",
		Short: "Run a health check over a project graph and the slnlint setup",
		Long: `Analyze the dependency graph of the given solutions or projects and the
local slnlint setup.

The report includes:
- Graph summary (projects, heights, roots, leaves, frameworks)
- Health checks grouped by category (Graph, Environment)
- Health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Check every solution in the repository
  slnlint doctor "**/*.sln"

  # Output as JSON
  slnlint doctor App.sln -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, args)
		},
	}
	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         GraphSummary  `json:"summary"`
	HealthChecks    []HealthCheck `json:"health_checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
	IssueCount      int           `json:"issue_count"`
}

// GraphSummary contains dependency graph statistics.
type GraphSummary struct {
	Projects      int            `json:"projects"`
	TestProjects  int            `json:"test_projects"`
	Executables   int            `json:"executables"`
	Invalid       int            `json:"invalid"`
	Height        int            `json:"height"`
	RootCount     int            `json:"root_count"`
	LeafCount     int            `json:"leaf_count"`
	EdgeCount     int            `json:"edge_count"`
	RedundantRefs int            `json:"redundant_refs"`
	Frameworks    map[string]int `json:"frameworks"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	CheckID    string   `json:"check_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error", "skip"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContextWithoutHistory(cmd)

	paths, err := cmdCtx.resolveProjects(args)
	if err != nil {
		return err
	}

	loader := project.NewLoader(project.NewFileStore(), cmdCtx.Logger)
	g := graph.NewBuilder(loader, cmdCtx.Logger).GenerateGraph(paths...)

	checks := graphChecks(cmdCtx, loader, g, paths)
	checks = append(checks, environmentChecks(cmd.Context(), cmdCtx)...)
	out := buildDoctorOutput(g, checks)

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

func buildDoctorOutput(g *graph.ProjectGraph, checks []HealthCheck) *DoctorOutput {
	sort.SliceStable(checks, func(i, j int) bool {
		if checks[i].Group != checks[j].Group {
			return checks[i].Group < checks[j].Group
		}
		return checks[i].CheckID < checks[j].CheckID
	})

	summary := buildGraphSummary(g)
	issues := 0
	for _, c := range checks {
		issues += c.IssueCount
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks, summary.Projects),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issues,
	}
}

func buildGraphSummary(g *graph.ProjectGraph) GraphSummary {
	summary := GraphSummary{
		Projects:   g.Count(),
		Invalid:    len(g.InvalidNodes()),
		Frameworks: make(map[string]int),
	}
	if g.Count() > 0 {
		summary.Height = g.MaxHeight() + 1
	}

	referenced := make(map[int64]bool)
	for _, n := range g.Nodes() {
		for _, ref := range n.References() {
			referenced[ref.ID()] = true
		}
	}

	for _, n := range g.Nodes() {
		if n.IsTestProject() {
			summary.TestProjects++
		}
		if n.IsExecutable() {
			summary.Executables++
		}
		if !referenced[n.ID()] {
			summary.RootCount++
		}
		if len(n.References()) == 0 {
			summary.LeafCount++
		}
		summary.EdgeCount += len(n.References())
		summary.RedundantRefs += len(n.Redundant())
		for _, tf := range n.TargetFrameworks() {
			summary.Frameworks[tf.String()]++
		}
	}
	return summary
}

// graphChecks runs the checks that need the project graph. Checks that
// depend on every project loading are skipped otherwise.
func graphChecks(cmdCtx *CommandContext, loader *project.Loader, g *graph.ProjectGraph, paths []project.Path) []HealthCheck {
	unloadable := HealthCheck{CheckID: "DG01", Name: "unloadable-projects", Group: "graph"}
	for _, n := range g.InvalidNodes() {
		unloadable.Details = append(unloadable.Details, n.Path().String())
	}
	unloadable.finish(checkError)

	redundant := HealthCheck{CheckID: "DG02", Name: "redundant-references", Group: "graph"}
	for _, n := range g.Nodes() {
		for _, ref := range n.Redundant() {
			redundant.Details = append(redundant.Details, fmt.Sprintf("%s -> %s", n.Name(), ref.Name()))
		}
	}
	redundant.finish(checkWarn)

	colours := HealthCheck{CheckID: "DG03", Name: "project-colours", Group: "graph"}
	targets := HealthCheck{CheckID: "DG04", Name: "framework-targets", Group: "graph"}

	if g.HasInvalidNodes() {
		colours.Status, targets.Status = checkSkip, checkSkip
		return []HealthCheck{unloadable, redundant, colours, targets}
	}

	if cmdCtx.Cfg.ColourChart == "" {
		colours.Status = checkSkip
	} else if chart, err := cmdCtx.loadChart(); err != nil {
		colours.Status = checkSkip
	} else {
		issues, err := colourIssues(g, chart, false, cmdCtx.Logger)
		if err != nil {
			colours.Details = append(colours.Details, err.Error())
		}
		for _, i := range issues {
			colours.Details = append(colours.Details, fmt.Sprintf("%s (%s)", i.Project, i.Colour))
		}
		colours.finish(checkError)
	}

	tg := graph.NewTargetBuilder(loader, cmdCtx.Logger).GenerateGraphForPaths(paths...)
	for _, m := range validate.MissingTargets(tg) {
		targets.Details = append(targets.Details, fmt.Sprintf("%s declares %s but resolves to a higher framework", m.Project.Name, m.Framework))
	}
	targets.finish(checkError)

	return []HealthCheck{unloadable, redundant, colours, targets}
}

// environmentChecks inspect the configuration, the colour chart and the
// run history database.
func environmentChecks(ctx context.Context, cmdCtx *CommandContext) []HealthCheck {
	cfgCheck := HealthCheck{CheckID: "EN01", Name: "config-file", Group: "environment", Status: checkPass}
	if used := config.GetConfigFileUsed(); used == "" {
		cfgCheck.Status = checkWarn
		cfgCheck.IssueCount = 1
		cfgCheck.Details = []string{"no slnlint.yaml found, using defaults"}
	} else {
		cfgCheck.Details = []string{used}
	}

	chartCheck := HealthCheck{CheckID: "EN02", Name: "colour-chart", Group: "environment", Status: checkPass}
	switch chart, err := cmdCtx.loadChart(); {
	case cmdCtx.Cfg.ColourChart == "":
		chartCheck.Status = checkWarn
		chartCheck.IssueCount = 1
		chartCheck.Details = []string{"no colour chart configured"}
	case err != nil:
		chartCheck.Status = checkError
		chartCheck.IssueCount = 1
		chartCheck.Details = []string{err.Error()}
	default:
		chartCheck.Details = []string{fmt.Sprintf("%d colour(s) in %s", chart.Len(), cmdCtx.Cfg.ColourChart)}
	}

	historyCheck := HealthCheck{CheckID: "EN03", Name: "run-history", Group: "environment", Status: checkPass}
	if cmdCtx.Cfg.NoHistory {
		historyCheck.Status = checkSkip
		historyCheck.Details = []string{"run history is disabled"}
	} else if version, err := historyVersion(ctx, cmdCtx); err != nil {
		historyCheck.Status = checkError
		historyCheck.IssueCount = 1
		historyCheck.Details = []string{err.Error()}
	} else {
		historyCheck.Details = []string{fmt.Sprintf("%s (schema version %d)", cmdCtx.Cfg.StatePath, version)}
	}

	return []HealthCheck{cfgCheck, chartCheck, historyCheck}
}

func historyVersion(ctx context.Context, cmdCtx *CommandContext) (int64, error) {
	store, err := openHistory(ctx, cmdCtx.Cfg.StatePath, cmdCtx.Logger)
	if err != nil {
		return 0, err
	}
	defer func() { _ = store.Close() }()
	return store.MigrationVersion(ctx)
}

// finish sets the issue count from the details and picks failStatus when
// there are any.
func (c *HealthCheck) finish(failStatus string) {
	c.IssueCount = len(c.Details)
	c.Status = checkPass
	if c.IssueCount > 0 {
		c.Status = failStatus
	}
}

// calculateHealthScore computes a health score from 0-100.
// The scoring weights:
// - Each issue reduces points
// - Errors count double
// - Larger graphs mean issues have less individual impact
func calculateHealthScore(checks []HealthCheck, projectCount int) int {
	if len(checks) == 0 {
		return 100
	}

	score := 100.0

	basePenalty := 5.0
	if projectCount > 10 {
		basePenalty = 3.0
	}
	if projectCount > 50 {
		basePenalty = 2.0
	}
	if projectCount > 100 {
		basePenalty = 1.0
	}

	for _, check := range checks {
		switch check.Status {
		case checkError:
			score -= float64(check.IssueCount) * basePenalty * 2
		case checkWarn:
			score -= float64(check.IssueCount) * basePenalty
		}
	}

	return int(max(0, min(score, 100)))
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	seen := make(map[string]bool)

	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}
		rec := getRecommendation(check.CheckID)
		if rec != "" && !seen[rec] {
			recommendations = append(recommendations, rec)
			seen[rec] = true
		}
	}

	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}
	return recommendations
}

func getRecommendation(checkID string) string {
	switch checkID {
	case "DG01":
		return "Fix or remove project references to files that cannot be loaded"
	case "DG02":
		return "Run 'slnlint trim-references' to drop references that are already implied"
	case "DG03":
		return "Adjust <Colour> properties or the colour chart so every combination is declared"
	case "DG04":
		return "Run 'slnlint fix-frameworks' to declare the frameworks references resolve to"
	case "EN01":
		return "Run 'slnlint init' to create a configuration"
	case "EN02":
		return "Point the colours setting at a valid colour chart"
	case "EN03":
		return "Check that the state_path directory is writable"
	default:
		return ""
	}
}

func sortedFrameworks(counts map[string]int) []string {
	names := slices.Collect(maps.Keys(counts))
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s (%d)", n, counts[n]))
	}
	return parts
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("slnlint Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	s := out.Summary
	r.Println(styles.Header2.Render("Graph Summary"))
	r.Printf("   Projects: %d | Tests: %d | Executables: %d | Invalid: %d\n", s.Projects, s.TestProjects, s.Executables, s.Invalid)
	r.Printf("   Height: %d levels | Roots: %d | Leaves: %d | References: %d\n", s.Height, s.RootCount, s.LeafCount, s.EdgeCount)
	if len(s.Frameworks) > 0 {
		r.Printf("   Frameworks: %s\n", strings.Join(sortedFrameworks(s.Frameworks), ", "))
	}
	r.Println("")

	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + output.Title(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case checkWarn:
			icon = styles.Warning.Render("!")
		case checkError:
			icon = styles.StatusFailed.String()
		case checkSkip:
			icon = styles.Muted.Render("-")
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.CheckID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}
	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# slnlint Health Report")
	r.Println("")

	s := out.Summary
	r.Println("## Graph Summary")
	r.Println("")
	r.Printf("- **Projects**: %d\n", s.Projects)
	r.Printf("- **Test Projects**: %d\n", s.TestProjects)
	r.Printf("- **Executables**: %d\n", s.Executables)
	r.Printf("- **Invalid**: %d\n", s.Invalid)
	r.Printf("- **Height**: %d levels\n", s.Height)
	r.Printf("- **Roots**: %d\n", s.RootCount)
	r.Printf("- **Leaves**: %d\n", s.LeafCount)
	r.Printf("- **References**: %d (%d redundant)\n", s.EdgeCount, s.RedundantRefs)
	if len(s.Frameworks) > 0 {
		r.Printf("- **Frameworks**: %s\n", strings.Join(sortedFrameworks(s.Frameworks), ", "))
	}
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + output.Title(currentGroup))
			r.Println("")
		}

		r.Printf("- **[%s]** %s: %s", strings.ToUpper(check.Status), check.CheckID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}
	return nil
}
