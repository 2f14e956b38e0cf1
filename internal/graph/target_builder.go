package graph

import (
	"log/slog"

	"github.com/leapstack-labs/slnlint/internal/dag"
	"github.com/leapstack-labs/slnlint/internal/framework"
	"github.com/leapstack-labs/slnlint/internal/project"
)

// TargetBuilder creates project target graphs. Nodes capture the frameworks
// their projects declared when they were built, so ClearCache must be called
// after a project's frameworks change.
type TargetBuilder struct {
	provider Provider
	logger   *slog.Logger
	cache    map[int64]*ProjectTarget
	building map[int64]bool
}

// NewTargetBuilder creates a builder reading projects from provider.
func NewTargetBuilder(provider Provider, logger *slog.Logger) *TargetBuilder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TargetBuilder{
		provider: provider,
		logger:   logger,
		cache:    make(map[int64]*ProjectTarget),
		building: make(map[int64]bool),
	}
}

// Projects loads paths, keeping invalid projects so they show up in graphs.
func (b *TargetBuilder) Projects(paths []project.Path) []*project.Details {
	seen := make(map[project.Path]bool, len(paths))
	out := make([]*project.Details, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		d, _ := b.provider.TryGetProject(p)
		out = append(out, d)
	}
	return out
}

// GenerateGraph builds a node for every framework each project declares.
func (b *TargetBuilder) GenerateGraph(projects []*project.Details) *TargetGraph {
	g := dag.NewGraph[*ProjectTarget]()
	for _, d := range projects {
		for _, tf := range d.TargetFrameworks() {
			g.AddNode(b.GetNode(tf, d))
		}
	}
	b.logger.Debug("built project target graph", "nodes", g.Count(), "max_height", g.MaxHeight())
	return g
}

// GenerateGraphForPaths loads paths and builds their target graph.
func (b *TargetBuilder) GenerateGraphForPaths(paths ...project.Path) *TargetGraph {
	return b.GenerateGraph(b.Projects(paths))
}

// GetNode returns the node for d built against requested.
//
// Each reference resolves to its best matching framework. When none exists
// but the reference declares a higher framework of the same family, the
// requested framework is upgraded to it and the node is built for the
// upgraded framework, which the project may not declare. The node is cached
// under both ids.
func (b *TargetBuilder) GetNode(requested framework.TargetFramework, d *project.Details) *ProjectTarget {
	id := TargetID(requested, d.ID)
	if t, ok := b.cache[id]; ok {
		return t
	}

	if b.building[id] {
		b.logger.Error("project reference cycle", "project", d.Name, "framework", requested.String())
		return &ProjectTarget{
			Details:   d,
			Framework: requested,
			id:        id,
			Links:     dag.NewLinks[*ProjectTarget](false, nil),
		}
	}
	b.building[id] = true
	defer delete(b.building, id)

	var refs []*ProjectTarget
	for _, refPath := range d.ReferencesFor(requested) {
		ref, ok := b.provider.TryGetProject(refPath)
		if !ok {
			b.logger.Error("unable to load project reference", "project", d.Name, "reference", ref.Name)
		}

		match, ok := framework.BestMatch(requested, ref.TargetFrameworks())
		if !ok {
			b.logger.Error("no matching target framework for project reference",
				"framework", requested.String(), "reference", ref.Name, "project", d.Name)

			if higher, ok := framework.ClosestHigher(requested, ref.TargetFrameworks()); ok {
				b.logger.Warn("using higher framework of project reference instead",
					"higher", higher.String(), "reference", ref.Name, "framework", requested.String(), "project", d.Name)
				requested = higher
				match = higher
			} else {
				match = requested
			}
		}

		refs = append(refs, b.GetNode(match, ref))
	}

	t := newProjectTarget(d, requested, refs)
	if existing, ok := b.cache[t.ID()]; ok {
		t = existing
	} else {
		b.cache[t.ID()] = t
	}
	if id != t.ID() {
		b.cache[id] = t
	}
	return t
}

// ClearCache drops every cached node.
func (b *TargetBuilder) ClearCache() {
	clear(b.cache)
}
