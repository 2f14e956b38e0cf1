package graph

import (
	"log/slog"

	"github.com/leapstack-labs/slnlint/internal/dag"
	"github.com/leapstack-labs/slnlint/internal/project"
)

// Builder creates project graphs. Nodes are memoized by path so graphs built
// by the same Builder share nodes. A Builder is not safe for concurrent use.
type Builder struct {
	provider Provider
	logger   *slog.Logger
	cache    map[project.Path]*ProjectNode
	building map[project.Path]bool
}

// NewBuilder creates a builder reading projects from provider.
func NewBuilder(provider Provider, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		provider: provider,
		logger:   logger,
		cache:    make(map[project.Path]*ProjectNode),
		building: make(map[project.Path]bool),
	}
}

// GenerateGraph builds the graph spanning paths and everything they reference.
func (b *Builder) GenerateGraph(paths ...project.Path) *ProjectGraph {
	b.logger.Debug("generating dependency graph", "projects", len(paths))

	g := dag.NewGraph[*ProjectNode]()
	for _, p := range paths {
		b.AddNode(p, g)
	}

	b.logger.Debug("built project graph", "nodes", g.Count(), "max_height", g.MaxHeight())
	if invalid := g.InvalidNodes(); len(invalid) > 0 {
		b.logger.Error("built graph with invalid nodes", "count", len(invalid))
	}
	return g
}

// AddNode adds the project at p to g unless it is already there.
func (b *Builder) AddNode(p project.Path, g *ProjectGraph) int {
	if ContainsPath(g, p) {
		return 0
	}
	return g.AddNode(b.GetNode(p))
}

// GetNode returns the node for p, building it and its references on first
// use. Projects that cannot be loaded become invalid leaves.
func (b *Builder) GetNode(p project.Path) *ProjectNode {
	if n, ok := b.cache[p]; ok {
		return n
	}

	details, ok := b.provider.TryGetProject(p)
	if !ok {
		b.logger.Error("project cannot be loaded, adding an invalid node", "path", p.String())
	}

	if b.building[p] {
		b.logger.Error("project reference cycle", "path", p.String())
		return &ProjectNode{Details: details, Links: dag.NewLinks[*ProjectNode](false, nil)}
	}
	b.building[p] = true
	defer delete(b.building, p)

	refs := make([]*ProjectNode, 0, len(details.References))
	var invalid []string
	for _, ref := range details.References {
		n := b.GetNode(ref)
		refs = append(refs, n)
		if !n.Valid() {
			invalid = append(invalid, ref.String())
		}
	}
	if len(invalid) > 0 {
		b.logger.Error("project has invalid references", "path", p.String(), "references", invalid)
	}

	n := &ProjectNode{
		Details: details,
		Links:   dag.NewLinks(details.Valid, refs),
	}
	b.cache[p] = n
	return n
}
