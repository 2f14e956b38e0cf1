// Package graph builds project and project-target dependency graphs on top of
// the generic dag package and checks their architecture colours.
package graph

import (
	"github.com/leapstack-labs/slnlint/internal/dag"
	"github.com/leapstack-labs/slnlint/internal/framework"
	"github.com/leapstack-labs/slnlint/internal/project"
)

// Provider supplies project metadata. *project.Loader implements it.
type Provider interface {
	TryGetProject(p project.Path) (*project.Details, bool)
}

// ProjectNode is one project in a project graph.
type ProjectNode struct {
	dag.Links[*ProjectNode]
	Details *project.Details
}

// ID implements dag.Node.
func (n *ProjectNode) ID() int64 { return int64(n.Details.ID) }

// Key implements dag.Node.
func (n *ProjectNode) Key() string { return n.Details.Path.String() }

// Name returns the project name.
func (n *ProjectNode) Name() string { return n.Details.Name }

// Path returns the project file path.
func (n *ProjectNode) Path() project.Path { return n.Details.Path }

// Colour returns the declared colour name.
func (n *ProjectNode) Colour() string { return n.Details.Colour }

func (n *ProjectNode) IsTestProject() bool { return n.Details.IsTestProject() }

func (n *ProjectNode) IsExecutable() bool { return n.Details.IsExecutable() }

func (n *ProjectNode) TargetFrameworks() []framework.TargetFramework {
	return n.Details.TargetFrameworks()
}

// ProjectGraph is a graph of projects.
type ProjectGraph = dag.Graph[*ProjectNode]

// TargetGraph is a graph of project targets.
type TargetGraph = dag.Graph[*ProjectTarget]

// ContainsPath reports whether a graph holds the project at p.
func ContainsPath[N dag.Node[N]](g *dag.Graph[N], p project.Path) bool {
	return g.ContainsKey(p.String())
}
