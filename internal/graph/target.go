package graph

import (
	"slices"

	"github.com/leapstack-labs/slnlint/internal/dag"
	"github.com/leapstack-labs/slnlint/internal/framework"
	"github.com/leapstack-labs/slnlint/internal/project"
)

// TargetID packs a framework and a project into one node id. It stays unique
// while a session loads fewer than 10000 projects.
func TargetID(tf framework.TargetFramework, id project.ID) int64 {
	return int64(tf.ID())*10000 + int64(id)
}

// ProjectTarget is one project built for one target framework.
type ProjectTarget struct {
	dag.Links[*ProjectTarget]
	Details   *project.Details
	Framework framework.TargetFramework

	// FrameworkSet is Framework plus the frameworks of every direct and
	// transitive reference.
	FrameworkSet        []framework.TargetFramework
	FrameworkSetIsValid bool
	// IsExisting reports whether the project declares Framework.
	IsExisting bool

	id int64
}

func newProjectTarget(details *project.Details, tf framework.TargetFramework, refs []*ProjectTarget) *ProjectTarget {
	links := dag.NewLinks(details.Valid, refs)

	set := []framework.TargetFramework{tf}
	for _, r := range links.AllReferences() {
		if !framework.Contains(set, r.Framework) {
			set = append(set, r.Framework)
		}
	}
	slices.SortFunc(set, framework.TargetFramework.Compare)

	t := &ProjectTarget{
		Details:             details,
		Framework:           tf,
		FrameworkSet:        set,
		FrameworkSetIsValid: framework.SetIsValid(tf, set),
		IsExisting:          details.DeclaresFramework(tf),
		id:                  TargetID(tf, details.ID),
	}
	t.Links = links.Restrict(t.IsExisting && t.FrameworkSetIsValid)
	return t
}

// ID implements dag.Node.
func (t *ProjectTarget) ID() int64 { return t.id }

// Key implements dag.Node.
func (t *ProjectTarget) Key() string { return t.Details.Path.String() }

func (t *ProjectTarget) Name() string { return t.Details.Name }

func (t *ProjectTarget) Path() project.Path { return t.Details.Path }

func (t *ProjectTarget) IsTestProject() bool { return t.Details.IsTestProject() }

func (t *ProjectTarget) String() string {
	return t.Details.Name + " (" + t.Framework.String() + ")"
}
