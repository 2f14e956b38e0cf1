package dag

import "slices"

// Links holds the structural fields shared by every node flavour. Node types
// embed it and add their own identity on top. All fields are derived once by
// NewLinks and never change.
type Links[N any] struct {
	references []N
	transitive []N
	all        []N
	required   []N
	redundant  []N
	allIDs     map[int64]struct{}
	height     int
	valid      bool
}

// NewLinks derives height, validity and transitive references from the
// direct references. ownValid is the node's validity ignoring its references.
func NewLinks[N Node[N]](ownValid bool, references []N) Links[N] {
	l := Links[N]{
		references: uniqueByID(references),
		allIDs:     make(map[int64]struct{}),
		valid:      ownValid,
	}

	reachable := make(map[int64]N)
	for _, ref := range l.references {
		l.height = max(l.height, ref.Height()+1)
		l.valid = l.valid && ref.Valid()

		for _, r := range ref.References() {
			reachable[r.ID()] = r
		}
		for _, r := range ref.TransitiveReferences() {
			reachable[r.ID()] = r
		}
	}

	l.transitive = make([]N, 0, len(reachable))
	for _, r := range reachable {
		l.transitive = append(l.transitive, r)
	}
	sortByID(l.transitive)

	l.all = slices.Clone(l.transitive)
	for _, ref := range l.references {
		if _, ok := reachable[ref.ID()]; ok {
			l.redundant = append(l.redundant, ref)
		} else {
			l.required = append(l.required, ref)
			l.all = append(l.all, ref)
		}
	}
	sortByID(l.all)

	for _, n := range l.all {
		l.allIDs[n.ID()] = struct{}{}
	}

	return l
}

// Height returns 0 without references, else one more than the highest reference.
func (l *Links[N]) Height() int { return l.height }

// Valid is the node's own validity and that of all its direct references.
func (l *Links[N]) Valid() bool { return l.valid }

// References returns the direct references ordered by id.
func (l *Links[N]) References() []N { return l.references }

// TransitiveReferences returns nodes reachable through a direct reference.
func (l *Links[N]) TransitiveReferences() []N { return l.transitive }

// AllReferences returns direct and transitive references ordered by id.
func (l *Links[N]) AllReferences() []N { return l.all }

// DependsOn reports whether id is among the direct or transitive references.
func (l *Links[N]) DependsOn(id int64) bool {
	_, ok := l.allIDs[id]
	return ok
}

// Required returns the direct references not also reachable transitively.
// These are the edges drawn in a reduced graph.
func (l *Links[N]) Required() []N { return l.required }

// Redundant returns the direct references also reachable transitively.
func (l *Links[N]) Redundant() []N { return l.redundant }

func uniqueByID[N Node[N]](nodes []N) []N {
	seen := make(map[int64]struct{}, len(nodes))
	out := make([]N, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n.ID()]; dup {
			continue
		}
		seen[n.ID()] = struct{}{}
		out = append(out, n)
	}
	sortByID(out)
	return out
}

func sortByID[N Node[N]](nodes []N) {
	slices.SortFunc(nodes, func(a, b N) int { return compareID(a.ID(), b.ID()) })
}

// Restrict returns a copy of l that is also invalid when own is false. Node
// types whose own validity depends on derived references call it after
// NewLinks.
func (l Links[N]) Restrict(own bool) Links[N] {
	l.valid = l.valid && own
	return l
}
