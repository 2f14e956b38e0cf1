// Package dag provides a generic height-indexed directed acyclic graph.
//
// Nodes know their own references, so the graph never stores edges. It only
// indexes nodes by id, by key and by height. A node's height is the length of
// its longest reference chain, so every dependency sits at a strictly lower
// height than its dependents. Walking heights upward therefore visits
// dependencies before the projects that use them.
package dag

import (
	"slices"
)

// Node is implemented by every node flavour stored in a Graph.
type Node[N any] interface {
	// ID uniquely identifies the node within a graph.
	ID() int64
	// Key is the canonical project path, used for membership tests by path.
	Key() string
	Valid() bool
	Height() int
	References() []N
	TransitiveReferences() []N
	// DependsOn reports whether id is a direct or transitive reference.
	DependsOn(id int64) bool
}

// Graph owns a closed set of nodes: every reference of a present node is
// also present.
type Graph[N Node[N]] struct {
	nodes   map[int64]N
	keys    map[string]int
	heights map[int][]N
	invalid []N
}

// NewGraph creates an empty graph seeded with nodes.
func NewGraph[N Node[N]](nodes ...N) *Graph[N] {
	g := &Graph[N]{
		nodes:   make(map[int64]N),
		keys:    make(map[string]int),
		heights: make(map[int][]N),
	}
	for _, n := range nodes {
		g.AddNode(n)
	}
	return g
}

// AddNode inserts n and every reference it pulls in. It returns the number of
// nodes added, zero when n is already present.
func (g *Graph[N]) AddNode(n N) int {
	if g.Contains(n.ID()) {
		return 0
	}

	g.insert(n)
	added := 1

	for _, ref := range n.References() {
		if !g.Contains(ref.ID()) {
			g.insert(ref)
			added++
		}
	}
	for _, ref := range n.TransitiveReferences() {
		if !g.Contains(ref.ID()) {
			g.insert(ref)
			added++
		}
	}

	return added
}

// RemoveSubtree removes n and every node that depends on it, returning the
// number of nodes removed. Only nodes above n can depend on it, so the sweep
// stops at n's height.
func (g *Graph[N]) RemoveSubtree(n N) int {
	if !g.Contains(n.ID()) {
		return 0
	}

	g.remove(n)
	removed := 1

	for _, candidate := range g.ReverseTopologicalSort() {
		if candidate.Height() <= n.Height() {
			continue
		}
		if candidate.DependsOn(n.ID()) {
			g.remove(candidate)
			removed++
		}
	}

	return removed
}

func (g *Graph[N]) insert(n N) {
	g.nodes[n.ID()] = n
	g.keys[n.Key()]++
	g.heights[n.Height()] = append(g.heights[n.Height()], n)
	if !n.Valid() {
		g.invalid = append(g.invalid, n)
	}
}

func (g *Graph[N]) remove(n N) {
	id := n.ID()
	delete(g.nodes, id)

	if g.keys[n.Key()] <= 1 {
		delete(g.keys, n.Key())
	} else {
		g.keys[n.Key()]--
	}

	h := n.Height()
	bucket := slices.DeleteFunc(g.heights[h], func(m N) bool { return m.ID() == id })
	if len(bucket) == 0 {
		delete(g.heights, h)
	} else {
		g.heights[h] = bucket
	}

	g.invalid = slices.DeleteFunc(g.invalid, func(m N) bool { return m.ID() == id })
}

// sortedHeights returns the occupied heights in ascending order.
func (g *Graph[N]) sortedHeights() []int {
	hs := make([]int, 0, len(g.heights))
	for h := range g.heights {
		hs = append(hs, h)
	}
	slices.Sort(hs)
	return hs
}

// TopologicalSort returns dependents before their dependencies.
func (g *Graph[N]) TopologicalSort() []N {
	var out []N
	for _, level := range g.EnumerateTopDown() {
		out = append(out, level...)
	}
	return out
}

// ReverseTopologicalSort returns dependencies before their dependents.
func (g *Graph[N]) ReverseTopologicalSort() []N {
	var out []N
	for _, level := range g.EnumerateBottomUp() {
		out = append(out, level...)
	}
	return out
}

// EnumerateBottomUp groups nodes by height, lowest first.
func (g *Graph[N]) EnumerateBottomUp() [][]N {
	hs := g.sortedHeights()
	levels := make([][]N, 0, len(hs))
	for _, h := range hs {
		levels = append(levels, slices.Clone(g.heights[h]))
	}
	return levels
}

// EnumerateTopDown groups nodes by height, highest first.
func (g *Graph[N]) EnumerateTopDown() [][]N {
	levels := g.EnumerateBottomUp()
	slices.Reverse(levels)
	return levels
}

// NodesAtHeight returns the nodes at height h.
func (g *Graph[N]) NodesAtHeight(h int) ([]N, bool) {
	nodes, ok := g.heights[h]
	return slices.Clone(nodes), ok
}

// Contains reports whether a node with id is present.
func (g *Graph[N]) Contains(id int64) bool {
	_, ok := g.nodes[id]
	return ok
}

// ContainsKey reports whether any node for the project at key is present.
func (g *Graph[N]) ContainsKey(key string) bool {
	return g.keys[key] > 0
}

// TryGetNode looks a node up by id.
func (g *Graph[N]) TryGetNode(id int64) (N, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node ordered by id.
func (g *Graph[N]) Nodes() []N {
	out := make([]N, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b N) int { return compareID(a.ID(), b.ID()) })
	return out
}

// InvalidNodes returns the invalid nodes in insertion order.
func (g *Graph[N]) InvalidNodes() []N {
	return slices.Clone(g.invalid)
}

// HasInvalidNodes reports whether any present node is invalid.
func (g *Graph[N]) HasInvalidNodes() bool {
	return len(g.invalid) > 0
}

// Count returns the number of nodes.
func (g *Graph[N]) Count() int {
	return len(g.nodes)
}

// MaxHeight returns the greatest occupied height, zero for an empty graph.
func (g *Graph[N]) MaxHeight() int {
	maxHeight := 0
	for h := range g.heights {
		maxHeight = max(maxHeight, h)
	}
	return maxHeight
}

func compareID(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
