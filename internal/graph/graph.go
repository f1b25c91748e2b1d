// Package graph holds the conditional flow network: segments (nodes) and
// directed, constraint-annotated edges. One Graph owns all segments and
// edges of one logical network; it stores a single structural snapshot and
// holds no per-state variants — traversal filters edges against a
// state.Registry at query time.
package graph

import "github.com/mwfarrell/flowgraph/internal/state"

// Graph owns segments keyed by name and edges in declaration order.
// Declaration order is significant: traversal tie-breaks follow it, so
// queries are deterministic for a fixed build sequence.
type Graph struct {
	segments map[string]*Segment
	order    []string // segment names in first-reference order
	edges    []*Edge  // declaration order
	out      map[string][]*Edge
	in       map[string][]*Edge
}

// New allocates an empty Graph.
func New() *Graph {
	return &Graph{
		segments: make(map[string]*Segment),
		out:      make(map[string][]*Edge),
		in:       make(map[string][]*Edge),
	}
}

// AddSegment creates the segment on first reference and returns it.
// Re-declaring an existing name is a no-op.
func (g *Graph) AddSegment(name string) *Segment {
	if s, ok := g.segments[name]; ok {
		return s
	}
	s := &Segment{Name: name}
	g.segments[name] = s
	g.order = append(g.order, name)
	return s
}

// SetVolume initializes the segment's volume, creating the segment if
// absent. First value wins: the call reports whether the write took effect.
// A differing volume on an already-initialized segment is not an error.
func (g *Graph) SetVolume(name string, volume float64) bool {
	return g.AddSegment(name).setVolume(volume)
}

// AddEdge appends a directed edge, auto-creating missing endpoints with
// default volume. Duplicate (from, to) pairs with different constraint sets
// and independent reverse edges are all allowed.
func (g *Graph) AddEdge(from, to string, cs state.ConstraintSet) *Edge {
	g.AddSegment(from)
	g.AddSegment(to)
	e := &Edge{From: from, To: to, Constraints: cs}
	g.edges = append(g.edges, e)
	g.out[from] = append(g.out[from], e)
	g.in[to] = append(g.in[to], e)
	return e
}

// Segment returns a segment by name (nil if not found).
func (g *Graph) Segment(name string) *Segment {
	return g.segments[name]
}

// Segments returns all segments in first-reference order.
func (g *Graph) Segments() []*Segment {
	out := make([]*Segment, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.segments[name])
	}
	return out
}

// EdgesFrom returns the edges whose source is name, in declaration order.
func (g *Graph) EdgesFrom(name string) []*Edge {
	return g.out[name]
}

// EdgesInto returns the edges whose destination is name, in declaration order.
func (g *Graph) EdgesInto(name string) []*Edge {
	return g.in[name]
}

// Edges returns every edge in declaration order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// SegmentCount returns the number of segments.
func (g *Graph) SegmentCount() int {
	return len(g.segments)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// RemoveEdge removes every edge between from and to, in either constraint
// variant, preserving the declaration order of the rest.
func (g *Graph) RemoveEdge(from, to string) int {
	removed := 0
	keep := func(e *Edge) bool { return e.From != from || e.To != to }
	g.edges, removed = filterEdges(g.edges, keep)
	g.out[from], _ = filterEdges(g.out[from], keep)
	g.in[to], _ = filterEdges(g.in[to], keep)
	return removed
}

// RemoveSegment deletes the segment and cascade-removes every edge touching
// it. Removing an unknown name is a no-op.
func (g *Graph) RemoveSegment(name string) {
	if _, ok := g.segments[name]; !ok {
		return
	}
	keep := func(e *Edge) bool { return e.From != name && e.To != name }
	g.edges, _ = filterEdges(g.edges, keep)
	for n := range g.out {
		g.out[n], _ = filterEdges(g.out[n], keep)
	}
	for n := range g.in {
		g.in[n], _ = filterEdges(g.in[n], keep)
	}
	delete(g.out, name)
	delete(g.in, name)
	delete(g.segments, name)
	for i, n := range g.order {
		if n == name {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

func filterEdges(edges []*Edge, keep func(*Edge) bool) ([]*Edge, int) {
	out := edges[:0]
	removed := 0
	for _, e := range edges {
		if keep(e) {
			out = append(out, e)
		} else {
			removed++
		}
	}
	// Nil out the tail so removed edges are collectable.
	for i := len(out); i < len(edges); i++ {
		edges[i] = nil
	}
	return out, removed
}
