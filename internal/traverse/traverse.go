// Package traverse answers read-only queries over a graph filtered by the
// current state assignment. Nothing here caches across calls: the registry
// may change between queries, so every result is recomputed fresh from the
// graph's declaration-order edge lists.
package traverse

import (
	"github.com/mwfarrell/flowgraph/internal/graph"
	"github.com/mwfarrell/flowgraph/internal/state"
)

// TraversableEdgesFrom returns the edges leaving from whose constraint sets
// are satisfied under reg's current assignment, in declaration order.
func TraversableEdgesFrom(g *graph.Graph, reg *state.Registry, from string) []*graph.Edge {
	var out []*graph.Edge
	for _, e := range g.EdgesFrom(from) {
		if reg.Satisfied(e.Constraints) {
			out = append(out, e)
		}
	}
	return out
}

// TraversableEdgesInto is the inbound counterpart of TraversableEdgesFrom.
// Flow-rate computations need a segment's live parents.
func TraversableEdgesInto(g *graph.Graph, reg *state.Registry, to string) []*graph.Edge {
	var out []*graph.Edge
	for _, e := range g.EdgesInto(to) {
		if reg.Satisfied(e.Constraints) {
			out = append(out, e)
		}
	}
	return out
}

// ReachableFrom returns the names of all segments reachable from start via
// zero or more traversable edges, in BFS discovery order. The start segment
// is always included when it exists; an unknown name yields nil. Each
// segment is visited at most once, so cycles terminate.
func ReachableFrom(g *graph.Graph, reg *state.Registry, start string) []string {
	if g.Segment(start) == nil {
		return nil
	}
	visited := map[string]struct{}{start: {}}
	order := []string{start}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range TraversableEdgesFrom(g, reg, cur) {
			if _, seen := visited[e.To]; seen {
				continue
			}
			visited[e.To] = struct{}{}
			order = append(order, e.To)
			queue = append(queue, e.To)
		}
	}
	return order
}

// FindPath returns the first path from source to dest discovered by BFS in
// edge-declaration order, as an ordered segment-name sequence including both
// endpoints. The second result is false when dest is unreachable (not an
// error). For a fixed graph, declaration order, and state assignment the
// same path is returned on every call.
func FindPath(g *graph.Graph, reg *state.Registry, source, dest string) ([]string, bool) {
	if g.Segment(source) == nil || g.Segment(dest) == nil {
		return nil, false
	}
	if source == dest {
		return []string{source}, true
	}
	parent := map[string]string{source: ""}
	queue := []string{source}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range TraversableEdgesFrom(g, reg, cur) {
			if _, seen := parent[e.To]; seen {
				continue
			}
			parent[e.To] = cur
			if e.To == dest {
				return buildPath(parent, source, dest), true
			}
			queue = append(queue, e.To)
		}
	}
	return nil, false
}

func buildPath(parent map[string]string, source, dest string) []string {
	var rev []string
	for cur := dest; cur != ""; cur = parent[cur] {
		rev = append(rev, cur)
		if cur == source {
			break
		}
	}
	path := make([]string, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}
	return path
}

// AllPaths enumerates every simple path from source to dest by DFS in
// edge-declaration order. Used by consumers that must detect ambiguous
// routing (more than one live path) rather than just pick one.
func AllPaths(g *graph.Graph, reg *state.Registry, source, dest string) [][]string {
	if g.Segment(source) == nil || g.Segment(dest) == nil {
		return nil
	}
	var paths [][]string
	onPath := map[string]struct{}{}
	var walk func(cur string, path []string)
	walk = func(cur string, path []string) {
		onPath[cur] = struct{}{}
		path = append(path, cur)
		if cur == dest {
			paths = append(paths, append([]string(nil), path...))
		} else {
			for _, e := range TraversableEdgesFrom(g, reg, cur) {
				if _, visiting := onPath[e.To]; visiting {
					continue
				}
				walk(e.To, path)
			}
		}
		delete(onPath, cur)
	}
	walk(source, nil)
	return paths
}

// PathVolume sums the volumes of the segments on a path. Unknown names
// contribute 0. Pure function over a path result; nothing is stored.
func PathVolume(g *graph.Graph, path []string) float64 {
	total := 0.0
	for _, name := range path {
		if s := g.Segment(name); s != nil {
			total += s.Volume()
		}
	}
	return total
}
