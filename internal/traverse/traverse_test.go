package traverse_test

import (
	"reflect"
	"testing"

	"github.com/mwfarrell/flowgraph/internal/graph"
	"github.com/mwfarrell/flowgraph/internal/state"
	"github.com/mwfarrell/flowgraph/internal/traverse"
)

// valveNetwork builds a small switched network:
//
//	pump → feed → reactor   (valve:through)
//	       feed → bypass    (valve:bypass)
//	reactor → joiner, bypass → joiner, joiner → waste
func valveNetwork(t *testing.T) (*graph.Graph, *state.Registry) {
	t.Helper()
	g := graph.New()
	reg := state.NewRegistry()
	g.AddEdge("pump", "feed", state.ConstraintSet{})
	g.AddEdge("feed", "reactor", state.NewConstraintSet([2]string{"valve", "through"}))
	g.AddEdge("feed", "bypass", state.NewConstraintSet([2]string{"valve", "bypass"}))
	g.AddEdge("reactor", "joiner", state.ConstraintSet{})
	g.AddEdge("bypass", "joiner", state.ConstraintSet{})
	g.AddEdge("joiner", "waste", state.ConstraintSet{})
	return g, reg
}

func TestUnconstrainedEdgeAlwaysTraversable(t *testing.T) {
	g, reg := valveNetwork(t)

	assignments := []map[string]string{
		nil,
		{"valve": "through"},
		{"valve": "bypass"},
		{"valve": "weird"},
		{"other": "whatever"},
	}
	for _, assign := range assignments {
		reg = state.NewRegistry()
		for grp, v := range assign {
			if err := reg.SetActive(grp, v); err != nil {
				t.Fatal(err)
			}
		}
		edges := traverse.TraversableEdgesFrom(g, reg, "pump")
		if len(edges) != 1 || edges[0].To != "feed" {
			t.Fatalf("assignment %v: pump→feed must always be traversable, got %v", assign, edges)
		}
	}
}

func TestConstraintGatesEdgeImmediately(t *testing.T) {
	g, reg := valveNetwork(t)

	if got := traverse.TraversableEdgesFrom(g, reg, "feed"); len(got) != 0 {
		t.Fatalf("unset valve: feed must have no traversable edges, got %v", got)
	}

	if err := reg.SetActive("valve", "through"); err != nil {
		t.Fatal(err)
	}
	got := traverse.TraversableEdgesFrom(g, reg, "feed")
	if len(got) != 1 || got[0].To != "reactor" {
		t.Fatalf("valve=through: want feed→reactor only, got %v", got)
	}

	// Toggling removes the edge from the very next call, no other mutation.
	if err := reg.SetActive("valve", "bypass"); err != nil {
		t.Fatal(err)
	}
	got = traverse.TraversableEdgesFrom(g, reg, "feed")
	if len(got) != 1 || got[0].To != "bypass" {
		t.Fatalf("valve=bypass: want feed→bypass only, got %v", got)
	}
}

func TestReachableFromIncludesStartAndIsMonotonic(t *testing.T) {
	g, reg := valveNetwork(t)

	unset := traverse.ReachableFrom(g, reg, "pump")
	if len(unset) == 0 || unset[0] != "pump" {
		t.Fatalf("reachable set must include the start, got %v", unset)
	}

	if err := reg.SetActive("valve", "through"); err != nil {
		t.Fatal(err)
	}
	through := traverse.ReachableFrom(g, reg, "pump")

	// Setting a group can only satisfy more constraints: supersets only.
	for _, name := range unset {
		if !containsName(through, name) {
			t.Fatalf("reachable set shrank after SetActive: %q lost", name)
		}
	}
	want := []string{"pump", "feed", "reactor", "joiner", "waste"}
	if !reflect.DeepEqual(through, want) {
		t.Fatalf("reachable = %v, want %v", through, want)
	}
}

func TestReachableFromUnknownSegment(t *testing.T) {
	g, reg := valveNetwork(t)
	if got := traverse.ReachableFrom(g, reg, "nope"); got != nil {
		t.Fatalf("unknown segment: want nil, got %v", got)
	}
}

func TestReachableFromCycleSafe(t *testing.T) {
	g := graph.New()
	reg := state.NewRegistry()
	g.AddEdge("a", "b", state.ConstraintSet{})
	g.AddEdge("b", "c", state.ConstraintSet{})
	g.AddEdge("c", "a", state.ConstraintSet{})

	got := traverse.ReachableFrom(g, reg, "a")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("reachable = %v, want %v", got, want)
	}
}

func TestFindPathDeterministic(t *testing.T) {
	g, reg := valveNetwork(t)
	if err := reg.SetActive("valve", "through"); err != nil {
		t.Fatal(err)
	}

	first, found := traverse.FindPath(g, reg, "pump", "waste")
	if !found {
		t.Fatal("expected a path pump→waste")
	}
	want := []string{"pump", "feed", "reactor", "joiner", "waste"}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("path = %v, want %v", first, want)
	}
	for i := 0; i < 5; i++ {
		again, _ := traverse.FindPath(g, reg, "pump", "waste")
		if !reflect.DeepEqual(again, first) {
			t.Fatalf("path changed between calls: %v vs %v", again, first)
		}
	}
}

func TestFindPathNoRoute(t *testing.T) {
	g, reg := valveNetwork(t)
	// valve unset: reactor and bypass are both gated off.
	if path, found := traverse.FindPath(g, reg, "pump", "waste"); found {
		t.Fatalf("no path expected with valve unset, got %v", path)
	}
	// Unreachability is not an error, just a false result.
	if path, found := traverse.FindPath(g, reg, "waste", "pump"); found {
		t.Fatalf("no path expected against edge direction, got %v", path)
	}
}

func TestFindPathSameSegment(t *testing.T) {
	g, reg := valveNetwork(t)
	path, found := traverse.FindPath(g, reg, "pump", "pump")
	if !found || !reflect.DeepEqual(path, []string{"pump"}) {
		t.Fatalf("self path = %v, %v; want [pump], true", path, found)
	}
}

func TestAllPathsDiamond(t *testing.T) {
	g := graph.New()
	reg := state.NewRegistry()
	g.AddEdge("a", "b", state.ConstraintSet{})
	g.AddEdge("a", "c", state.ConstraintSet{})
	g.AddEdge("b", "d", state.ConstraintSet{})
	g.AddEdge("c", "d", state.ConstraintSet{})

	paths := traverse.AllPaths(g, reg, "a", "d")
	if len(paths) != 2 {
		t.Fatalf("AllPaths = %d paths, want 2: %v", len(paths), paths)
	}
	// Declaration order: the a→b branch is explored first.
	if !reflect.DeepEqual(paths[0], []string{"a", "b", "d"}) {
		t.Fatalf("first path = %v, want [a b d]", paths[0])
	}
}

func TestPathVolume(t *testing.T) {
	g, reg := valveNetwork(t)
	g.SetVolume("feed", 100)
	g.SetVolume("reactor", 700)
	g.SetVolume("joiner", 2)
	if err := reg.SetActive("valve", "through"); err != nil {
		t.Fatal(err)
	}
	path, _ := traverse.FindPath(g, reg, "pump", "waste")
	if got := traverse.PathVolume(g, path); got != 802 {
		t.Fatalf("PathVolume = %g, want 802", got)
	}
	if got := traverse.PathVolume(g, nil); got != 0 {
		t.Fatalf("PathVolume(nil) = %g, want 0", got)
	}
}

func containsName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
