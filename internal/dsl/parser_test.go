package dsl_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/mwfarrell/flowgraph/internal/dsl"
	"github.com/mwfarrell/flowgraph/internal/graph"
	"github.com/mwfarrell/flowgraph/internal/state"
	"github.com/mwfarrell/flowgraph/internal/traverse"
)

func parse(t *testing.T, src string) (*graph.Graph, *state.Registry) {
	t.Helper()
	g := graph.New()
	reg := state.NewRegistry()
	if err := dsl.Parse(src, g, reg); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return g, reg
}

func TestParseDeclarationLine(t *testing.T) {
	g, _ := parse(t, "Syringe_1:0, Reactor:700, Waste,,  ,,\nline_b1:200")
	if got := g.SegmentCount(); got != 4 {
		t.Fatalf("SegmentCount = %d, want 4", got)
	}
	if v := g.Segment("Reactor").Volume(); v != 700 {
		t.Fatalf("Reactor volume = %g, want 700", v)
	}
	if v := g.Segment("Waste").Volume(); v != 0 {
		t.Fatalf("Waste volume = %g, want 0 (default)", v)
	}
	if !g.Segment("Syringe_1").VolumeSet() {
		t.Fatal("explicit :0 must mark the volume initialized")
	}
}

func TestParseChainCreatesEdgesInOrder(t *testing.T) {
	g, _ := parse(t, "A > B > C > D")
	if got := g.EdgeCount(); got != 3 {
		t.Fatalf("EdgeCount = %d, want 3", got)
	}
	wantPairs := [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}}
	for i, e := range g.Edges() {
		if e.From != wantPairs[i][0] || e.To != wantPairs[i][1] {
			t.Fatalf("edge %d = %s→%s, want %s→%s", i, e.From, e.To, wantPairs[i][0], wantPairs[i][1])
		}
	}
}

func TestConstraintAppliesToLastEdgeOnly(t *testing.T) {
	g, _ := parse(t, "A > B > C | g:v1")
	edges := g.Edges()
	if !edges[0].Constraints.Empty() {
		t.Fatalf("A→B must be unconstrained, got %v", edges[0].Constraints)
	}
	if edges[1].Constraints.Empty() || !edges[1].Constraints.Allows("g", "v1") {
		t.Fatalf("B→C must be constrained to g=v1, got %v", edges[1].Constraints)
	}
}

func TestDoubleBarAppliesToAllEdges(t *testing.T) {
	g, _ := parse(t, "A > B > C || g:v1")
	for i, e := range g.Edges() {
		if e.Constraints.Empty() {
			t.Fatalf("edge %d must carry the constraint", i)
		}
		if vs := e.Constraints.AllowedValues("g"); len(vs) != 1 || vs[0] != "v1" {
			t.Fatalf("edge %d constraint = %v, want g:v1", i, e.Constraints)
		}
	}
}

func TestRepeatedGroupIsOrAlternative(t *testing.T) {
	src := strings.Join([]string{
		"Bottle_1 > t1 > t2 | r:refill_1",
		"t2 > RSyr_1 | r:refill_1, r:refill_2",
	}, "\n")
	g, reg := parse(t, src)

	edgeTraversable := func() bool {
		for _, e := range traverse.TraversableEdgesFrom(g, reg, "t2") {
			if e.To == "RSyr_1" {
				return true
			}
		}
		return false
	}

	if edgeTraversable() {
		t.Fatal("t2→RSyr_1 must be gated while r is unset")
	}
	for _, v := range []string{"refill_1", "refill_2"} {
		if err := reg.SetActive("r", v); err != nil {
			t.Fatal(err)
		}
		if !edgeTraversable() {
			t.Fatalf("t2→RSyr_1 must be traversable for r=%s", v)
		}
	}
	if err := reg.SetActive("r", "drive"); err != nil {
		t.Fatal(err)
	}
	if edgeTraversable() {
		t.Fatal("t2→RSyr_1 must not be traversable for r=drive")
	}
}

func TestVolumeFirstValueWinsAcrossLines(t *testing.T) {
	g, _ := parse(t, "t1:50\nt1:99 > t2\nt2:10, t1:123")
	if v := g.Segment("t1").Volume(); v != 50 {
		t.Fatalf("t1 volume = %g, want the first value 50", v)
	}
	if v := g.Segment("t2").Volume(); v != 10 {
		t.Fatalf("t2 volume = %g, want 10", v)
	}
}

func TestCommentsAndBlankLines(t *testing.T) {
	src := strings.Join([]string{
		"# full-line comment",
		"",
		"   ",
		"A > B | g:v1  # trailing comment with > and | inside",
	}, "\n")
	g, _ := parse(t, src)
	if got := g.EdgeCount(); got != 1 {
		t.Fatalf("EdgeCount = %d, want 1", got)
	}
}

func TestParseConstraintValuesDeclared(t *testing.T) {
	_, reg := parse(t, "A > B | selector_1:refill_1, valve_1:through")
	reg.SetStrict(true)
	if err := reg.SetActive("selector_1", "refill_1"); err != nil {
		t.Fatalf("value seen in a constraint must be declared: %v", err)
	}
	if err := reg.SetActive("valve_1", "refill_1"); err == nil {
		t.Fatal("value never seen for valve_1 must be rejected in strict mode")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		line int
	}{
		{"both constraint tokens", "A > B | g:v || h:u", 1},
		{"constraint without chain", "A | g:v", 1},
		{"constraint without chain double bar", "lonely || g:v", 1},
		{"bare constraint line", " | g:v", 1},
		{"missing volume side", "A: > B", 1},
		{"missing name side", ":5, B", 1},
		{"double colon", "A:5:6", 1},
		{"non-numeric volume", "A:abc > B", 1},
		{"negative volume", "A:-4 > B", 1},
		{"constraint missing value", "A > B | g:", 1},
		{"constraint missing group", "A > B | :v", 1},
		{"constraint not a pair", "A > B | justaword", 1},
		{"empty constraint entry", "A > B | g:v,", 1},
		{"half-spaced connect", "A >B, C", 1},
		{"half-spaced connect right", "A, B> C", 1},
		{"half-spaced pipe", "A > B |g:v", 1},
		{"error carries later line number", "A > B\nC > D\nE >F", 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := graph.New()
			reg := state.NewRegistry()
			err := dsl.Parse(tc.src, g, reg)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tc.src)
			}
			var perr *dsl.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error type = %T, want *ParseError", err)
			}
			if perr.Line != tc.line {
				t.Fatalf("error line = %d, want %d (%v)", perr.Line, tc.line, err)
			}
		})
	}
}

func TestParseFailFastKeepsEarlierLines(t *testing.T) {
	g := graph.New()
	reg := state.NewRegistry()
	err := dsl.Parse("A > B\nC >D", g, reg)
	if err == nil {
		t.Fatal("want error from line 2")
	}
	if g.Segment("A") == nil || g.Segment("B") == nil {
		t.Fatal("line 1 results must survive a later parse error")
	}
	if g.Segment("C") != nil {
		t.Fatal("nothing from the failed line may be applied")
	}
}

func TestNamesWithEmbeddedArrowsAreLegal(t *testing.T) {
	g, _ := parse(t, "sel->vlv:50, vlv->rxt:80\nsel->vlv > vlv->rxt")
	if g.Segment("sel->vlv") == nil || g.Segment("vlv->rxt") == nil {
		t.Fatal("names containing '->' must parse")
	}
	if got := g.EdgeCount(); got != 1 {
		t.Fatalf("EdgeCount = %d, want 1", got)
	}
}

// Building the same network via direct API calls and via the DSL must agree
// on reachability for every assignment tested.
func TestDSLMatchesDirectAPI(t *testing.T) {
	src := strings.Join([]string{
		"feed:100",
		"feed > reactor | valve:through",
		"feed > bypass | valve:bypass",
		"reactor > out",
		"bypass > out",
	}, "\n")
	gDSL, regDSL := parse(t, src)

	gAPI := graph.New()
	regAPI := state.NewRegistry()
	gAPI.AddSegment("feed")
	gAPI.SetVolume("feed", 100)
	gAPI.AddEdge("feed", "reactor", state.NewConstraintSet([2]string{"valve", "through"}))
	gAPI.AddEdge("feed", "bypass", state.NewConstraintSet([2]string{"valve", "bypass"}))
	gAPI.AddEdge("reactor", "out", state.ConstraintSet{})
	gAPI.AddEdge("bypass", "out", state.ConstraintSet{})

	for _, assign := range []string{"", "through", "bypass", "stuck"} {
		if assign != "" {
			if err := regDSL.SetActive("valve", assign); err != nil {
				t.Fatal(err)
			}
			if err := regAPI.SetActive("valve", assign); err != nil {
				t.Fatal(err)
			}
		}
		got := traverse.ReachableFrom(gDSL, regDSL, "feed")
		want := traverse.ReachableFrom(gAPI, regAPI, "feed")
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("valve=%q: DSL reachability %v != direct API %v", assign, got, want)
		}
	}
}
