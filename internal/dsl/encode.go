package dsl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mwfarrell/flowgraph/internal/graph"
)

// SourcePort binds an upstream source segment to a selector valve port.
type SourcePort struct {
	Name string
	Port int
}

// EncodeSelectorValve generates the statement block wiring multiple sources
// through an N-port selector valve into a syringe and back out to an outlet.
// Tubing names are derived as lower(a)_lower(b) for the segments they join.
//
// Each source refills the syringe under its own refill_<port> state; the
// shared selector→syringe tube accepts any refill state; driving pushes the
// syringe back through the tube to the outlet.
func EncodeSelectorValve(sources []SourcePort, selector, syringe, outlet, prefix string) string {
	selToSyr := fmt.Sprintf("%s_%s", strings.ToLower(selector), strings.ToLower(syringe))
	group := strings.ToLower(selector)

	lines := []string{"\n" + prefix + "# <Auto-generated segment for selector valve inputs>"}
	var refills []string
	for _, src := range sources {
		tubing := fmt.Sprintf("%s_%s", strings.ToLower(src.Name), strings.ToLower(selector))
		refill := fmt.Sprintf("%s:refill_%d", group, src.Port)
		lines = append(lines, fmt.Sprintf("%s > %s > %s | %s", src.Name, tubing, selToSyr, refill))
		refills = append(refills, refill)
	}
	lines = append(lines, fmt.Sprintf("%s > %s | %s", selToSyr, syringe, strings.Join(refills, ", ")))
	lines = append(lines, fmt.Sprintf("%s > %s > %s || %s:drive", syringe, selToSyr, outlet, group))
	lines = append(lines, "# </Auto-generated segment>\n")

	return strings.Join(lines, "\n"+prefix)
}

// GenerateHeader emits a declaration block ("name:volume, ...") for every
// segment of g, ordered inputs first, then inner segments, then outputs, so
// a regenerated description file initializes all volumes up front. Lines
// wrap at width columns and carry prefix for indentation.
func GenerateHeader(g *graph.Graph, width int, prefix string) string {
	segs := g.Segments()
	sort.SliceStable(segs, func(i, j int) bool {
		return len(g.EdgesFrom(segs[i].Name)) > len(g.EdgesFrom(segs[j].Name))
	})
	sort.SliceStable(segs, func(i, j int) bool {
		return len(g.EdgesInto(segs[i].Name)) > len(g.EdgesInto(segs[j].Name))
	})

	var inputs, inner, outputs []string
	for _, s := range segs {
		entry := fmt.Sprintf("%s:%g, ", s.Name, s.Volume())
		switch {
		case len(g.EdgesInto(s.Name)) == 0:
			inputs = append(inputs, entry)
		case len(g.EdgesFrom(s.Name)) == 0:
			outputs = append(outputs, entry)
		default:
			inner = append(inner, entry)
		}
	}

	var b strings.Builder
	b.WriteString("\n" + prefix + "# <Auto-generated header segment>\n" + prefix)
	col := len(prefix)
	for _, entry := range append(append(inputs, inner...), outputs...) {
		if col+len(entry) > width {
			b.WriteString("\n" + prefix)
			col = len(prefix)
		}
		b.WriteString(entry)
		col += len(entry)
	}
	b.WriteString("\n" + prefix + "# </Auto-generated segment>\n")
	return b.String()
}
