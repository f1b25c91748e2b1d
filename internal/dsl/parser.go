// Package dsl parses the line-oriented flow-network description format and
// incrementally populates a graph.Graph and state.Registry.
//
// Grammar per line (whitespace-tolerant, one statement per line):
//
//	Node:         name(:volume)
//	Declarations: node, node, ...            (line without a " > " token)
//	Connection:   node > node ( > node ...)
//	Constraint:   group:value(, group:value ...)
//	Constrained:  connection | constraint    (applies to the LAST edge)
//	Constrained:  connection || constraint   (applies to ALL edges)
//	Comment:      # anything to end of line
//
// The ">", "|", and "||" tokens must be surrounded by at least one space on
// both sides, which keeps segment names like "sel->vlv" legal. Repeated
// group:value pairs for the same group merge into one OR alternative of a
// single constraint set; pairs for distinct groups must all hold (AND).
package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mwfarrell/flowgraph/internal/graph"
	"github.com/mwfarrell/flowgraph/internal/state"
)

const (
	tokConnect  = " > "
	tokDetail   = ":"
	tokFinal    = " | "
	tokAll      = " || "
	tokComment  = "#"
	tokListSep  = ","
)

// ParseError reports a malformed statement. Parsing is fail-fast: the first
// bad line aborts the whole import so callers never observe a partial graph.
type ParseError struct {
	Line int    // 1-based line number
	Text string // offending line, comment stripped
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dsl: line %d: %s (%q)", e.Line, e.Msg, e.Text)
}

// constraintMode says which edges of a chain a constraint list applies to.
type constraintMode int

const (
	modeNone  constraintMode = iota
	modeFinal                // " | "  — last edge only
	modeAll                  // " || " — every edge on the line
)

// Parse interprets src line by line, adding segments, edges, and state
// declarations to g and reg. On error, g and reg retain everything added by
// the lines preceding the bad one.
func Parse(src string, g *graph.Graph, reg *state.Registry) error {
	for idx, raw := range strings.Split(src, "\n") {
		line := stripComment(raw)
		if line == "" {
			continue
		}
		if err := parseLine(idx+1, line, g, reg); err != nil {
			return err
		}
	}
	return nil
}

func stripComment(raw string) string {
	if i := strings.Index(raw, tokComment); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

func parseLine(n int, line string, g *graph.Graph, reg *state.Registry) error {
	if err := checkSpacing(n, line); err != nil {
		return err
	}

	chain, constraints, mode, err := splitPhrases(n, line)
	if err != nil {
		return err
	}

	if mode == modeNone && !strings.Contains(chain, tokConnect) {
		return parseDeclarations(n, line, chain, g)
	}
	if !strings.Contains(chain, tokConnect) {
		return &ParseError{n, line, "a constraint requires a connection chain ('A > B')"}
	}

	cs, err := parseConstraints(n, line, constraints, reg)
	if err != nil {
		return err
	}

	names := strings.Split(chain, tokConnect)
	for i, tok := range names {
		name, err := declareSegment(n, line, tok, g)
		if err != nil {
			return err
		}
		names[i] = name
	}

	lastEdge := len(names) - 2
	for i := 0; i+1 < len(names); i++ {
		edgeCS := state.ConstraintSet{}
		if mode == modeAll || (mode == modeFinal && i == lastEdge) {
			edgeCS = cs
		}
		g.AddEdge(names[i], names[i+1], edgeCS)
	}
	return nil
}

// checkSpacing rejects the near-miss token forms the format is prone to.
// A bare ">" or "|" embedded in a name (e.g. "sel->vlv") stays legal; the
// half-spaced variants are always typos.
func checkSpacing(n int, line string) error {
	if !strings.Contains(line, tokConnect) &&
		(strings.Contains(line, " >") || strings.Contains(line, "> ")) {
		return &ParseError{n, line, "'>' must be surrounded by spaces (' > ')"}
	}
	bare := strings.ReplaceAll(line, tokAll, "")
	bare = strings.ReplaceAll(bare, tokFinal, "")
	if strings.Contains(bare, " |") || strings.Contains(bare, "| ") {
		return &ParseError{n, line, "'|' must be surrounded by spaces (' | ' or ' || ')"}
	}
	if strings.Contains(line, ": ") || strings.Contains(line, " :") {
		return &ParseError{n, line, "':' must not be surrounded by spaces"}
	}
	return nil
}

// splitPhrases separates the connection chain from a trailing constraint
// list and reports which edges the constraints target.
func splitPhrases(n int, line string) (chain, constraints string, mode constraintMode, err error) {
	hasAll := strings.Contains(line, tokAll)
	hasFinal := strings.Contains(strings.ReplaceAll(line, tokAll, " @@ "), tokFinal)
	switch {
	case hasAll && hasFinal:
		return "", "", modeNone, &ParseError{n, line, "a line cannot contain both '||' and '|'"}
	case hasAll:
		parts := strings.SplitN(line, tokAll, 2)
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), modeAll, nil
	case hasFinal:
		parts := strings.SplitN(line, tokFinal, 2)
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), modeFinal, nil
	default:
		return line, "", modeNone, nil
	}
}

// parseDeclarations handles a bare comma-separated list of node
// declarations; empty entries (stray commas) are skipped.
func parseDeclarations(n int, line, list string, g *graph.Graph) error {
	for _, entry := range strings.Split(list, tokListSep) {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		if _, err := declareSegment(n, line, entry, g); err != nil {
			return err
		}
	}
	return nil
}

// declareSegment registers one "name" or "name:volume" token and returns the
// segment name. Volume initialization is first-value-wins: a differing value
// for an already-initialized segment is silently ignored.
func declareSegment(n int, line, tok string, g *graph.Graph) (string, error) {
	tok = strings.TrimSpace(tok)
	name, detail, hasDetail, err := splitDetail(n, line, tok)
	if err != nil {
		return "", err
	}
	if strings.ContainsAny(name, " \t") {
		return "", &ParseError{n, line, fmt.Sprintf("segment name %q contains whitespace", name)}
	}
	if !hasDetail {
		g.AddSegment(name)
		return name, nil
	}
	volume, err2 := strconv.ParseFloat(detail, 64)
	if err2 != nil {
		return "", &ParseError{n, line, fmt.Sprintf("invalid volume %q for segment %q", detail, name)}
	}
	if volume < 0 {
		return "", &ParseError{n, line, fmt.Sprintf("negative volume %g for segment %q", volume, name)}
	}
	g.AddSegment(name)
	g.SetVolume(name, volume)
	return name, nil
}

// parseConstraints builds one constraint set from a comma-separated
// "group:value" list and declares each value to the registry.
func parseConstraints(n int, line, list string, reg *state.Registry) (state.ConstraintSet, error) {
	cs := state.ConstraintSet{}
	if list == "" {
		return cs, nil
	}
	for _, entry := range strings.Split(list, tokListSep) {
		entry = strings.TrimSpace(entry)
		group, value, hasDetail, err := splitDetail(n, line, entry)
		if err != nil {
			return cs, err
		}
		if !hasDetail {
			return cs, &ParseError{n, line, fmt.Sprintf("constraint %q must be 'group:value'", entry)}
		}
		if strings.ContainsAny(group+value, " \t") {
			return cs, &ParseError{n, line, fmt.Sprintf("constraint %q contains whitespace", entry)}
		}
		cs = cs.Add(group, value)
		reg.DeclareValue(group, value)
	}
	return cs, nil
}

// splitDetail splits a "left:right" token, enforcing exactly one ':' with
// both sides non-empty when a detail is present.
func splitDetail(n int, line, tok string) (left, right string, hasDetail bool, err error) {
	switch strings.Count(tok, tokDetail) {
	case 0:
		if tok == "" {
			return "", "", false, &ParseError{n, line, "empty token"}
		}
		return tok, "", false, nil
	case 1:
		parts := strings.SplitN(tok, tokDetail, 2)
		left, right = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if left == "" || right == "" {
			return "", "", false, &ParseError{n, line, fmt.Sprintf("malformed detail %q (missing one side of ':')", tok)}
		}
		return left, right, true, nil
	default:
		return "", "", false, &ParseError{n, line, fmt.Sprintf("token %q has more than one ':'", tok)}
	}
}
