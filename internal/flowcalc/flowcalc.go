// Package flowcalc computes flow-dependent quantities over a network: dead
// volume between segments, the dead time for new flow conditions to reach a
// target, and flow-stability ratios at junctions.
//
// It is a pure consumer of the traversal queries — nothing here is stored on
// the graph, and every computation reflects the registry's assignment at
// call time.
package flowcalc

import (
	"errors"
	"fmt"

	"github.com/mwfarrell/flowgraph/internal/graph"
	"github.com/mwfarrell/flowgraph/internal/state"
	"github.com/mwfarrell/flowgraph/internal/traverse"
)

var (
	// ErrAmbiguousPath means more than one live path exists between the two
	// segments, so a single cumulative quantity is undefined.
	ErrAmbiguousPath = errors.New("flowcalc: multiple live paths between segments")
	// ErrUnknownSegment means a named segment is not in the graph.
	ErrUnknownSegment = errors.New("flowcalc: unknown segment")
	// ErrNoConvergence means the flow-rate relaxation failed to settle.
	ErrNoConvergence = errors.New("flowcalc: flow rates failed to converge")
)

// relaxationCap bounds the rate-propagation loop; a well-formed network
// settles in O(longest path) iterations.
const relaxationCap = 1000

// Minutes is a duration in minutes of flow.
type Minutes float64

// Seconds converts to seconds.
func (m Minutes) Seconds() float64 { return float64(m) * 60 }

// Rates maps source segment names to their volumetric flow rates (uL/min).
type Rates map[string]float64

// Calc answers flow questions for one graph under one registry assignment.
type Calc struct {
	g   *graph.Graph
	reg *state.Registry
}

// New creates a Calc over g and reg.
func New(g *graph.Graph, reg *state.Registry) *Calc {
	return &Calc{g: g, reg: reg}
}

// DeadVolume is the cumulative volume from one segment to another along the
// single live path, excluding the final segment's own volume. The second
// result is false when the target is unreachable.
func (c *Calc) DeadVolume(from, to string) (float64, bool, error) {
	paths := traverse.AllPaths(c.g, c.reg, from, to)
	switch len(paths) {
	case 0:
		return 0, false, nil
	case 1:
		path := paths[0]
		total := traverse.PathVolume(c.g, path)
		return total - c.g.Segment(to).Volume(), true, nil
	default:
		return 0, false, fmt.Errorf("%w: %d paths from %q to %q", ErrAmbiguousPath, len(paths), from, to)
	}
}

// DeadTime is the time for updated flow conditions at the given sources to
// reach target: the slowest source's cumulative volume/rate along its live
// path, excluding the target segment itself. Sources absent from the graph
// or with no live path to target are skipped; with no contributing source
// the dead time is 0.
func (c *Calc) DeadTime(target string, rates Rates) (Minutes, error) {
	flows, contributors, err := c.solve(target, rates)
	if err != nil {
		return 0, err
	}
	worst := Minutes(0)
	for _, src := range contributors {
		d, err := c.durationTo(src, target, flows)
		if err != nil {
			return 0, err
		}
		if d > worst {
			worst = d
		}
	}
	return worst, nil
}

// StabilityReport lists junction segments whose inlet flow rates differ by
// more than the critical ratio, along with the worst ratio observed.
type StabilityReport struct {
	UnstableSegments []string
	WorstRatio       float64
}

// Stability inspects every segment on the live source→target paths for the
// ratio between its largest and smallest positive inlet flow rates.
func (c *Calc) Stability(target string, criticalRatio float64, rates Rates) (*StabilityReport, error) {
	flows, contributors, err := c.solve(target, rates)
	if err != nil {
		return nil, err
	}
	report := &StabilityReport{}
	seen := map[string]struct{}{}
	for _, src := range contributors {
		for _, path := range traverse.AllPaths(c.g, c.reg, src, target) {
			for _, name := range path {
				if _, done := seen[name]; done {
					continue
				}
				seen[name] = struct{}{}
				minIn, maxIn := 0.0, 0.0
				for _, e := range traverse.TraversableEdgesInto(c.g, c.reg, name) {
					r := flows[e.From]
					if r <= 0 {
						continue
					}
					if minIn == 0 || r < minIn {
						minIn = r
					}
					if r > maxIn {
						maxIn = r
					}
				}
				if minIn == 0 {
					continue
				}
				ratio := maxIn / minIn
				if ratio > report.WorstRatio {
					report.WorstRatio = ratio
				}
				if ratio > criticalRatio {
					report.UnstableSegments = append(report.UnstableSegments, name)
				}
			}
		}
	}
	return report, nil
}

// solve seeds the given source rates and relaxes every intermediate segment
// to the sum of its live parents' rates until nothing changes. Returns the
// per-segment rates and the sources that actually reach target over exactly
// one live path each.
func (c *Calc) solve(target string, rates Rates) (map[string]float64, []string, error) {
	if c.g.Segment(target) == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownSegment, target)
	}

	flows := make(map[string]float64)
	isSource := make(map[string]struct{})
	for name, rate := range rates {
		if c.g.Segment(name) == nil {
			continue
		}
		flows[name] = rate
		isSource[name] = struct{}{}
	}

	var contributors []string
	relaxed := map[string]struct{}{}
	for _, s := range c.g.Segments() {
		name := s.Name
		if _, ok := isSource[name]; !ok {
			continue
		}
		paths := traverse.AllPaths(c.g, c.reg, name, target)
		if len(paths) == 0 {
			continue
		}
		if len(paths) > 1 {
			return nil, nil, fmt.Errorf("%w: %d paths from %q to %q", ErrAmbiguousPath, len(paths), name, target)
		}
		contributors = append(contributors, name)
		for _, seg := range paths[0] {
			if _, src := isSource[seg]; src || seg == target {
				continue
			}
			relaxed[seg] = struct{}{}
		}
	}
	relaxed[target] = struct{}{}

	for iter := 0; ; iter++ {
		if iter > relaxationCap {
			return nil, nil, ErrNoConvergence
		}
		changed := false
		for name := range relaxed {
			sum := 0.0
			for _, e := range traverse.TraversableEdgesInto(c.g, c.reg, name) {
				sum += flows[e.From]
			}
			if flows[name] != sum {
				flows[name] = sum
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return flows, contributors, nil
}

// durationTo sums volume/rate over the live path from src to target,
// excluding the target segment's own residence time.
func (c *Calc) durationTo(src, target string, flows map[string]float64) (Minutes, error) {
	paths := traverse.AllPaths(c.g, c.reg, src, target)
	if len(paths) == 0 {
		return 0, nil
	}
	if len(paths) > 1 {
		return 0, fmt.Errorf("%w: %d paths from %q to %q", ErrAmbiguousPath, len(paths), src, target)
	}
	total := Minutes(0)
	for _, name := range paths[0] {
		if name == target {
			continue
		}
		total += residence(c.g.Segment(name), flows[name])
	}
	return total, nil
}

// residence is the time fluid spends in a segment at the given rate.
func residence(s *graph.Segment, rate float64) Minutes {
	if rate < 1e-5 {
		return 0
	}
	return Minutes(s.Volume() / rate)
}
