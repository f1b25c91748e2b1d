// Package engine evaluates queries across many state assignments at once.
//
// The graph never stores per-combination variants: a sweep clones the
// registry for each assignment, applies it, and runs the plain traversal
// queries against the shared (read-only) graph. Combinatorial state spaces
// are explored by iteration, not by materialization.
package engine

import (
	"context"
	"fmt"

	"github.com/mwfarrell/flowgraph/internal/graph"
	"github.com/mwfarrell/flowgraph/internal/state"
	"github.com/mwfarrell/flowgraph/internal/traverse"
)

// Assignment is one group→value state combination to evaluate.
type Assignment map[string]string

// SweepRequest asks for reachability from From — and, when To is set, the
// deterministic path From→To — under each assignment.
type SweepRequest struct {
	From        string       `json:"from"`
	To          string       `json:"to,omitempty"`
	Assignments []Assignment `json:"assignments"`
}

// SweepResult is the outcome for one assignment, at the request's index.
type SweepResult struct {
	Assignment Assignment `json:"assignment"`
	Reachable  []string   `json:"reachable"`
	Path       []string   `json:"path,omitempty"`
	PathVolume float64    `json:"path_volume,omitempty"`
	PathFound  bool       `json:"path_found"`
	Error      string     `json:"error,omitempty"`
}

type sweepWork struct {
	idx        int
	assignment Assignment
}

// Sweep evaluates req against g, starting each assignment from a clone of
// base, with up to workers goroutines. Results are ordered like
// req.Assignments. The caller guarantees g is not mutated for the duration.
func Sweep(ctx context.Context, g *graph.Graph, base *state.Registry, req *SweepRequest, workers int) ([]*SweepResult, error) {
	if g.Segment(req.From) == nil {
		return nil, fmt.Errorf("engine: unknown segment %q", req.From)
	}
	if req.To != "" && g.Segment(req.To) == nil {
		return nil, fmt.Errorf("engine: unknown segment %q", req.To)
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]*SweepResult, len(req.Assignments))
	pool := newWorkerPool(ctx, workers, len(req.Assignments), func(ctx context.Context, w sweepWork) {
		results[w.idx] = evalAssignment(g, base, req, w.assignment)
	})
	for i, a := range req.Assignments {
		if !pool.Submit(ctx, sweepWork{idx: i, assignment: a}) {
			break
		}
	}
	pool.Drain()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func evalAssignment(g *graph.Graph, base *state.Registry, req *SweepRequest, a Assignment) *SweepResult {
	res := &SweepResult{Assignment: a}
	reg := base.Clone()
	for group, value := range a {
		if err := reg.SetActive(group, value); err != nil {
			res.Error = err.Error()
			return res
		}
	}
	res.Reachable = traverse.ReachableFrom(g, reg, req.From)
	if req.To != "" {
		if path, found := traverse.FindPath(g, reg, req.From, req.To); found {
			res.Path = path
			res.PathVolume = traverse.PathVolume(g, path)
			res.PathFound = true
		}
	}
	return res
}
