package analysis

import (
	"context"

	"github.com/mwfarrell/flowgraph/internal/flowcalc"
	"github.com/mwfarrell/flowgraph/internal/graph"
	"github.com/mwfarrell/flowgraph/internal/state"
	"github.com/mwfarrell/flowgraph/internal/traverse"
)

// PathVolume finds the first live path between two segments and sums its
// volumes. Params: "from", "to".
type PathVolume struct{}

func (PathVolume) Type() string { return "path_volume" }

func (PathVolume) Validate(params map[string]interface{}) error {
	if _, err := stringParam(params, "from"); err != nil {
		return err
	}
	_, err := stringParam(params, "to")
	return err
}

func (PathVolume) Analyze(ctx context.Context, g *graph.Graph, reg *state.Registry, params map[string]interface{}) (*Result, error) {
	from, _ := stringParam(params, "from")
	to, _ := stringParam(params, "to")
	path, found := traverse.FindPath(g, reg, from, to)
	if !found {
		return &Result{Type: "path_volume", Success: false, Message: "no path under current state"}, nil
	}
	return &Result{
		Type:    "path_volume",
		Success: true,
		Data: map[string]interface{}{
			"path":   path,
			"volume": traverse.PathVolume(g, path),
		},
	}, nil
}

// DeadTime computes how long updated flow conditions at the given sources
// take to reach a target. Params: "target", "rates" (source→uL/min).
type DeadTime struct{}

func (DeadTime) Type() string { return "dead_time" }

func (DeadTime) Validate(params map[string]interface{}) error {
	if _, err := stringParam(params, "target"); err != nil {
		return err
	}
	_, err := ratesParam(params, "rates")
	return err
}

func (DeadTime) Analyze(ctx context.Context, g *graph.Graph, reg *state.Registry, params map[string]interface{}) (*Result, error) {
	target, _ := stringParam(params, "target")
	rates, err := ratesParam(params, "rates")
	if err != nil {
		return nil, err
	}
	minutes, err := flowcalc.New(g, reg).DeadTime(target, rates)
	if err != nil {
		return &Result{Type: "dead_time", Success: false, Message: err.Error()}, nil
	}
	return &Result{
		Type:    "dead_time",
		Success: true,
		Data: map[string]interface{}{
			"target":       target,
			"dead_minutes": float64(minutes),
		},
	}, nil
}

// FlowStability reports junctions whose inlet flow ratio exceeds a critical
// value. Params: "target", "rates", optional "critical_ratio" (default 10).
type FlowStability struct{}

func (FlowStability) Type() string { return "flow_stability" }

func (FlowStability) Validate(params map[string]interface{}) error {
	if _, err := stringParam(params, "target"); err != nil {
		return err
	}
	if _, err := ratesParam(params, "rates"); err != nil {
		return err
	}
	_, err := floatParam(params, "critical_ratio", 10)
	return err
}

func (FlowStability) Analyze(ctx context.Context, g *graph.Graph, reg *state.Registry, params map[string]interface{}) (*Result, error) {
	target, _ := stringParam(params, "target")
	rates, err := ratesParam(params, "rates")
	if err != nil {
		return nil, err
	}
	ratio, err := floatParam(params, "critical_ratio", 10)
	if err != nil {
		return nil, err
	}
	report, err := flowcalc.New(g, reg).Stability(target, ratio, rates)
	if err != nil {
		return &Result{Type: "flow_stability", Success: false, Message: err.Error()}, nil
	}
	return &Result{
		Type:    "flow_stability",
		Success: true,
		Data: map[string]interface{}{
			"unstable_segments": report.UnstableSegments,
			"worst_ratio":       report.WorstRatio,
			"critical_ratio":    ratio,
		},
	}, nil
}
