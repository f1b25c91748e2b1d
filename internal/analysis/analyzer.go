// Package analysis exposes named, read-only computations over a network for
// the HTTP host. Each Analyzer wraps a query (path volume, dead time, flow
// stability) behind a uniform params-in/result-out surface so new analyses
// can be registered without touching the handlers.
package analysis

import (
	"context"
	"fmt"

	"github.com/mwfarrell/flowgraph/internal/graph"
	"github.com/mwfarrell/flowgraph/internal/state"
)

// Result holds the outcome of running a single analysis.
type Result struct {
	Type    string                 `json:"type"`
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// Analyzer is the interface all analyses must satisfy. Analyze must treat
// the graph and registry as read-only; the caller holds the network's read
// lock for the duration.
type Analyzer interface {
	// Type returns the string key this analyzer is registered under.
	Type() string
	// Validate checks params before Analyze runs.
	Validate(params map[string]interface{}) error
	// Analyze runs the computation under the registry's current assignment.
	Analyze(ctx context.Context, g *graph.Graph, reg *state.Registry, params map[string]interface{}) (*Result, error)
}

// stringParam extracts a required string parameter.
func stringParam(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required param %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("param %q must be a non-empty string", key)
	}
	return s, nil
}

// floatParam extracts an optional numeric parameter with a default.
func floatParam(params map[string]interface{}, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return 0, fmt.Errorf("param %q must be a number", key)
	}
	return f, nil
}

// ratesParam extracts a {source: rate} map parameter.
func ratesParam(params map[string]interface{}, key string) (map[string]float64, error) {
	v, ok := params[key]
	if !ok {
		return nil, fmt.Errorf("missing required param %q", key)
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("param %q must be an object of source→rate", key)
	}
	out := make(map[string]float64, len(m))
	for name, raw := range m {
		rate, ok := raw.(float64)
		if !ok {
			return nil, fmt.Errorf("param %q: rate for %q must be a number", key, name)
		}
		out[name] = rate
	}
	return out, nil
}
