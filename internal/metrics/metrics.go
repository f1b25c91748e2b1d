package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NetworksLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowgraph_networks_loaded_total",
		Help: "Total number of networks successfully parsed and loaded.",
	})

	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowgraph_parse_errors_total",
		Help: "Total number of network description parse failures.",
	})

	StateChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowgraph_state_changes_total",
		Help: "Total number of state-group assignments, labelled by network name.",
	}, []string{"network"})

	Queries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowgraph_queries_total",
		Help: "Total number of traversal queries, labelled by kind.",
	}, []string{"kind"})

	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flowgraph_query_duration_ms",
		Help:    "Traversal query latency in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250},
	})

	SweepAssignments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowgraph_sweep_assignments_total",
		Help: "Total number of state assignments evaluated by sweeps.",
	})

	Segments = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flowgraph_segments",
		Help: "Number of segments per loaded network.",
	}, []string{"network"})
)
