// Package api is the HTTP host around the network store: it loads networks
// from description text, mutates state assignments, and serves traversal
// queries. The core packages stay transport-free; everything HTTP lives here.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwfarrell/flowgraph/internal/analysis"
	"github.com/mwfarrell/flowgraph/internal/dsl"
	"github.com/mwfarrell/flowgraph/internal/engine"
	"github.com/mwfarrell/flowgraph/internal/graph"
	"github.com/mwfarrell/flowgraph/internal/metrics"
	"github.com/mwfarrell/flowgraph/internal/netstore"
	"github.com/mwfarrell/flowgraph/internal/state"
)

const maxSweepAssignments = 1000

// Handler holds all HTTP handler dependencies.
type Handler struct {
	store        *netstore.Store
	analyses     *analysis.Registry
	sweepWorkers int
	mux          *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(store *netstore.Store, analyses *analysis.Registry, sweepWorkers int) http.Handler {
	h := &Handler{store: store, analyses: analyses, sweepWorkers: sweepWorkers, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/networks", h.createNetwork)
	h.mux.HandleFunc("GET /v1/networks", h.listNetworks)
	h.mux.HandleFunc("GET /v1/networks/{id}", h.getNetwork)
	h.mux.HandleFunc("DELETE /v1/networks/{id}", h.deleteNetwork)
	h.mux.HandleFunc("PUT /v1/networks/{id}/state", h.setState)
	h.mux.HandleFunc("DELETE /v1/networks/{id}/state/{group}", h.clearState)
	h.mux.HandleFunc("GET /v1/networks/{id}/reachable", h.reachable)
	h.mux.HandleFunc("GET /v1/networks/{id}/path", h.findPath)
	h.mux.HandleFunc("POST /v1/networks/{id}/sweep", h.sweep)
	h.mux.HandleFunc("POST /v1/networks/{id}/analyses/{type}", h.analyze)
	h.mux.HandleFunc("GET /v1/analyses", h.listAnalyses)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

func (h *Handler) network(w http.ResponseWriter, r *http.Request) (*netstore.Network, bool) {
	n, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return n, true
}

type createNetworkRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// POST /v1/networks — parse description text into a new network.
func (h *Handler) createNetwork(w http.ResponseWriter, r *http.Request) {
	var req createNetworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "network name is required")
		return
	}
	n, err := h.store.Add(req.Name, req.Text)
	if err != nil {
		var perr *dsl.ParseError
		if errors.As(err, &perr) {
			metrics.ParseErrors.Inc()
			writeError(w, http.StatusUnprocessableEntity, perr.Error())
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	info := n.Info()
	metrics.NetworksLoaded.Inc()
	metrics.Segments.WithLabelValues(n.Name).Set(float64(info.Segments))
	writeJSON(w, http.StatusCreated, info)
}

// GET /v1/networks — list loaded networks.
func (h *Handler) listNetworks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"networks": h.store.List(),
	})
}

// GET /v1/networks/{id} — one network's summary.
func (h *Handler) getNetwork(w http.ResponseWriter, r *http.Request) {
	n, ok := h.network(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, n.Info())
}

// DELETE /v1/networks/{id}
func (h *Handler) deleteNetwork(w http.ResponseWriter, r *http.Request) {
	n, ok := h.network(w, r)
	if !ok {
		return
	}
	if err := h.store.Remove(n.ID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	metrics.Segments.DeleteLabelValues(n.Name)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type setStateRequest struct {
	States map[string]string `json:"states"`
}

// PUT /v1/networks/{id}/state — set one or more group assignments.
func (h *Handler) setState(w http.ResponseWriter, r *http.Request) {
	n, ok := h.network(w, r)
	if !ok {
		return
	}
	var req setStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(req.States) == 0 {
		writeError(w, http.StatusBadRequest, "states must contain at least one group:value entry")
		return
	}
	for group, value := range req.States {
		if err := n.SetState(group, value); err != nil {
			if errors.Is(err, state.ErrInvalidValue) {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		metrics.StateChanges.WithLabelValues(n.Name).Inc()
	}
	writeJSON(w, http.StatusOK, n.Info())
}

// DELETE /v1/networks/{id}/state/{group} — unset a group's active value.
func (h *Handler) clearState(w http.ResponseWriter, r *http.Request) {
	n, ok := h.network(w, r)
	if !ok {
		return
	}
	n.ClearState(r.PathValue("group"))
	metrics.StateChanges.WithLabelValues(n.Name).Inc()
	writeJSON(w, http.StatusOK, n.Info())
}

// GET /v1/analyses — the registered analysis types.
func (h *Handler) listAnalyses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": h.analyses.Types(),
	})
}

// GET /v1/networks/{id}/reachable?from=X
func (h *Handler) reachable(w http.ResponseWriter, r *http.Request) {
	n, ok := h.network(w, r)
	if !ok {
		return
	}
	from := r.URL.Query().Get("from")
	if from == "" {
		writeError(w, http.StatusBadRequest, "query param 'from' is required")
		return
	}
	start := time.Now()
	reached := n.Reachable(from)
	metrics.Queries.WithLabelValues("reachable").Inc()
	metrics.QueryDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)
	if reached == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown segment %q", from))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"from":      from,
		"reachable": reached,
	})
}

// GET /v1/networks/{id}/path?from=X&to=Y
func (h *Handler) findPath(w http.ResponseWriter, r *http.Request) {
	n, ok := h.network(w, r)
	if !ok {
		return
	}
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "query params 'from' and 'to' are required")
		return
	}
	start := time.Now()
	path, volume, found := n.Path(from, to)
	metrics.Queries.WithLabelValues("path").Inc()
	metrics.QueryDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"from":   from,
		"to":     to,
		"found":  found,
		"path":   path,
		"volume": volume,
	})
}

// POST /v1/networks/{id}/sweep — evaluate many state assignments.
func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	n, ok := h.network(w, r)
	if !ok {
		return
	}
	var req engine.SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.From == "" {
		writeError(w, http.StatusBadRequest, "'from' is required")
		return
	}
	if len(req.Assignments) == 0 {
		writeError(w, http.StatusBadRequest, "assignments must not be empty")
		return
	}
	if len(req.Assignments) > maxSweepAssignments {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("assignment count %d exceeds max %d", len(req.Assignments), maxSweepAssignments))
		return
	}

	g, reg := n.Snapshot()
	results, err := engine.Sweep(r.Context(), g, reg, &req, h.sweepWorkers)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	metrics.Queries.WithLabelValues("sweep").Inc()
	metrics.SweepAssignments.Add(float64(len(req.Assignments)))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"from":    req.From,
		"to":      req.To,
		"results": results,
	})
}

type analyzeRequest struct {
	Params map[string]interface{} `json:"params"`
}

// POST /v1/networks/{id}/analyses/{type} — run a registered analysis.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	n, ok := h.network(w, r)
	if !ok {
		return
	}
	analyzer, err := h.analyses.Get(r.PathValue("type"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if err := analyzer.Validate(req.Params); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	var result *analysis.Result
	err = n.WithRead(func(g *graph.Graph, reg *state.Registry) error {
		var aerr error
		result, aerr = analyzer.Analyze(r.Context(), g, reg, req.Params)
		return aerr
	})
	metrics.Queries.WithLabelValues("analysis").Inc()
	metrics.QueryDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — ready once the store is serving (networks may be zero).
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ready",
		"networks": h.store.Len(),
	})
}
