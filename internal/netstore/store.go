// Package netstore holds the live network instances the host serves. Each
// Network pairs one graph with one registry; the core packages do no locking
// of their own, so the Network wraps every mutation and query in its own
// RWMutex.
package netstore

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwfarrell/flowgraph/internal/dsl"
	"github.com/mwfarrell/flowgraph/internal/graph"
	"github.com/mwfarrell/flowgraph/internal/state"
	"github.com/mwfarrell/flowgraph/internal/traverse"
)

// ErrNotFound is returned when no network matches the given ID or name.
var ErrNotFound = errors.New("netstore: network not found")

// Network is one loaded flow network: graph, registry, and identity.
type Network struct {
	ID       string
	Name     string
	LoadedAt time.Time

	mu  sync.RWMutex
	g   *graph.Graph
	reg *state.Registry
}

// Info is a point-in-time summary of a network.
type Info struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	LoadedAt time.Time         `json:"loaded_at"`
	Segments int               `json:"segments"`
	Edges    int               `json:"edges"`
	Groups   []string          `json:"groups"`
	States   map[string]string `json:"states"`
}

// Info returns a summary under the read lock.
func (n *Network) Info() Info {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return Info{
		ID:       n.ID,
		Name:     n.Name,
		LoadedAt: n.LoadedAt,
		Segments: n.g.SegmentCount(),
		Edges:    n.g.EdgeCount(),
		Groups:   n.reg.Groups(),
		States:   n.reg.Assignment(),
	}
}

// SetState sets a group's active value (the host's only mutation after load).
func (n *Network) SetState(group, value string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reg.SetActive(group, value)
}

// ClearState unsets a group's active value.
func (n *Network) ClearState(group string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reg.ClearActive(group)
}

// Reachable returns the segments reachable from start under the current
// assignment.
func (n *Network) Reachable(start string) []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return traverse.ReachableFrom(n.g, n.reg, start)
}

// Path returns the deterministic first path and its summed volume.
func (n *Network) Path(from, to string) (path []string, volume float64, found bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	path, found = traverse.FindPath(n.g, n.reg, from, to)
	if found {
		volume = traverse.PathVolume(n.g, path)
	}
	return path, volume, found
}

// WithRead runs fn with the graph and registry under the read lock. fn must
// not retain either value or mutate the registry.
func (n *Network) WithRead(fn func(g *graph.Graph, reg *state.Registry) error) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return fn(n.g, n.reg)
}

// Snapshot returns the graph plus an independent registry clone, for
// evaluations that set their own state assignments (sweeps). The graph is
// shared and must be treated as read-only; structural swaps replace the
// pointer rather than mutating it.
func (n *Network) Snapshot() (*graph.Graph, *state.Registry) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.g, n.reg.Clone()
}

// swap replaces the network's graph and registry (hot-reload).
func (n *Network) swap(g *graph.Graph, reg *state.Registry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.g = g
	n.reg = reg
	n.LoadedAt = time.Now()
}

// Store maps network IDs to live networks.
type Store struct {
	mu     sync.RWMutex
	nets   map[string]*Network // id → network
	byName map[string]string   // name → id
	strict bool
}

// NewStore creates an empty Store. strict propagates to every network's
// registry (strict SetActive validation).
func NewStore(strict bool) *Store {
	return &Store{
		nets:   make(map[string]*Network),
		byName: make(map[string]string),
		strict: strict,
	}
}

// build parses text into a fresh graph+registry pair.
func (s *Store) build(text string) (*graph.Graph, *state.Registry, error) {
	g := graph.New()
	reg := state.NewRegistry()
	reg.SetStrict(s.strict)
	if err := dsl.Parse(text, g, reg); err != nil {
		return nil, nil, err
	}
	return g, reg, nil
}

// Add parses text and registers it under name with a fresh ID. A duplicate
// name is an error; use Replace for reloads.
func (s *Store) Add(name, text string) (*Network, error) {
	g, reg, err := s.build(text)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[name]; exists {
		return nil, fmt.Errorf("netstore: network %q already loaded", name)
	}
	n := &Network{
		ID:       uuid.New().String(),
		Name:     name,
		LoadedAt: time.Now(),
		g:        g,
		reg:      reg,
	}
	s.nets[n.ID] = n
	s.byName[name] = n.ID
	return n, nil
}

// Replace re-parses text and swaps it into the existing network, keeping
// its ID. If parsing fails the old graph stays live.
func (s *Store) Replace(name, text string) (*Network, error) {
	g, reg, err := s.build(text)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	id, ok := s.byName[name]
	n := s.nets[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: name %q", ErrNotFound, name)
	}
	n.swap(g, reg)
	return n, nil
}

// Get returns a network by ID.
func (s *Store) Get(id string) (*Network, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nets[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %q", ErrNotFound, id)
	}
	return n, nil
}

// GetByName returns a network by its human name.
func (s *Store) GetByName(name string) (*Network, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: name %q", ErrNotFound, name)
	}
	return s.nets[id], nil
}

// Remove deletes a network by ID.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nets[id]
	if !ok {
		return fmt.Errorf("%w: id %q", ErrNotFound, id)
	}
	delete(s.nets, id)
	delete(s.byName, n.Name)
	return nil
}

// List returns summaries of all loaded networks.
func (s *Store) List() []Info {
	s.mu.RLock()
	nets := make([]*Network, 0, len(s.nets))
	for _, n := range s.nets {
		nets = append(nets, n)
	}
	s.mu.RUnlock()
	out := make([]Info, 0, len(nets))
	for _, n := range nets {
		out = append(out, n.Info())
	}
	return out
}

// Len returns how many networks are loaded.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nets)
}
