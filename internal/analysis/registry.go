package analysis

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps analysis type strings to their implementations.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]Analyzer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{analyzers: make(map[string]Analyzer)}
}

// Default returns a Registry with all built-in analyzers registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register(PathVolume{})
	r.Register(DeadTime{})
	r.Register(FlowStability{})
	return r
}

// Register adds an analyzer. Panics on duplicate type to surface
// misconfiguration early.
func (r *Registry) Register(a Analyzer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.analyzers[a.Type()]; exists {
		panic(fmt.Sprintf("analysis registry: duplicate type %q", a.Type()))
	}
	r.analyzers[a.Type()] = a
}

// Get returns the analyzer for the given type.
func (r *Registry) Get(analysisType string) (Analyzer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyzers[analysisType]
	if !ok {
		return nil, fmt.Errorf("no analyzer registered for type %q", analysisType)
	}
	return a, nil
}

// Types returns all registered analysis type strings, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.analyzers))
	for k := range r.analyzers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
