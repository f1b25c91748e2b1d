// Package state owns named state groups and their currently active values.
//
// A Registry is an explicit, per-network instance: edges hold ConstraintSets
// that are evaluated against whichever Registry the caller passes in, so
// multiple independent networks can coexist in one process.
package state

import (
	"fmt"
	"sort"
)

// ErrInvalidValue is returned by SetActive in strict mode when the value was
// never declared for the group.
var ErrInvalidValue = fmt.Errorf("state: value not declared for group")

type group struct {
	values map[string]struct{}
	active string
	isSet  bool
}

// Registry maps group names to their declared values and current assignment.
// It performs no internal locking; a single logical writer mutates it and the
// owner serializes access (see netstore.Network).
type Registry struct {
	groups map[string]*group
	strict bool
}

// NewRegistry creates an empty, permissive Registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*group)}
}

// SetStrict toggles strict validation for SetActive. In strict mode a value
// must have been declared (seen in a constraint or via DeclareValue) before
// it can become active.
func (r *Registry) SetStrict(strict bool) {
	r.strict = strict
}

// Strict reports whether strict validation is enabled.
func (r *Registry) Strict() bool {
	return r.strict
}

// DeclareGroup ensures a group exists. Idempotent.
func (r *Registry) DeclareGroup(name string) {
	if _, ok := r.groups[name]; !ok {
		r.groups[name] = &group{values: make(map[string]struct{})}
	}
}

// DeclareValue registers a legal value for a group, creating the group if
// needed. Idempotent.
func (r *Registry) DeclareValue(groupName, value string) {
	r.DeclareGroup(groupName)
	r.groups[groupName].values[value] = struct{}{}
}

// SetActive sets the group's current value. In permissive mode (the default)
// unseen groups and values are registered on the fly; in strict mode an
// undeclared value yields ErrInvalidValue.
func (r *Registry) SetActive(groupName, value string) error {
	g, ok := r.groups[groupName]
	if r.strict {
		if !ok {
			return fmt.Errorf("%w: group %q unknown (value %q)", ErrInvalidValue, groupName, value)
		}
		if _, declared := g.values[value]; !declared {
			return fmt.Errorf("%w: %q for group %q", ErrInvalidValue, value, groupName)
		}
	} else {
		r.DeclareValue(groupName, value)
		g = r.groups[groupName]
	}
	g.active = value
	g.isSet = true
	return nil
}

// ClearActive unsets the group's current value. Edges constrained on the
// group become untraversable until a value is set again.
func (r *Registry) ClearActive(groupName string) {
	if g, ok := r.groups[groupName]; ok {
		g.active = ""
		g.isSet = false
	}
}

// ActiveValue returns the group's current value, and whether one is set.
func (r *Registry) ActiveValue(groupName string) (string, bool) {
	g, ok := r.groups[groupName]
	if !ok || !g.isSet {
		return "", false
	}
	return g.active, true
}

// Groups returns all declared group names, sorted.
func (r *Registry) Groups() []string {
	out := make([]string, 0, len(r.groups))
	for name := range r.groups {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Values returns the declared values for a group (nil for unknown groups).
func (r *Registry) Values(groupName string) []string {
	g, ok := r.groups[groupName]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.values))
	for v := range g.values {
		out = append(out, v)
	}
	return out
}

// Assignment returns the current group→value assignment for all set groups.
func (r *Registry) Assignment() map[string]string {
	out := make(map[string]string)
	for name, g := range r.groups {
		if g.isSet {
			out[name] = g.active
		}
	}
	return out
}

// Satisfied reports whether the constraint set holds under the current
// assignment: every group named in the set must be set to one of that
// group's listed values (AND across groups, OR across values of one group).
// An empty set is always satisfied.
func (r *Registry) Satisfied(cs ConstraintSet) bool {
	for _, groupName := range cs.Groups() {
		active, ok := r.ActiveValue(groupName)
		if !ok {
			return false
		}
		if !cs.Allows(groupName, active) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the registry, including declared
// values and the current assignment. Used by sweep evaluation so concurrent
// readers never share mutable state.
func (r *Registry) Clone() *Registry {
	c := &Registry{groups: make(map[string]*group, len(r.groups)), strict: r.strict}
	for name, g := range r.groups {
		ng := &group{values: make(map[string]struct{}, len(g.values)), active: g.active, isSet: g.isSet}
		for v := range g.values {
			ng.values[v] = struct{}{}
		}
		c.groups[name] = ng
	}
	return c
}
