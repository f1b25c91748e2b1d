package state

import (
	"sort"
	"strings"
)

// ConstraintSet maps a state group to the values that satisfy an edge.
// Semantics: AND across distinct groups, OR across the values listed for one
// group. A nil or empty set is state-agnostic (always satisfied).
//
// Sets are built during graph construction and never edited afterwards;
// replacing an edge is the only way to change its constraints.
type ConstraintSet struct {
	want map[string][]string
}

// NewConstraintSet builds a set from (group, value) pairs.
func NewConstraintSet(pairs ...[2]string) ConstraintSet {
	var cs ConstraintSet
	for _, p := range pairs {
		cs = cs.Add(p[0], p[1])
	}
	return cs
}

// Add returns a set that additionally allows value for group. Adding an
// existing (group, value) pair is a no-op. The receiver is not modified.
func (cs ConstraintSet) Add(groupName, value string) ConstraintSet {
	next := ConstraintSet{want: make(map[string][]string, len(cs.want)+1)}
	for g, vs := range cs.want {
		next.want[g] = append([]string(nil), vs...)
	}
	for _, v := range next.want[groupName] {
		if v == value {
			return next
		}
	}
	next.want[groupName] = append(next.want[groupName], value)
	return next
}

// Empty reports whether the set constrains nothing.
func (cs ConstraintSet) Empty() bool {
	return len(cs.want) == 0
}

// Len returns the number of constrained groups.
func (cs ConstraintSet) Len() int {
	return len(cs.want)
}

// Groups returns the constrained group names, sorted for determinism.
func (cs ConstraintSet) Groups() []string {
	out := make([]string, 0, len(cs.want))
	for g := range cs.want {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// AllowedValues returns the values that satisfy the group, in the order they
// were added.
func (cs ConstraintSet) AllowedValues(groupName string) []string {
	return append([]string(nil), cs.want[groupName]...)
}

// Allows reports whether value satisfies the group's constraint. A group the
// set does not name allows any value.
func (cs ConstraintSet) Allows(groupName, value string) bool {
	vs, ok := cs.want[groupName]
	if !ok {
		return true
	}
	for _, v := range vs {
		if v == value {
			return true
		}
	}
	return false
}

// String renders the set as "group:v1|v2, group2:v" for logs and summaries.
func (cs ConstraintSet) String() string {
	if cs.Empty() {
		return ""
	}
	parts := make([]string, 0, len(cs.want))
	for _, g := range cs.Groups() {
		parts = append(parts, g+":"+strings.Join(cs.want[g], "|"))
	}
	return strings.Join(parts, ", ")
}
