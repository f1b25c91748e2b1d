package graph

import (
	"fmt"

	"github.com/mwfarrell/flowgraph/internal/state"
)

// Segment is a named node modeling a tube, vessel, or device segment. Its
// volume defaults to 0 and follows first-value-wins: once set from a
// non-default source, later differing values are silently ignored.
type Segment struct {
	Name   string
	volume float64
	// volumeSet distinguishes "never initialized" from an explicit 0.
	volumeSet bool
}

// Volume returns the segment's volume (0 if never initialized).
func (s *Segment) Volume() float64 {
	return s.volume
}

// VolumeSet reports whether the volume was explicitly initialized.
func (s *Segment) VolumeSet() bool {
	return s.volumeSet
}

// setVolume applies first-value-wins and reports whether the write took.
func (s *Segment) setVolume(v float64) bool {
	if s.volumeSet {
		return false
	}
	s.volume = v
	s.volumeSet = true
	return true
}

func (s *Segment) String() string {
	return fmt.Sprintf("%s (%g uL)", s.Name, s.volume)
}

// Edge is a directed link from one segment to another, traversable only when
// its constraint set is satisfied. A given (From, To) pair may carry several
// edges with different constraint sets; a reverse edge is a separate edge.
// Edges are immutable once created.
type Edge struct {
	From        string
	To          string
	Constraints state.ConstraintSet
}

func (e *Edge) String() string {
	if e.Constraints.Empty() {
		return fmt.Sprintf("%s > %s", e.From, e.To)
	}
	return fmt.Sprintf("%s > %s | %s", e.From, e.To, e.Constraints)
}
