package model

import (
	"fmt"
	"math"
	"sort"
)

// Breakpoint is a named viewport-width tier. Breakpoints are ordered from
// widest to narrowest.
type Breakpoint string

const (
	BreakpointLarge      Breakpoint = "lg"
	BreakpointMedium     Breakpoint = "md"
	BreakpointSmall      Breakpoint = "sm"
	BreakpointExtraSmall Breakpoint = "xs"
	BreakpointTiny       Breakpoint = "xxs"
)

// Breakpoints lists every breakpoint, widest first.
var Breakpoints = []Breakpoint{
	BreakpointLarge,
	BreakpointMedium,
	BreakpointSmall,
	BreakpointExtraSmall,
	BreakpointTiny,
}

// IsValid reports whether b is a known breakpoint.
func (b Breakpoint) IsValid() bool {
	for _, known := range Breakpoints {
		if b == known {
			return true
		}
	}
	return false
}

// ParseBreakpoint converts a breakpoint name into a Breakpoint.
func ParseBreakpoint(s string) (Breakpoint, error) {
	b := Breakpoint(s)
	if !b.IsValid() {
		return "", fmt.Errorf("unknown breakpoint %q", s)
	}
	return b, nil
}

// Rect is a grid rectangle in grid units.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Bottom returns the y coordinate just below the rectangle.
func (r Rect) Bottom() float64 {
	return r.Y + r.H
}

// Valid reports whether the rectangle is finite, non-negative and fits
// inside a grid with the given number of columns.
func (r Rect) Valid(columns int) bool {
	for _, v := range []float64{r.X, r.Y, r.W, r.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if r.X < 0 || r.Y < 0 || r.W <= 0 || r.H <= 0 {
		return false
	}
	return r.X+r.W <= float64(columns)
}

// LayoutSpec maps tile ids to grid rectangles for one breakpoint.
type LayoutSpec map[string]Rect

// Clone returns a copy of the spec.
func (l LayoutSpec) Clone() LayoutSpec {
	if l == nil {
		return nil
	}
	out := make(LayoutSpec, len(l))
	for id, r := range l {
		out[id] = r
	}
	return out
}

// Equal reports whether both specs place the same ids identically.
func (l LayoutSpec) Equal(other LayoutSpec) bool {
	if len(l) != len(other) {
		return false
	}
	for id, r := range l {
		o, ok := other[id]
		if !ok || o != r {
			return false
		}
	}
	return true
}

// IDs returns the placed ids sorted by position (top to bottom, then left
// to right, ties by id).
func (l LayoutSpec) IDs() []string {
	ids := make([]string, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := l[ids[i]], l[ids[j]]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return ids[i] < ids[j]
	})
	return ids
}

// GestureState is the state of the long-press gesture machine.
type GestureState int

const (
	GestureIdle GestureState = iota
	GesturePressing
	GestureVisuallyConfirming
	GestureTriggered
	GestureCancelled
)

func (s GestureState) String() string {
	switch s {
	case GestureIdle:
		return "idle"
	case GesturePressing:
		return "pressing"
	case GestureVisuallyConfirming:
		return "confirming"
	case GestureTriggered:
		return "triggered"
	case GestureCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("GestureState(%d)", int(s))
	}
}
