// Package layout turns an effective tile order into grid placements for a
// breakpoint. Non-draggable (narrow) breakpoints are computed from scratch
// on every call; draggable (wide) breakpoints merge with the arrangement
// the user last dragged into place.
package layout

import (
	"fmt"

	"github.com/vanderheijden86/tavla/pkg/model"
)

// BreakpointSpec describes one viewport tier.
type BreakpointSpec struct {
	Name      model.Breakpoint
	MinWidth  int  // widths strictly above this resolve to the tier
	Columns   int  // grid columns
	Draggable bool // user can drag tiles; placements are persisted
	MarginX   int  // horizontal gap between columns, in render units
	MarginY   int  // vertical gap between rows, in render units
}

// Table is an ordered breakpoint table, widest tier first.
type Table []BreakpointSpec

// PixelBreakpoints is the table for pixel-measured viewports.
var PixelBreakpoints = Table{
	{Name: model.BreakpointLarge, MinWidth: 1400, Columns: 3, Draggable: true, MarginX: 10, MarginY: 10},
	{Name: model.BreakpointMedium, MinWidth: 996, Columns: 2, Draggable: true, MarginX: 10, MarginY: 10},
	{Name: model.BreakpointSmall, MinWidth: 768, Columns: 1, MarginX: 8, MarginY: 8},
	{Name: model.BreakpointExtraSmall, MinWidth: 480, Columns: 1, MarginX: 8, MarginY: 8},
	{Name: model.BreakpointTiny, MinWidth: 0, Columns: 1, MarginX: 4, MarginY: 4},
}

// TerminalBreakpoints is the table for terminal viewports measured in cells.
var TerminalBreakpoints = Table{
	{Name: model.BreakpointLarge, MinWidth: 160, Columns: 3, Draggable: true, MarginX: 1, MarginY: 0},
	{Name: model.BreakpointMedium, MinWidth: 110, Columns: 2, Draggable: true, MarginX: 1, MarginY: 0},
	{Name: model.BreakpointSmall, MinWidth: 80, Columns: 1},
	{Name: model.BreakpointExtraSmall, MinWidth: 50, Columns: 1},
	{Name: model.BreakpointTiny, MinWidth: 0, Columns: 1},
}

// Resolve returns the breakpoint for a viewport width. Widths at or below
// every threshold resolve to the narrowest tier.
func (t Table) Resolve(width int) model.Breakpoint {
	for _, bp := range t {
		if width > bp.MinWidth {
			return bp.Name
		}
	}
	if len(t) == 0 {
		return model.BreakpointTiny
	}
	return t[len(t)-1].Name
}

// Spec returns the tier definition for a breakpoint.
func (t Table) Spec(b model.Breakpoint) (BreakpointSpec, bool) {
	for _, bp := range t {
		if bp.Name == b {
			return bp, true
		}
	}
	return BreakpointSpec{}, false
}

// Columns returns the column count for a breakpoint, 1 when unknown.
func (t Table) Columns(b model.Breakpoint) int {
	if spec, ok := t.Spec(b); ok && spec.Columns > 0 {
		return spec.Columns
	}
	return 1
}

// WithThresholds returns a copy of the table with the minimum widths
// replaced. Breakpoints missing from the map keep their threshold.
func (t Table) WithThresholds(widths map[model.Breakpoint]int) (Table, error) {
	out := make(Table, len(t))
	copy(out, t)
	for i := range out {
		if w, ok := widths[out[i].Name]; ok {
			out[i].MinWidth = w
		}
	}
	for i := 1; i < len(out); i++ {
		if out[i].MinWidth >= out[i-1].MinWidth {
			return nil, fmt.Errorf("breakpoint %s threshold %d must be below %s threshold %d",
				out[i].Name, out[i].MinWidth, out[i-1].Name, out[i-1].MinWidth)
		}
	}
	return out, nil
}

// ViewportProvider resolves the active breakpoint. It keeps display
// measurement out of the allocator so layouts can be computed in tests.
type ViewportProvider interface {
	Breakpoint() model.Breakpoint
}

// WidthViewport resolves a breakpoint from a measured width.
type WidthViewport struct {
	Table Table
	Width int
}

// Breakpoint implements ViewportProvider.
func (v WidthViewport) Breakpoint() model.Breakpoint {
	return v.Table.Resolve(v.Width)
}

// FixedViewport always reports the same breakpoint.
type FixedViewport model.Breakpoint

// Breakpoint implements ViewportProvider.
func (v FixedViewport) Breakpoint() model.Breakpoint {
	return model.Breakpoint(v)
}
