package layout

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/vanderheijden86/tavla/pkg/debug"
	"github.com/vanderheijden86/tavla/pkg/metrics"
	"github.com/vanderheijden86/tavla/pkg/model"
)

// Allocator places tiles on the grid.
type Allocator struct {
	Breakpoints Table
	Profiles    Profiles
	RowCaps     map[model.Breakpoint]int
	// KindOf resolves a tile id to its kind. Defaults to model.KindForID.
	KindOf func(id string) model.TileKind
}

// NewAllocator returns an allocator over the given breakpoint table with
// the default size profiles.
func NewAllocator(table Table) *Allocator {
	return &Allocator{
		Breakpoints: table,
		Profiles:    DefaultProfiles,
		RowCaps:     DefaultRowCaps,
		KindOf:      model.KindForID,
	}
}

// Draggable reports whether placements at b are user-draggable.
func (a *Allocator) Draggable(b model.Breakpoint) bool {
	spec, ok := a.Breakpoints.Spec(b)
	return ok && spec.Draggable
}

// Allocate returns the grid placement of order at breakpoint b. hints
// holds the content row count per tile id. persisted is the arrangement
// last saved for b; it is ignored on non-draggable breakpoints and when
// any of its rectangles does not fit the grid.
func (a *Allocator) Allocate(order model.TileOrder, b model.Breakpoint, hints map[string]int, persisted model.LayoutSpec) model.LayoutSpec {
	defer metrics.Timer(metrics.Allocate)()

	if a.Draggable(b) {
		return a.merge(order, b, hints, persisted)
	}
	return a.compute(order, b, hints)
}

// TileHeight returns the height of tile id at breakpoint b for the given
// number of content rows, applying the breakpoint's row cap to stops.
func (a *Allocator) TileHeight(b model.Breakpoint, id string, rows int) float64 {
	kind := a.kind(id)
	if kind == model.KindStop && !a.Draggable(b) {
		if limit, ok := a.RowCaps[b]; ok && limit > 0 && rows > limit {
			rows = limit
		}
	}
	return a.Profiles.Lookup(b, kind).Height(rows)
}

// compute places tiles row-major. Each grid row starts below the tallest
// tile of the row above it.
func (a *Allocator) compute(order model.TileOrder, b model.Breakpoint, hints map[string]int) model.LayoutSpec {
	cols := a.Breakpoints.Columns(b)
	spec := make(model.LayoutSpec, len(order))
	y := 0.0
	for start := 0; start < len(order); start += cols {
		end := start + cols
		if end > len(order) {
			end = len(order)
		}
		heights := make([]float64, 0, end-start)
		for i, id := range order[start:end] {
			h := a.TileHeight(b, id, hints[id])
			spec[id] = model.Rect{X: float64(i), Y: y, W: 1, H: h}
			heights = append(heights, h)
		}
		y += floats.Max(heights)
	}
	return spec
}

// merge keeps persisted placements for tiles still in order and appends
// column-filling defaults for the rest.
func (a *Allocator) merge(order model.TileOrder, b model.Breakpoint, hints map[string]int, persisted model.LayoutSpec) model.LayoutSpec {
	cols := a.Breakpoints.Columns(b)
	spec := make(model.LayoutSpec, len(order))

	for _, id := range order {
		if r, ok := persisted[id]; ok {
			spec[id] = r
		}
	}
	// Only tiles still on the board decide whether the arrangement fits.
	if !FitsGrid(spec, cols) {
		debug.Log("layout: persisted %s layout does not fit %d columns, ignoring", b, cols)
		metrics.MalformedState.Inc()
		spec = make(model.LayoutSpec, len(order))
	}

	bottoms := ColumnBottoms(spec, cols)
	placed := len(spec)
	for _, id := range order {
		if _, ok := spec[id]; ok {
			continue
		}
		col := placed % cols
		h := a.TileHeight(b, id, hints[id])
		spec[id] = model.Rect{X: float64(col), Y: bottoms[col], W: 1, H: h}
		bottoms[col] += h
		placed++
	}
	return spec
}

func (a *Allocator) kind(id string) model.TileKind {
	if a.KindOf != nil {
		return a.KindOf(id)
	}
	return model.KindForID(id)
}

// FitsGrid reports whether every rectangle of spec is valid for a grid
// with the given number of columns.
func FitsGrid(spec model.LayoutSpec, cols int) bool {
	for _, r := range spec {
		if !r.Valid(cols) {
			return false
		}
	}
	return true
}

// ColumnBottoms returns, per column, the lowest edge of any rectangle
// covering that column.
func ColumnBottoms(spec model.LayoutSpec, cols int) []float64 {
	bottoms := make([]float64, cols)
	for _, r := range spec {
		first := int(math.Floor(r.X))
		last := int(math.Ceil(r.X+r.W)) - 1
		for c := first; c <= last && c < cols; c++ {
			if c >= 0 && r.Bottom() > bottoms[c] {
				bottoms[c] = r.Bottom()
			}
		}
	}
	return bottoms
}

// Extent returns the total grid height covered by spec.
func Extent(spec model.LayoutSpec) float64 {
	if len(spec) == 0 {
		return 0
	}
	bottoms := make([]float64, 0, len(spec))
	for _, r := range spec {
		bottoms = append(bottoms, r.Bottom())
	}
	return floats.Max(bottoms)
}
