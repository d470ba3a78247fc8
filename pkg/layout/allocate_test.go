package layout

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/tavla/pkg/model"
	"github.com/vanderheijden86/tavla/pkg/testutil"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestTileHeight_Formula(t *testing.T) {
	p := SizeProfile{Base: 2.35, RowHeight: 0.45, Padding: 0.35}

	if got := p.Height(3); !approx(got, 4.05) {
		t.Errorf("Height(3) = %v, want 4.05", got)
	}
	if got := p.Height(0); got != 2.35 {
		t.Errorf("Height(0) = %v, want exactly 2.35", got)
	}
	if got := TileHeight(0, 0.45, 0.35); got != 0 {
		t.Errorf("zero rows must contribute zero height, got %v", got)
	}
	if got := TileHeight(1, 0.24, 0); !approx(got, 0.24) {
		t.Errorf("TileHeight(1, 0.24, 0) = %v", got)
	}
}

func TestAllocate_ComputedSingleColumn(t *testing.T) {
	a := NewAllocator(PixelBreakpoints)
	order := model.TileOrder{"weather", "s1", "s2", "city-bike"}
	hints := map[string]int{"s1": 3, "s2": 0, "city-bike": 2}

	spec := a.Allocate(order, model.BreakpointSmall, hints, nil)

	want := map[string]model.Rect{
		"weather":   {X: 0, Y: 0, W: 1, H: 1.5},
		"s1":        {X: 0, Y: 1.5, W: 1, H: 2.25 + 3*0.6 + 0.32},
		"s2":        {X: 0, Y: 1.5 + 2.25 + 3*0.6 + 0.32, W: 1, H: 2.25},
		"city-bike": {X: 0, Y: 1.5 + 2.25 + 3*0.6 + 0.32 + 2.25, W: 1, H: 1.4 + 2*0.24},
	}
	testutil.AssertPlaced(t, spec, order)
	for id, w := range want {
		got := spec[id]
		if !approx(got.X, w.X) || !approx(got.Y, w.Y) || !approx(got.W, w.W) || !approx(got.H, w.H) {
			t.Errorf("%s = %+v, want %+v", id, got, w)
		}
	}
	testutil.AssertNoOverlap(t, spec)
}

func TestAllocate_ComputedRowMajorMultiColumn(t *testing.T) {
	table := Table{
		{Name: model.BreakpointSmall, MinWidth: 0, Columns: 2},
	}
	a := NewAllocator(table)
	a.Profiles = Profiles{model.BreakpointSmall: {
		model.KindStop: {Base: 2.35, RowHeight: 0.45, Padding: 0.35},
	}}
	order := model.TileOrder{"a", "b", "c"}
	spec := a.Allocate(order, model.BreakpointSmall, map[string]int{"a": 3, "b": 0, "c": 1}, nil)

	if spec["a"].X != 0 || spec["b"].X != 1 || spec["c"].X != 0 {
		t.Errorf("expected row-major columns, got %+v", spec)
	}
	if spec["a"].Y != 0 || spec["b"].Y != 0 {
		t.Errorf("first row should start at 0, got a=%v b=%v", spec["a"].Y, spec["b"].Y)
	}
	if !approx(spec["c"].Y, 4.05) {
		t.Errorf("second row should start under tallest tile (4.05), got %v", spec["c"].Y)
	}
	if !approx(Extent(spec), 4.05+2.35+0.45+0.35) {
		t.Errorf("unexpected extent %v", Extent(spec))
	}
}

func TestAllocate_RowCapOnNarrowBreakpoints(t *testing.T) {
	a := NewAllocator(PixelBreakpoints)
	hints := map[string]int{"s1": 20}

	tests := []struct {
		bp   model.Breakpoint
		rows int
	}{
		{model.BreakpointSmall, 10},
		{model.BreakpointExtraSmall, 8},
		{model.BreakpointTiny, 6},
	}
	for _, tt := range tests {
		spec := a.Allocate(model.TileOrder{"s1"}, tt.bp, hints, nil)
		want := DefaultProfiles.Lookup(tt.bp, model.KindStop).Height(tt.rows)
		if !approx(spec["s1"].H, want) {
			t.Errorf("%s: height %v, want %v (capped at %d rows)", tt.bp, spec["s1"].H, want, tt.rows)
		}
	}

	// Draggable breakpoints are not capped.
	spec := a.Allocate(model.TileOrder{"s1"}, model.BreakpointLarge, hints, nil)
	if want := DefaultProfiles.Lookup(model.BreakpointLarge, model.KindStop).Height(20); !approx(spec["s1"].H, want) {
		t.Errorf("lg: height %v, want uncapped %v", spec["s1"].H, want)
	}
}

func TestAllocate_ComputedIgnoresPersisted(t *testing.T) {
	a := NewAllocator(PixelBreakpoints)
	order := model.TileOrder{"s1", "s2"}
	persisted := model.LayoutSpec{"s1": {X: 0, Y: 9, W: 1, H: 1}}

	with := a.Allocate(order, model.BreakpointExtraSmall, nil, persisted)
	without := a.Allocate(order, model.BreakpointExtraSmall, nil, nil)
	if !with.Equal(without) {
		t.Errorf("non-draggable allocation must ignore persisted layout: %+v vs %+v", with, without)
	}
}

func TestAllocate_DraggableFirstUseFillsColumns(t *testing.T) {
	a := NewAllocator(PixelBreakpoints)
	order := model.TileOrder{"weather", "s1", "s2", "city-bike", "map"}
	hints := map[string]int{"s1": 2, "s2": 1, "city-bike": 3}

	spec := a.Allocate(order, model.BreakpointLarge, hints, nil)

	wantCols := map[string]float64{"weather": 0, "s1": 1, "s2": 2, "city-bike": 0, "map": 1}
	for id, col := range wantCols {
		if spec[id].X != col {
			t.Errorf("%s column = %v, want %v", id, spec[id].X, col)
		}
	}
	for _, id := range []string{"weather", "s1", "s2"} {
		if spec[id].Y != 0 {
			t.Errorf("%s should start at row 0, got %v", id, spec[id].Y)
		}
	}
	if spec["city-bike"].Y != spec["weather"].Bottom() {
		t.Errorf("city-bike should stack under weather: %v vs %v", spec["city-bike"].Y, spec["weather"].Bottom())
	}
	testutil.AssertNoOverlap(t, spec)
}

func TestAllocate_DraggableMergesPersisted(t *testing.T) {
	a := NewAllocator(PixelBreakpoints)
	persisted := model.LayoutSpec{
		"s1":   {X: 2, Y: 0, W: 1, H: 5},
		"gone": {X: 0, Y: 0, W: 2, H: 3},
		"s2":   {X: 0, Y: 1, W: 2, H: 2},
	}
	order := model.TileOrder{"s1", "s2", "city-bike"}

	spec := a.Allocate(order, model.BreakpointLarge, map[string]int{"city-bike": 1}, persisted)

	testutil.AssertPlaced(t, spec, order)
	if _, ok := spec["gone"]; ok {
		t.Error("entries for removed tiles must be dropped")
	}
	if spec["s1"] != persisted["s1"] || spec["s2"] != persisted["s2"] {
		t.Errorf("persisted placements must be kept: %+v", spec)
	}
	// Two tiles already placed, so the new tile lands in column 2 % 3 = 2,
	// below s1.
	bike := spec["city-bike"]
	if bike.X != 2 || bike.Y != 5 || bike.W != 1 {
		t.Errorf("city-bike = %+v, want column 2 under s1", bike)
	}
	if persisted["gone"].W != 2 {
		t.Error("Allocate must not modify the persisted spec")
	}
}

func TestAllocate_DraggableRejectsOffGridPersisted(t *testing.T) {
	a := NewAllocator(PixelBreakpoints)
	order := model.TileOrder{"s1", "s2"}
	persisted := model.LayoutSpec{
		"s1": {X: 2, Y: 0, W: 2, H: 3}, // spills past the 2 md columns
		"s2": {X: 0, Y: 0, W: 1, H: 3},
	}
	got := a.Allocate(order, model.BreakpointMedium, nil, persisted)
	fresh := a.Allocate(order, model.BreakpointMedium, nil, nil)
	if !got.Equal(fresh) {
		t.Errorf("off-grid persisted layout should be treated as absent: %+v vs %+v", got, fresh)
	}
}

func TestAllocate_OffGridStaleEntryKeepsArrangement(t *testing.T) {
	a := NewAllocator(PixelBreakpoints)
	order := model.TileOrder{"s1", "s2"}
	persisted := model.LayoutSpec{
		"s1":   {X: 1, Y: 4, W: 1, H: 3},
		"s2":   {X: 0, Y: 0, W: 1, H: 3},
		"gone": {X: 1, Y: 0, W: 2, H: 3}, // off-grid, but no longer on the board
	}
	got := a.Allocate(order, model.BreakpointMedium, nil, persisted)
	if got["s1"] != persisted["s1"] || got["s2"] != persisted["s2"] {
		t.Errorf("arrangement of remaining tiles should survive: %+v", got)
	}
	if _, ok := got["gone"]; ok {
		t.Error("stale entry should be dropped")
	}
}

func TestAllocate_PropertyDeterministicAndComplete(t *testing.T) {
	ids := []string{"weather", "a", "b", "c", "d", "city-bike", "map"}
	a := NewAllocator(PixelBreakpoints)

	rapid.Check(t, func(t *rapid.T) {
		order := model.TileOrder(rapid.SliceOfDistinct(rapid.SampledFrom(ids), func(s string) string { return s }).Draw(t, "order"))
		bp := rapid.SampledFrom(model.Breakpoints).Draw(t, "breakpoint")
		hints := map[string]int{}
		for _, id := range order {
			hints[id] = rapid.IntRange(0, 15).Draw(t, "rows-"+id)
		}

		first := a.Allocate(order, bp, hints, nil)
		second := a.Allocate(order.Clone(), bp, hints, nil)
		if !first.Equal(second) {
			t.Fatalf("allocation not deterministic: %+v vs %+v", first, second)
		}
		if len(first) != len(order) {
			t.Fatalf("placed %d tiles for order of %d", len(first), len(order))
		}
		cols := PixelBreakpoints.Columns(bp)
		if !FitsGrid(first, cols) {
			t.Fatalf("allocation does not fit %d columns: %+v", cols, first)
		}
	})
}

func TestColumnBottomsAndExtent(t *testing.T) {
	spec := model.LayoutSpec{
		"wide": {X: 0, Y: 0, W: 2, H: 2},
		"tall": {X: 2, Y: 1, W: 1, H: 4},
	}
	bottoms := ColumnBottoms(spec, 3)
	if bottoms[0] != 2 || bottoms[1] != 2 || bottoms[2] != 5 {
		t.Errorf("bottoms = %v", bottoms)
	}
	if Extent(spec) != 5 {
		t.Errorf("extent = %v, want 5", Extent(spec))
	}
	if Extent(nil) != 0 {
		t.Error("empty spec should have zero extent")
	}
}
