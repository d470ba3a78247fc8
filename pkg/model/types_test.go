package model

import (
	"math"
	"testing"
	"time"
)

func TestTileOrderValidate(t *testing.T) {
	tests := []struct {
		name    string
		order   TileOrder
		wantErr bool
	}{
		{"empty", TileOrder{}, false},
		{"nil", nil, false},
		{"unique", TileOrder{"weather", "s1", "map"}, false},
		{"duplicate", TileOrder{"s1", "s2", "s1"}, true},
		{"blank id", TileOrder{"s1", "  "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTileOrderCloneIsIndependent(t *testing.T) {
	o := TileOrder{"a", "b"}
	c := o.Clone()
	c[0] = "z"
	if o[0] != "a" {
		t.Errorf("Clone shares storage: %v", o)
	}
	if TileOrder(nil).Clone() != nil {
		t.Error("Clone of nil should stay nil")
	}
}

func TestTileOrderEqualAndContains(t *testing.T) {
	a := TileOrder{"a", "b"}
	if !a.Equal(TileOrder{"a", "b"}) {
		t.Error("expected equal orders")
	}
	if a.Equal(TileOrder{"b", "a"}) {
		t.Error("order matters for Equal")
	}
	if a.Equal(TileOrder{"a"}) {
		t.Error("different lengths must not be equal")
	}
	if !a.Contains("b") || a.Contains("c") {
		t.Error("Contains mismatch")
	}
	if got := a.String(); got != "[a, b]" {
		t.Errorf("String() = %q", got)
	}
}

func TestSnapshotAvailability(t *testing.T) {
	var s DataSnapshot
	if s.WeatherAvailable() || s.BikeGroupAvailable() || s.HasContent() {
		t.Error("empty snapshot should have nothing available")
	}

	s.Stops = []StopGroup{{ID: "s1", Name: "Empty"}}
	if s.HasContent() {
		t.Error("a stop without departures is not content")
	}

	s.Stops = []StopGroup{{Departures: []Departure{{Line: "1"}}}}
	if s.HasContent() {
		t.Error("a stop without id is not content")
	}
	s.Stops = []StopGroup{{ID: "s1", Name: "Empty"}}

	s.Stops[0].Departures = []Departure{{Line: "1", Time: time.Unix(0, 0)}}
	if !s.HasContent() {
		t.Error("a stop with departures is content")
	}

	s = DataSnapshot{BikeStations: []BikeStation{{ID: "b1"}}, Weather: &WeatherReport{}}
	if !s.BikeGroupAvailable() || !s.WeatherAvailable() || !s.HasContent() {
		t.Error("bikes and weather should be available")
	}
}

func TestSnapshotStopLookup(t *testing.T) {
	s := DataSnapshot{Stops: []StopGroup{{ID: "s1", Name: "First"}, {ID: "s2", Name: "Second"}}}
	stop, ok := s.Stop("s2")
	if !ok || stop.Name != "Second" {
		t.Errorf("Stop(s2) = %+v, %v", stop, ok)
	}
	if _, ok := s.Stop("missing"); ok {
		t.Error("Stop(missing) should not be found")
	}
}

func TestSizeHints(t *testing.T) {
	s := DataSnapshot{
		Stops: []StopGroup{
			{ID: "s1", Departures: make([]Departure, 3)},
			{ID: "s1", Departures: make([]Departure, 9)},
			{ID: "s2"},
			{ID: "", Departures: make([]Departure, 2)},
		},
		BikeStations: make([]BikeStation, 4),
	}
	hints := s.SizeHints()
	if hints["s1"] != 3 {
		t.Errorf("duplicate stop should keep its first count, got %d", hints["s1"])
	}
	if _, ok := hints["s2"]; ok {
		t.Error("a stop without departures is not a tile and gets no hint")
	}
	if _, ok := hints[""]; ok {
		t.Error("a stop without id gets no hint")
	}
	if hints[BikeTileID] != 4 {
		t.Errorf("bike hint = %d, want 4", hints[BikeTileID])
	}
}

func TestSizeHintsStopWithReservedID(t *testing.T) {
	s := DataSnapshot{
		Stops:        []StopGroup{{ID: BikeTileID, Departures: make([]Departure, 3)}},
		BikeStations: make([]BikeStation, 7),
	}
	if got := s.SizeHints()[BikeTileID]; got != 3 {
		t.Errorf("stop %q hint = %d, want its 3 departures", BikeTileID, got)
	}
}

func TestKindForID(t *testing.T) {
	tests := map[string]TileKind{
		WeatherTileID: KindWeather,
		BikeTileID:    KindBikeGroup,
		MapTileID:     KindMap,
		"NSR:123":     KindStop,
	}
	for id, want := range tests {
		if got := KindForID(id); got != want {
			t.Errorf("KindForID(%q) = %s, want %s", id, got, want)
		}
		if !want.IsValid() {
			t.Errorf("%s should be a valid kind", want)
		}
	}
	if TileKind("clock").IsValid() {
		t.Error("unknown kind reported valid")
	}
}

func TestParseBreakpoint(t *testing.T) {
	for _, b := range Breakpoints {
		got, err := ParseBreakpoint(string(b))
		if err != nil || got != b {
			t.Errorf("ParseBreakpoint(%q) = %q, %v", b, got, err)
		}
	}
	if _, err := ParseBreakpoint("xl"); err == nil {
		t.Error("expected error for unknown breakpoint")
	}
}

func TestRectValid(t *testing.T) {
	tests := []struct {
		name string
		r    Rect
		cols int
		want bool
	}{
		{"fits", Rect{X: 2, Y: 0, W: 1, H: 4}, 3, true},
		{"spans", Rect{X: 1, Y: 3, W: 2, H: 1}, 3, true},
		{"past right edge", Rect{X: 2, Y: 0, W: 2, H: 1}, 3, false},
		{"negative x", Rect{X: -1, Y: 0, W: 1, H: 1}, 3, false},
		{"zero width", Rect{X: 0, Y: 0, W: 0, H: 1}, 3, false},
		{"zero height", Rect{X: 0, Y: 0, W: 1, H: 0}, 3, false},
		{"nan", Rect{X: math.NaN(), Y: 0, W: 1, H: 1}, 3, false},
		{"inf", Rect{X: 0, Y: math.Inf(1), W: 1, H: 1}, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Valid(tt.cols); got != tt.want {
				t.Errorf("Valid(%d) = %v, want %v", tt.cols, got, tt.want)
			}
		})
	}
}

func TestLayoutSpecIDsSortsByPosition(t *testing.T) {
	spec := LayoutSpec{
		"c": {X: 0, Y: 4, W: 1, H: 1},
		"b": {X: 1, Y: 0, W: 1, H: 1},
		"a": {X: 0, Y: 0, W: 1, H: 1},
		"d": {X: 0, Y: 4, W: 1, H: 2},
	}
	got := spec.IDs()
	want := []string{"a", "b", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("IDs() = %v, want %v", got, want)
		}
	}
}

func TestLayoutSpecCloneAndEqual(t *testing.T) {
	spec := LayoutSpec{"a": {X: 0, Y: 0, W: 1, H: 2}}
	c := spec.Clone()
	if !c.Equal(spec) {
		t.Fatal("clone should equal original")
	}
	c["a"] = Rect{X: 1, Y: 0, W: 1, H: 2}
	if c.Equal(spec) {
		t.Error("modified clone should differ")
	}
	if spec["a"].X != 0 {
		t.Error("Clone shares storage")
	}
	if LayoutSpec(nil).Clone() != nil {
		t.Error("Clone of nil should stay nil")
	}
	if (LayoutSpec{"a": {}}).Equal(LayoutSpec{"b": {}}) {
		t.Error("different ids must not be equal")
	}
}

func TestGestureStateString(t *testing.T) {
	if GestureVisuallyConfirming.String() != "confirming" {
		t.Errorf("got %q", GestureVisuallyConfirming.String())
	}
	if GestureState(42).String() != "GestureState(42)" {
		t.Errorf("got %q", GestureState(42).String())
	}
}
