package testutil

import (
	"testing"

	"github.com/vanderheijden86/tavla/pkg/model"
)

// AssertValidOrder verifies the order has no empty or duplicate ids.
func AssertValidOrder(t testing.TB, order model.TileOrder) {
	t.Helper()
	if err := order.Validate(); err != nil {
		t.Errorf("invalid tile order %s: %v", order, err)
	}
}

// AssertOrder verifies an order matches the expected ids exactly.
func AssertOrder(t testing.TB, got model.TileOrder, want ...string) {
	t.Helper()
	if !got.Equal(model.TileOrder(want)) {
		t.Errorf("order = %s, want %s", got, model.TileOrder(want))
	}
}

// AssertNoOverlap verifies no two rectangles in the spec intersect.
func AssertNoOverlap(t testing.TB, spec model.LayoutSpec) {
	t.Helper()
	ids := spec.IDs()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := spec[ids[i]], spec[ids[j]]
			if a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H {
				t.Errorf("tiles %q %+v and %q %+v overlap", ids[i], a, ids[j], b)
			}
		}
	}
}

// AssertPlaced verifies the spec places exactly the ids of the order.
func AssertPlaced(t testing.TB, spec model.LayoutSpec, order model.TileOrder) {
	t.Helper()
	if len(spec) != len(order) {
		t.Errorf("spec places %d tiles, order has %d", len(spec), len(order))
	}
	for _, id := range order {
		if _, ok := spec[id]; !ok {
			t.Errorf("tile %q missing from layout", id)
		}
	}
}
