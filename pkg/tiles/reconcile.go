package tiles

import (
	"github.com/vanderheijden86/tavla/pkg/debug"
	"github.com/vanderheijden86/tavla/pkg/metrics"
	"github.com/vanderheijden86/tavla/pkg/model"
)

// Reconcile merges a persisted user order with a freshly derived default
// order. A nil persisted order means nothing was stored.
//
// The persisted order is kept verbatim when it holds exactly the same set
// of ids as derived. Any membership change (a stop, bike group or map
// appearing or disappearing), a length mismatch, or a malformed persisted
// order resets to derived. Ordering is never spliced.
func Reconcile(persisted, derived model.TileOrder) model.TileOrder {
	defer metrics.Timer(metrics.Reconcile)()

	if persisted == nil {
		return derived.Clone()
	}
	if err := persisted.Validate(); err != nil {
		debug.Log("reconcile: persisted order malformed: %v", err)
		return derived.Clone()
	}
	if !SameMembers(persisted, derived) {
		debug.Log("reconcile: membership changed, resetting %s -> %s", persisted, derived)
		return derived.Clone()
	}
	return persisted.Clone()
}

// SameMembers reports whether a and b hold the same ids, ignoring order.
// Orders of different length never match.
func SameMembers(a, b model.TileOrder) bool {
	if len(a) != len(b) {
		return false
	}
	set := b.IDSet()
	if len(set) != len(b) {
		return false
	}
	for _, id := range a {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return len(a.IDSet()) == len(set)
}
