package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/tavla/pkg/model"
	"github.com/vanderheijden86/tavla/pkg/tiles"
)

// SnapshotDiff describes how the tile set of a board changes between two
// snapshots.
type SnapshotDiff struct {
	// Added contains tile IDs present in the new snapshot only
	Added []string
	// Removed contains tile IDs present in the old snapshot only
	Removed []string
	// Resized contains tiles whose content row count changed
	Resized []RowChange
	// Renamed contains tile IDs whose display name changed
	Renamed []string
	// Reordered is set when the default order changed with equal membership
	Reordered bool
	// CountA is the number of tiles in the old snapshot
	CountA int
	// CountB is the number of tiles in the new snapshot
	CountB int
	// Feeds lists the feed files whose change triggered the reload
	Feeds []string
}

// RowChange records a content row count difference for one tile.
type RowChange struct {
	ID    string `json:"id"`
	RowsA int    `json:"rows_a"`
	RowsB int    `json:"rows_b"`
}

// MembershipChanged reports whether tiles were added or removed. A
// membership change resets any committed order.
func (d SnapshotDiff) MembershipChanged() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// Relevant reports whether the difference affects order or layout. Board
// recomputation can be skipped when it does not.
func (d SnapshotDiff) Relevant() bool {
	return d.MembershipChanged() || d.Reordered || len(d.Resized) > 0 || len(d.Renamed) > 0
}

// Summary returns a short human-readable description of the changes.
func (d SnapshotDiff) Summary() string {
	if !d.Relevant() {
		return fmt.Sprintf("No tile changes (%d tiles)", d.CountB)
	}
	var parts []string
	if len(d.Added) > 0 {
		parts = append(parts, fmt.Sprintf("+%d (%s)", len(d.Added), strings.Join(d.Added, ", ")))
	}
	if len(d.Removed) > 0 {
		parts = append(parts, fmt.Sprintf("-%d (%s)", len(d.Removed), strings.Join(d.Removed, ", ")))
	}
	if len(d.Resized) > 0 {
		parts = append(parts, fmt.Sprintf("%d resized", len(d.Resized)))
	}
	if len(d.Renamed) > 0 {
		parts = append(parts, fmt.Sprintf("%d renamed", len(d.Renamed)))
	}
	if d.Reordered {
		parts = append(parts, "reordered")
	}
	return "Tiles: " + strings.Join(parts, ", ")
}

// Diff compares the tiles and size hints derived from two snapshots.
func Diff(a, b model.DataSnapshot) SnapshotDiff {
	tilesA, tilesB := tiles.DeriveTiles(a), tiles.DeriveTiles(b)
	orderA, orderB := tiles.OrderOf(tilesA), tiles.OrderOf(tilesB)
	setA, setB := orderA.IDSet(), orderB.IDSet()

	d := SnapshotDiff{CountA: len(orderA), CountB: len(orderB)}
	for _, id := range orderB {
		if _, ok := setA[id]; !ok {
			d.Added = append(d.Added, id)
		}
	}
	for _, id := range orderA {
		if _, ok := setB[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}

	hintsA, hintsB := a.SizeHints(), b.SizeHints()
	for _, id := range orderB {
		if _, ok := setA[id]; !ok {
			continue
		}
		if hintsA[id] != hintsB[id] {
			d.Resized = append(d.Resized, RowChange{ID: id, RowsA: hintsA[id], RowsB: hintsB[id]})
		}
	}
	sort.Slice(d.Resized, func(i, j int) bool { return d.Resized[i].ID < d.Resized[j].ID })

	namesA := make(map[string]string, len(tilesA))
	for _, t := range tilesA {
		namesA[t.ID] = t.Name
	}
	for _, t := range tilesB {
		if name, ok := namesA[t.ID]; ok && name != t.Name {
			d.Renamed = append(d.Renamed, t.ID)
		}
	}
	sort.Strings(d.Renamed)

	if !d.MembershipChanged() && !orderA.Equal(orderB) {
		d.Reordered = true
	}
	return d
}
