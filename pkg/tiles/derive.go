// Package tiles derives the canonical tile order for a board and
// reconciles it with an order the user committed earlier.
package tiles

import (
	"github.com/vanderheijden86/tavla/pkg/debug"
	"github.com/vanderheijden86/tavla/pkg/metrics"
	"github.com/vanderheijden86/tavla/pkg/model"
)

// Display names for the singleton tiles.
const (
	WeatherTileName = "Weather"
	BikeTileName    = "City bikes"
	MapTileName     = "Map"
)

// DeriveTiles returns the canonical tile descriptors for a snapshot:
// weather first, one tile per stop with departures in snapshot order, the
// aggregated bike tile, and the map tile last when enabled and there is
// any stop or bike content. Duplicate ids keep their first occurrence.
func DeriveTiles(s model.DataSnapshot) []model.Tile {
	defer metrics.Timer(metrics.Derive)()

	out := make([]model.Tile, 0, len(s.Stops)+3)
	seen := make(map[string]struct{}, len(s.Stops)+3)
	add := func(t model.Tile) {
		if _, dup := seen[t.ID]; dup {
			debug.Log("derive: dropping duplicate tile id %q (%s)", t.ID, t.Kind)
			return
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}

	if s.WeatherAvailable() {
		add(model.Tile{ID: model.WeatherTileID, Name: WeatherTileName, Kind: model.KindWeather})
	}
	for _, stop := range s.Stops {
		if stop.ID == "" || stop.DepartureCount() == 0 {
			continue
		}
		add(model.Tile{ID: stop.ID, Name: stop.Name, Kind: model.KindStop})
	}
	if s.BikeGroupAvailable() {
		add(model.Tile{ID: model.BikeTileID, Name: BikeTileName, Kind: model.KindBikeGroup})
	}
	if s.MapEnabled && s.HasContent() {
		add(model.Tile{ID: model.MapTileID, Name: MapTileName, Kind: model.KindMap})
	}
	return out
}

// DeriveDefaultOrder returns the canonical tile order for a snapshot.
func DeriveDefaultOrder(s model.DataSnapshot) model.TileOrder {
	return OrderOf(DeriveTiles(s))
}

// OrderOf returns the ids of the tiles in order.
func OrderOf(tiles []model.Tile) model.TileOrder {
	order := make(model.TileOrder, len(tiles))
	for i, t := range tiles {
		order[i] = t.ID
	}
	return order
}
