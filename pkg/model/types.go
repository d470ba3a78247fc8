// Package model holds the data types shared by the tile engine: tile
// descriptors, orders, breakpoints, grid layouts and the upstream data
// snapshot the board is composed from.
package model

import (
	"fmt"
	"strings"
	"time"
)

// TileKind identifies what a tile displays.
type TileKind string

const (
	KindWeather   TileKind = "weather"
	KindStop      TileKind = "stop"
	KindBikeGroup TileKind = "bike"
	KindMap       TileKind = "map"
)

// IsValid reports whether k is one of the known tile kinds.
func (k TileKind) IsValid() bool {
	switch k {
	case KindWeather, KindStop, KindBikeGroup, KindMap:
		return true
	}
	return false
}

// Reserved tile ids for the singleton tiles.
const (
	WeatherTileID = "weather"
	BikeTileID    = "city-bike"
	MapTileID     = "map"
)

// Tile describes one visual unit of the dashboard.
type Tile struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Kind TileKind `json:"kind"`
}

// TileOrder is an ordered sequence of tile ids.
type TileOrder []string

// Clone returns a copy of the order that does not share backing storage.
func (o TileOrder) Clone() TileOrder {
	if o == nil {
		return nil
	}
	out := make(TileOrder, len(o))
	copy(out, o)
	return out
}

// Equal reports whether both orders hold the same ids in the same positions.
func (o TileOrder) Equal(other TileOrder) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// Contains reports whether id appears in the order.
func (o TileOrder) Contains(id string) bool {
	for _, v := range o {
		if v == id {
			return true
		}
	}
	return false
}

// IDSet returns the set of ids in the order.
func (o TileOrder) IDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(o))
	for _, id := range o {
		set[id] = struct{}{}
	}
	return set
}

// Validate checks that every id is non-empty and unique.
func (o TileOrder) Validate() error {
	seen := make(map[string]struct{}, len(o))
	for i, id := range o {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("tile order entry %d: empty id", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("tile order entry %d: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (o TileOrder) String() string {
	return "[" + strings.Join(o, ", ") + "]"
}

// Departure is one upcoming departure from a stop.
type Departure struct {
	Line        string    `json:"line" yaml:"line"`
	Destination string    `json:"destination" yaml:"destination"`
	Time        time.Time `json:"time" yaml:"time"`
	Platform    string    `json:"platform,omitempty" yaml:"platform,omitempty"`
	Cancelled   bool      `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
}

// StopGroup is a stop place together with its visible departures.
type StopGroup struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Departures []Departure `json:"departures,omitempty" yaml:"departures,omitempty"`
}

// DepartureCount returns the number of visible departures.
func (s StopGroup) DepartureCount() int {
	return len(s.Departures)
}

// BikeStation is a single bike-share station.
type BikeStation struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Bikes  int    `json:"bikes" yaml:"bikes"`
	Spaces int    `json:"spaces" yaml:"spaces"`
}

// WeatherReport is the current weather for the board location.
type WeatherReport struct {
	Symbol        string  `json:"symbol" yaml:"symbol"`
	Temperature   float64 `json:"temperature" yaml:"temperature"`
	Precipitation float64 `json:"precipitation" yaml:"precipitation"`
	WindSpeed     float64 `json:"wind_speed" yaml:"wind_speed"`
}

// DataSnapshot is the latest known state of all upstream content sources.
type DataSnapshot struct {
	Stops        []StopGroup    `json:"stops,omitempty" yaml:"stops,omitempty"`
	BikeStations []BikeStation  `json:"bike_stations,omitempty" yaml:"bike_stations,omitempty"`
	Weather      *WeatherReport `json:"weather,omitempty" yaml:"weather,omitempty"`
	MapEnabled   bool           `json:"map_enabled,omitempty" yaml:"map_enabled,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// BikeGroupAvailable reports whether the snapshot has any bike stations.
func (s DataSnapshot) BikeGroupAvailable() bool {
	return len(s.BikeStations) > 0
}

// WeatherAvailable reports whether the snapshot carries a weather report.
func (s DataSnapshot) WeatherAvailable() bool {
	return s.Weather != nil
}

// HasContent reports whether any stop or bike content is present. Stops
// without an id or without departures do not count.
func (s DataSnapshot) HasContent() bool {
	for _, stop := range s.Stops {
		if stop.ID != "" && stop.DepartureCount() > 0 {
			return true
		}
	}
	return s.BikeGroupAvailable()
}

// Stop returns the stop group with the given id.
func (s DataSnapshot) Stop(id string) (StopGroup, bool) {
	for _, stop := range s.Stops {
		if stop.ID == id {
			return stop, true
		}
	}
	return StopGroup{}, false
}

// SizeHints returns the per-tile row counts used for content-dependent
// tile heights: departures for stops, stations for the bike tile. Only
// stops that become tiles are counted, first occurrence winning, so a stop
// that took a reserved id keeps its own row count.
func (s DataSnapshot) SizeHints() map[string]int {
	hints := make(map[string]int, len(s.Stops)+1)
	for _, stop := range s.Stops {
		if stop.ID == "" || stop.DepartureCount() == 0 {
			continue
		}
		if _, seen := hints[stop.ID]; seen {
			continue
		}
		hints[stop.ID] = stop.DepartureCount()
	}
	if _, taken := hints[BikeTileID]; !taken && s.BikeGroupAvailable() {
		hints[BikeTileID] = len(s.BikeStations)
	}
	return hints
}

// KindForID returns the tile kind implied by a tile id: the reserved ids
// map to their singleton kinds, anything else is a stop.
func KindForID(id string) TileKind {
	switch id {
	case WeatherTileID:
		return KindWeather
	case BikeTileID:
		return KindBikeGroup
	case MapTileID:
		return KindMap
	default:
		return KindStop
	}
}
