package layout

import "github.com/vanderheijden86/tavla/pkg/model"

// SizeProfile holds the height constants of one tile kind at one
// breakpoint, in grid units.
type SizeProfile struct {
	Base      float64
	RowHeight float64
	Padding   float64
}

// Height returns the tile height for a number of content rows. Padding is
// only added when there is at least one row.
func (p SizeProfile) Height(rows int) float64 {
	return p.Base + TileHeight(rows, p.RowHeight, p.Padding)
}

// TileHeight returns the content-dependent part of a tile's height.
func TileHeight(rows int, rowHeight, padding float64) float64 {
	if rows > 0 {
		return float64(rows)*rowHeight + padding
	}
	return 0
}

// Profiles maps breakpoint and tile kind to a size profile.
type Profiles map[model.Breakpoint]map[model.TileKind]SizeProfile

// DefaultProfiles are the dashboard's tile size constants.
var DefaultProfiles = Profiles{
	model.BreakpointLarge: {
		model.KindStop:      {Base: 2.35, RowHeight: 0.45, Padding: 0.35},
		model.KindBikeGroup: {Base: 1.55, RowHeight: 0.24},
		model.KindWeather:   {Base: 1.8},
		model.KindMap:       {Base: 3.2},
	},
	model.BreakpointMedium: {
		model.KindStop:      {Base: 2.35, RowHeight: 0.44, Padding: 0.32},
		model.KindBikeGroup: {Base: 1.55, RowHeight: 0.24},
		model.KindWeather:   {Base: 1.8},
		model.KindMap:       {Base: 3},
	},
	model.BreakpointSmall: {
		model.KindStop:      {Base: 2.25, RowHeight: 0.6, Padding: 0.32},
		model.KindBikeGroup: {Base: 1.4, RowHeight: 0.24},
		model.KindWeather:   {Base: 1.5},
		model.KindMap:       {Base: 3},
	},
	model.BreakpointExtraSmall: {
		model.KindStop:      {Base: 2.5, RowHeight: 0.75, Padding: 0.25},
		model.KindBikeGroup: {Base: 1.4, RowHeight: 0.265},
		model.KindWeather:   {Base: 1.5},
		model.KindMap:       {Base: 3},
	},
	model.BreakpointTiny: {
		model.KindStop:      {Base: 2.5, RowHeight: 0.75, Padding: 0.25},
		model.KindBikeGroup: {Base: 1.4, RowHeight: 0.265},
		model.KindWeather:   {Base: 1.5},
		model.KindMap:       {Base: 3},
	},
}

// DefaultRowCaps limits departure rows per stop tile on narrow breakpoints.
var DefaultRowCaps = map[model.Breakpoint]int{
	model.BreakpointSmall:      10,
	model.BreakpointExtraSmall: 8,
	model.BreakpointTiny:       6,
}

// fallbackProfile is used when a table has no entry for a kind.
var fallbackProfile = SizeProfile{Base: 2}

// Lookup returns the profile for a kind at a breakpoint.
func (p Profiles) Lookup(b model.Breakpoint, kind model.TileKind) SizeProfile {
	if byKind, ok := p[b]; ok {
		if prof, ok := byKind[kind]; ok {
			return prof
		}
	}
	return fallbackProfile
}
