// Package testutil provides builders, fakes and assertions shared by the
// tavla test suites.
package testutil

import (
	"fmt"
	"time"

	"github.com/vanderheijden86/tavla/pkg/model"
)

// BaseTime is the fixed reference time used by generated departures.
var BaseTime = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// SnapshotBuilder assembles DataSnapshots for tests.
type SnapshotBuilder struct {
	snap model.DataSnapshot
}

// NewSnapshot starts an empty snapshot.
func NewSnapshot() *SnapshotBuilder {
	return &SnapshotBuilder{}
}

// WithWeather adds a weather report.
func (b *SnapshotBuilder) WithWeather() *SnapshotBuilder {
	b.snap.Weather = &model.WeatherReport{
		Symbol:        "partlycloudy_day",
		Temperature:   4.5,
		Precipitation: 0.2,
		WindSpeed:     3.1,
	}
	return b
}

// WithStop appends a stop with n generated departures.
func (b *SnapshotBuilder) WithStop(id, name string, n int) *SnapshotBuilder {
	stop := model.StopGroup{ID: id, Name: name}
	for i := 0; i < n; i++ {
		stop.Departures = append(stop.Departures, model.Departure{
			Line:        fmt.Sprintf("%d", 10+i),
			Destination: fmt.Sprintf("Destination %d", i+1),
			Time:        BaseTime.Add(time.Duration(i*4) * time.Minute),
		})
	}
	b.snap.Stops = append(b.snap.Stops, stop)
	return b
}

// WithBikes adds n bike stations.
func (b *SnapshotBuilder) WithBikes(n int) *SnapshotBuilder {
	for i := 0; i < n; i++ {
		b.snap.BikeStations = append(b.snap.BikeStations, model.BikeStation{
			ID:     fmt.Sprintf("bike-%d", i+1),
			Name:   fmt.Sprintf("Station %d", i+1),
			Bikes:  i + 2,
			Spaces: 10 - i,
		})
	}
	return b
}

// WithMap enables the map tile.
func (b *SnapshotBuilder) WithMap() *SnapshotBuilder {
	b.snap.MapEnabled = true
	return b
}

// Build returns the assembled snapshot.
func (b *SnapshotBuilder) Build() model.DataSnapshot {
	return b.snap
}
