package datasource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vanderheijden86/tavla/pkg/model"
	"github.com/vanderheijden86/tavla/pkg/testutil"
	"github.com/vanderheijden86/tavla/pkg/tiles"
)

const stopsYAML = `
stops:
  - id: s1
    name: Central Station
    departures:
      - line: "31"
        destination: Harbour
        time: 2024-03-01T08:04:00Z
      - line: "54"
        destination: Airport
        time: 2024-03-01T08:09:00Z
  - id: s2
    name: Harbour
    departures:
      - line: "12"
        destination: Central
        time: 2024-03-01T08:02:00Z
`

const bikesJSON = `{
  "bike_stations": [
    {"id": "b1", "name": "Square", "bikes": 3, "spaces": 7},
    {"id": "b2", "name": "Park", "bikes": 0, "spaces": 12}
  ],
  "weather": {"symbol": "rain", "temperature": 4.5, "precipitation": 1.2, "wind_speed": 6},
  "map_enabled": true
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFeed_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	snap, err := LoadFeed(writeFile(t, dir, "stops.yaml", stopsYAML))
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if len(snap.Stops) != 2 || snap.Stops[0].DepartureCount() != 2 {
		t.Errorf("unexpected stops %+v", snap.Stops)
	}
	if got := snap.Stops[0].Departures[0].Time; !got.Equal(time.Date(2024, 3, 1, 8, 4, 0, 0, time.UTC)) {
		t.Errorf("departure time = %v", got)
	}
	if snap.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should default to the file modification time")
	}

	snap, err = LoadFeed(writeFile(t, dir, "bikes.json", bikesJSON))
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if !snap.BikeGroupAvailable() || !snap.WeatherAvailable() || !snap.MapEnabled {
		t.Errorf("unexpected json snapshot %+v", snap)
	}
}

func TestLoadFeed_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"bad.yaml":     "stops: [",
		"unknown.yaml": "trains: []",
		"bad.json":     `{"stops": }`,
		"unknown.json": `{"stops": [], "extra": 1}`,
		"feed.toml":    `stops = []`,
	}
	for name, content := range tests {
		if _, err := LoadFeed(writeFile(t, dir, name, content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := LoadFeed(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestParseFeed_EmptyDocuments(t *testing.T) {
	for _, tc := range []struct {
		data   string
		format Format
	}{
		{"", FormatYAML},
		{"# nothing yet\n", FormatYAML},
		{"   \n", FormatJSON},
	} {
		snap, err := ParseFeed([]byte(tc.data), tc.format)
		if err != nil {
			t.Errorf("%q (%s): %v", tc.data, tc.format, err)
		}
		if snap.HasContent() {
			t.Errorf("%q should be empty", tc.data)
		}
	}
}

func TestDiscoverFeeds(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", stopsYAML)
	writeFile(t, dir, "a.json", bikesJSON)
	writeFile(t, dir, "readme.md", "# feeds")
	writeFile(t, dir, ".hidden.yaml", stopsYAML)
	extra := writeFile(t, t.TempDir(), "extra.yml", "")

	sources, err := DiscoverFeeds([]string{extra, dir, extra})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, s := range sources {
		names = append(names, filepath.Base(s.Path))
	}
	want := []string{"extra.yml", "a.json", "b.yaml"}
	if len(names) != len(want) {
		t.Fatalf("discovered %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("discovered %v, want %v", names, want)
			break
		}
	}

	if _, err := DiscoverFeeds(nil); !errors.Is(err, ErrNoFeeds) {
		t.Errorf("err = %v, want ErrNoFeeds", err)
	}
	if _, err := DiscoverFeeds([]string{filepath.Join(dir, "nope.yaml")}); err == nil {
		t.Error("missing path should be an error")
	}
}

func TestValidateFeed(t *testing.T) {
	dir := t.TempDir()
	good := FeedSource{Path: writeFile(t, dir, "good.yaml", stopsYAML)}
	bad := FeedSource{Path: writeFile(t, dir, "bad.json", "{"), Tiles: 5}

	snap, err := ValidateFeed(&good)
	if err != nil || !good.Valid || good.Tiles != 2 {
		t.Errorf("good feed: %v %+v", err, good)
	}
	if len(snap.Stops) != 2 {
		t.Errorf("good feed snapshot has %d stops, want 2", len(snap.Stops))
	}
	if _, err := ValidateFeed(&bad); err == nil || bad.Valid || bad.ValidationError == "" {
		t.Errorf("bad feed should be invalid: %+v", bad)
	}
	if bad.Tiles != 0 {
		t.Errorf("invalid feed should report 0 tiles, got %d", bad.Tiles)
	}
	if !strings.Contains(bad.String(), "invalid") {
		t.Errorf("String() = %q, want the invalid status", bad.String())
	}
}

func TestAggregator_RecordsSkippedFeeds(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a-stops.yaml", stopsYAML)
	writeFile(t, dir, "b-broken.json", "{")

	agg, _ := NewAggregator([]string{dir}, AggregatorOptions{})
	if _, err := agg.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := agg.Skipped(); got != 1 {
		t.Errorf("Skipped() = %d, want 1", got)
	}
	sources := agg.Sources()
	if len(sources) != 2 {
		t.Fatalf("Sources() = %d feeds, want 2", len(sources))
	}
	if !sources[0].Valid || sources[0].Tiles != 2 {
		t.Errorf("stops feed = %+v, want valid with 2 tiles", sources[0])
	}
	if sources[1].Valid || sources[1].ValidationError == "" {
		t.Errorf("broken feed = %+v, want invalid with a reason", sources[1])
	}

	sources[0].Valid = false
	if agg.Skipped() != 1 {
		t.Error("Sources() should return a copy")
	}
}

func TestMerge(t *testing.T) {
	a := testutil.NewSnapshot().WithStop("s1", "One", 1).Build()
	a.UpdatedAt = time.Unix(10, 0)
	b := testutil.NewSnapshot().WithWeather().WithStop("s2", "Two", 2).WithBikes(1).WithMap().Build()
	b.UpdatedAt = time.Unix(20, 0)
	c := testutil.NewSnapshot().WithWeather().Build()
	c.Weather.Symbol = "snow"

	m := Merge(a, b, c)
	if len(m.Stops) != 2 || m.Stops[0].ID != "s1" || m.Stops[1].ID != "s2" {
		t.Errorf("stops not concatenated in order: %+v", m.Stops)
	}
	if m.Weather == nil || m.Weather.Symbol != "partlycloudy_day" {
		t.Errorf("first weather report should win, got %+v", m.Weather)
	}
	if !m.MapEnabled || len(m.BikeStations) != 1 {
		t.Errorf("map/bikes not merged: %+v", m)
	}
	if !m.UpdatedAt.Equal(time.Unix(20, 0)) {
		t.Errorf("UpdatedAt = %v", m.UpdatedAt)
	}
}

func TestAggregator_LoadSkipsBrokenFeeds(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "1-stops.yaml", stopsYAML)
	writeFile(t, dir, "2-bikes.json", bikesJSON)
	writeFile(t, dir, "3-broken.yaml", "stops: [")

	agg, err := NewAggregator([]string{dir}, AggregatorOptions{})
	if err != nil {
		t.Fatal(err)
	}
	snap, err := agg.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	testutil.AssertOrder(t, tiles.DeriveDefaultOrder(snap), "weather", "s1", "s2", "city-bike", "map")
	if last, ok := agg.Last(); !ok || len(last.Stops) != 2 {
		t.Error("Last should return the loaded snapshot")
	}
}

func TestAggregator_AllFeedsFail(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", "{")

	agg, _ := NewAggregator([]string{dir}, AggregatorOptions{})
	if _, err := agg.Load(context.Background()); err == nil {
		t.Error("expected error when every feed fails")
	}
	if _, ok := agg.Last(); ok {
		t.Error("no snapshot should be recorded")
	}
}

func TestAggregator_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "stops.yaml", stopsYAML)
	agg, _ := NewAggregator([]string{dir}, AggregatorOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := agg.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAggregator_MapOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "stops.yaml", stopsYAML)
	agg, _ := NewAggregator([]string{dir}, AggregatorOptions{MapEnabled: true})
	snap, err := agg.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !snap.MapEnabled {
		t.Error("MapEnabled option should force the map flag")
	}
}

func TestNewAggregator_NoFeeds(t *testing.T) {
	if _, err := NewAggregator(nil, AggregatorOptions{}); !errors.Is(err, ErrNoFeeds) {
		t.Errorf("err = %v, want ErrNoFeeds", err)
	}
}

func TestAggregator_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	feed := writeFile(t, dir, "stops.yaml", stopsYAML)

	agg, _ := NewAggregator([]string{feed}, AggregatorOptions{
		Debounce:     10 * time.Millisecond,
		PollInterval: 20 * time.Millisecond,
		ForcePoll:    true,
	})
	if _, err := agg.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	var (
		mu    sync.Mutex
		diffs []SnapshotDiff
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := agg.Watch(ctx, func(_ model.DataSnapshot, d SnapshotDiff) {
		mu.Lock()
		diffs = append(diffs, d)
		mu.Unlock()
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer agg.Close()
	if !agg.Polling() {
		t.Error("ForcePoll should select polling")
	}

	time.Sleep(40 * time.Millisecond)
	writeFile(t, dir, "stops.yaml", stopsYAML+"bike_stations:\n  - id: b1\n    name: Square\n    bikes: 2\n    spaces: 3\n")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(diffs)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(diffs) == 0 {
		t.Fatal("no reload observed")
	}
	if got := diffs[0].Added; len(got) != 1 || got[0] != "city-bike" {
		t.Errorf("diff added = %v, want [city-bike]", got)
	}
	if got := diffs[0].Feeds; len(got) != 1 || got[0] != feed {
		t.Errorf("diff feeds = %v, want [%s]", got, feed)
	}
}
