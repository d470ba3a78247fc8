package datasource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/tavla/pkg/model"
)

// LoadFeed reads one feed file into a snapshot. The format follows the
// file extension. UpdatedAt defaults to the file's modification time.
func LoadFeed(path string) (model.DataSnapshot, error) {
	format, err := FormatOf(path)
	if err != nil {
		return model.DataSnapshot{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.DataSnapshot{}, fmt.Errorf("read feed: %w", err)
	}

	snap, err := ParseFeed(data, format)
	if err != nil {
		return model.DataSnapshot{}, fmt.Errorf("parse feed %s: %w", path, err)
	}
	if snap.UpdatedAt.IsZero() {
		if info, err := os.Stat(path); err == nil {
			snap.UpdatedAt = info.ModTime()
		}
	}
	return snap, nil
}

// ParseFeed decodes feed bytes. An empty document is an empty snapshot.
func ParseFeed(data []byte, format Format) (model.DataSnapshot, error) {
	var snap model.DataSnapshot
	if len(bytes.TrimSpace(data)) == 0 {
		return snap, nil
	}

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// A document holding only comments decodes as io.EOF.
		if err := dec.Decode(&snap); err != nil && !errors.Is(err, io.EOF) {
			return model.DataSnapshot{}, err
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&snap); err != nil {
			return model.DataSnapshot{}, err
		}
	default:
		return model.DataSnapshot{}, fmt.Errorf("unknown feed format %q", format)
	}
	return snap, nil
}

// Merge combines snapshots in order: stops and bike stations are
// concatenated, the first weather report wins, the map is enabled when any
// feed enables it, and UpdatedAt is the latest of all.
func Merge(snaps ...model.DataSnapshot) model.DataSnapshot {
	var out model.DataSnapshot
	var latest time.Time
	for _, s := range snaps {
		out.Stops = append(out.Stops, s.Stops...)
		out.BikeStations = append(out.BikeStations, s.BikeStations...)
		if out.Weather == nil && s.Weather != nil {
			w := *s.Weather
			out.Weather = &w
		}
		out.MapEnabled = out.MapEnabled || s.MapEnabled
		if s.UpdatedAt.After(latest) {
			latest = s.UpdatedAt
		}
	}
	out.UpdatedAt = latest
	return out
}
