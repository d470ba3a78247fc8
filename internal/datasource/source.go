// Package datasource loads the content snapshot of a board from feed
// files. A feed is a YAML or JSON document holding any subset of stops,
// bike stations, weather and the map flag; several feeds are merged into
// one snapshot.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/tavla/pkg/model"
)

// ErrNoFeeds is returned when no feed paths are configured or discovered.
var ErrNoFeeds = errors.New("no feeds configured")

// Format identifies the encoding of a feed file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported feed extension %q", filepath.Ext(path))
	}
}

// FeedSource describes one feed file.
type FeedSource struct {
	// Path is the absolute path to the feed file
	Path string `json:"path"`
	// Format is derived from the file extension
	Format Format `json:"format"`
	// ModTime is the last modification time of the file
	ModTime time.Time `json:"mod_time"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
	// Valid indicates whether the feed parsed
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed (if Valid is false)
	ValidationError string `json:"validation_error,omitempty"`
	// Tiles is the number of content groups in the feed (set during validation)
	Tiles int `json:"tiles"`
}

// String returns a human-readable description of the source
func (s FeedSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, mod=%s, tiles=%d, %s)",
		s.Path, s.Format, s.ModTime.Format(time.RFC3339), s.Tiles, status)
}

// DiscoverFeeds resolves configured paths into feed sources. Directories
// contribute their *.yaml, *.yml and *.json files in name order; files are
// kept in the order given. Missing paths are an error, files with other
// extensions are skipped.
func DiscoverFeeds(paths []string) ([]FeedSource, error) {
	var sources []FeedSource
	seen := make(map[string]struct{})

	add := func(path string, info os.FileInfo) {
		if _, dup := seen[path]; dup {
			return
		}
		format, err := FormatOf(path)
		if err != nil {
			return
		}
		seen[path] = struct{}{}
		sources = append(sources, FeedSource{
			Path:    path,
			Format:  format,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve feed path %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", p, err)
		}
		if !info.IsDir() {
			add(abs, info)
			continue
		}

		entries, err := os.ReadDir(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to read feed directory: %w", err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			path := filepath.Join(abs, name)
			if fi, err := os.Stat(path); err == nil {
				add(path, fi)
			}
		}
	}

	if len(sources) == 0 {
		return nil, ErrNoFeeds
	}
	return sources, nil
}

// ValidateFeed parses the feed and records the outcome on the source.
func ValidateFeed(source *FeedSource) (model.DataSnapshot, error) {
	snap, err := LoadFeed(source.Path)
	if err != nil {
		source.Valid = false
		source.ValidationError = err.Error()
		source.Tiles = 0
		return model.DataSnapshot{}, err
	}
	source.Valid = true
	source.ValidationError = ""
	source.Tiles = len(snap.Stops) + len(snap.BikeStations)
	if snap.Weather != nil {
		source.Tiles++
	}
	return snap, nil
}
