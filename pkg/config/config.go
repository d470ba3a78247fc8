// Package config handles loading and saving tavla configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/tavla/config.yaml
//   - State:   ~/.local/state/tavla/ (persisted board order and layouts)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/tavla/pkg/gesture"
	"github.com/vanderheijden86/tavla/pkg/layout"
	"github.com/vanderheijden86/tavla/pkg/model"
	"github.com/vanderheijden86/tavla/pkg/store"
)

const appName = "tavla"

// BoardConfig identifies a board.
type BoardConfig struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name,omitempty"`
	DashboardKey string `yaml:"dashboard_key,omitempty"` // empty derives one from ID
	ShowMap      bool   `yaml:"show_map,omitempty"`
}

// FeedsConfig lists the feed files and how they are watched.
type FeedsConfig struct {
	Paths          []string `yaml:"paths,omitempty"`            // Files or directories of *.yaml/*.json
	DebounceMS     int      `yaml:"debounce_ms,omitempty"`      // Quiet period before reloading
	PollIntervalMS int      `yaml:"poll_interval_ms,omitempty"` // Polling fallback interval
	ForcePoll      bool     `yaml:"force_poll,omitempty"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty"` // sqlite, file or memory
	Path    string `yaml:"path,omitempty"`    // Defaults under the state directory
}

// GestureConfig holds the long-press thresholds.
type GestureConfig struct {
	ConfirmMS     int     `yaml:"confirm_ms,omitempty"`
	TriggerMS     int     `yaml:"trigger_ms,omitempty"`
	MoveTolerance float64 `yaml:"move_tolerance,omitempty"` // Terminal cells
}

// Config is the top-level configuration for tavla.
type Config struct {
	Board   BoardConfig   `yaml:"board"`
	Boards  []BoardConfig `yaml:"boards,omitempty"` // Additional boards selectable with -board
	Feeds   FeedsConfig   `yaml:"feeds,omitempty"`
	Store   StoreConfig   `yaml:"store,omitempty"`
	Gesture GestureConfig `yaml:"gesture,omitempty"`
	// Breakpoints overrides terminal width thresholds, keyed by breakpoint
	// name (lg, md, sm, xs, xxs).
	Breakpoints map[string]int `yaml:"breakpoints,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Board: BoardConfig{
			ID:   "default",
			Name: "My board",
		},
		Feeds: FeedsConfig{
			DebounceMS:     250,
			PollIntervalMS: 2000,
		},
		Store: StoreConfig{
			Backend: store.BackendSQLite,
		},
		Gesture: GestureConfig{
			ConfirmMS:     int(gesture.DefaultConfirmDelay / time.Millisecond),
			TriggerMS:     int(gesture.DefaultTriggerDelay / time.Millisecond),
			MoveTolerance: 1,
		},
	}
}

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...)
}

// ConfigDir returns the XDG config directory for tavla.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for tavla.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", ".local", "state")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Feeds.Paths {
		cfg.Feeds.Paths[i] = expandHome(cfg.Feeds.Paths[i])
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks the config for values the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Board.ID) == "" {
		errs = append(errs, errors.New("board.id is required"))
	}
	for i, b := range c.Boards {
		if strings.TrimSpace(b.ID) == "" {
			errs = append(errs, fmt.Errorf("boards[%d].id is required", i))
		}
	}
	switch strings.ToLower(c.Store.Backend) {
	case "", store.BackendSQLite, store.BackendFile, store.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not one of sqlite, file, memory", c.Store.Backend))
	}
	if c.Feeds.DebounceMS < 0 || c.Feeds.PollIntervalMS < 0 {
		errs = append(errs, errors.New("feeds intervals must not be negative"))
	}
	if c.Gesture.ConfirmMS < 0 || c.Gesture.TriggerMS < 0 || c.Gesture.MoveTolerance < 0 {
		errs = append(errs, errors.New("gesture values must not be negative"))
	}
	if g := c.GestureConfig(); g.ConfirmDelay >= g.TriggerDelay {
		errs = append(errs, fmt.Errorf("gesture.confirm_ms (%v) must be below gesture.trigger_ms (%v)", g.ConfirmDelay, g.TriggerDelay))
	}
	if _, err := c.BreakpointTable(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// FindBoard returns the board with the given id or name. An empty name
// selects the default board.
func (c Config) FindBoard(name string) (BoardConfig, bool) {
	if name == "" || strings.EqualFold(c.Board.ID, name) || strings.EqualFold(c.Board.Name, name) {
		return c.Board, true
	}
	for _, b := range c.Boards {
		if strings.EqualFold(b.ID, name) || strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return BoardConfig{}, false
}

// GestureConfig converts the thresholds to a gesture.Config. Zero delays
// fall back to the gesture defaults.
func (c Config) GestureConfig() gesture.Config {
	g := gesture.Config{
		ConfirmDelay:  time.Duration(c.Gesture.ConfirmMS) * time.Millisecond,
		TriggerDelay:  time.Duration(c.Gesture.TriggerMS) * time.Millisecond,
		MoveTolerance: c.Gesture.MoveTolerance,
	}
	if g.ConfirmDelay <= 0 {
		g.ConfirmDelay = gesture.DefaultConfirmDelay
	}
	if g.TriggerDelay <= 0 {
		g.TriggerDelay = gesture.DefaultTriggerDelay
	}
	return g
}

// BreakpointTable returns the terminal breakpoint table with any
// configured threshold overrides applied.
func (c Config) BreakpointTable() (layout.Table, error) {
	if len(c.Breakpoints) == 0 {
		return layout.TerminalBreakpoints, nil
	}
	widths := make(map[model.Breakpoint]int, len(c.Breakpoints))
	for name, w := range c.Breakpoints {
		bp, err := model.ParseBreakpoint(name)
		if err != nil {
			return nil, fmt.Errorf("breakpoints: %w", err)
		}
		if w < 0 {
			return nil, fmt.Errorf("breakpoints: %s threshold must not be negative", name)
		}
		widths[bp] = w
	}
	return layout.TerminalBreakpoints.WithThresholds(widths)
}

// Debounce returns the feed debounce period.
func (f FeedsConfig) Debounce() time.Duration {
	return time.Duration(f.DebounceMS) * time.Millisecond
}

// PollInterval returns the feed polling interval.
func (f FeedsConfig) PollInterval() time.Duration {
	return time.Duration(f.PollIntervalMS) * time.Millisecond
}

// ResolvedPath returns the store path, defaulting to a file under the
// state directory.
func (s StoreConfig) ResolvedPath() string {
	if s.Path != "" {
		return expandHome(s.Path)
	}
	return store.DefaultPath(s.Backend, StateDir())
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
