package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/tavla/pkg/config"
	"github.com/vanderheijden86/tavla/pkg/store"
)

// WizardAnswers holds the values collected by the init wizard.
type WizardAnswers struct {
	BoardID    string
	BoardName  string
	ShowMap    bool
	FeedPaths  string // comma-separated
	Backend    string
	ConfirmMS  string
	TriggerMS  string
}

// answersFrom seeds the wizard with an existing config.
func answersFrom(cfg config.Config) WizardAnswers {
	return WizardAnswers{
		BoardID:   cfg.Board.ID,
		BoardName: cfg.Board.Name,
		ShowMap:   cfg.Board.ShowMap,
		FeedPaths: strings.Join(cfg.Feeds.Paths, ", "),
		Backend:   cfg.Store.Backend,
		ConfirmMS: strconv.Itoa(cfg.Gesture.ConfirmMS),
		TriggerMS: strconv.Itoa(cfg.Gesture.TriggerMS),
	}
}

// Apply writes the answers onto base and validates the result.
func (a WizardAnswers) Apply(base config.Config) (config.Config, error) {
	cfg := base
	if id := strings.TrimSpace(a.BoardID); id != "" {
		cfg.Board.ID = id
	}
	cfg.Board.Name = strings.TrimSpace(a.BoardName)
	cfg.Board.ShowMap = a.ShowMap

	cfg.Feeds.Paths = nil
	for _, p := range strings.Split(a.FeedPaths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.Feeds.Paths = append(cfg.Feeds.Paths, p)
		}
	}
	if a.Backend != "" {
		cfg.Store.Backend = a.Backend
	}

	var err error
	if cfg.Gesture.ConfirmMS, err = parseMS("confirm delay", a.ConfirmMS, cfg.Gesture.ConfirmMS); err != nil {
		return base, err
	}
	if cfg.Gesture.TriggerMS, err = parseMS("trigger delay", a.TriggerMS, cfg.Gesture.TriggerMS); err != nil {
		return base, err
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

func parseMS(name, s string, fallback int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive number of milliseconds, got %q", name, s)
	}
	return v, nil
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

func validateMS(s string) error {
	_, err := parseMS("value", s, 1)
	return err
}

// RunInitWizard asks for the basic board settings and writes a starter
// config to path. An existing config at path seeds the answers.
func RunInitWizard(path string, out io.Writer) (config.Config, error) {
	base, err := config.LoadFrom(path)
	if err != nil {
		return base, err
	}
	answers := answersFrom(base)

	fmt.Fprintln(out, "tavla setup")
	fmt.Fprintln(out, "───────────")
	fmt.Fprintf(out, "Writing %s\n\n", path)

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Board id").
				Description("Key under which the tile order is stored").
				Value(&answers.BoardID).
				Placeholder("default"),
			huh.NewInput().
				Title("Board name").
				Value(&answers.BoardName),
			huh.NewConfirm().
				Title("Show the map tile?").
				Value(&answers.ShowMap),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Feed files or directories").
				Description("Comma-separated YAML or JSON feeds").
				Value(&answers.FeedPaths).
				Placeholder(filepath.Join("~", "feeds")),
			huh.NewSelect[string]().
				Title("Where should board state be stored?").
				Options(
					huh.NewOption("SQLite database (default)", store.BackendSQLite),
					huh.NewOption("JSON file", store.BackendFile),
					huh.NewOption("Memory only (nothing persisted)", store.BackendMemory),
				).
				Value(&answers.Backend),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Long-press confirm delay (ms)").
				Value(&answers.ConfirmMS).
				Validate(validateMS),
			huh.NewInput().
				Title("Long-press trigger delay (ms)").
				Value(&answers.TriggerMS).
				Validate(validateMS),
		),
	)

	if err := form.Run(); err != nil {
		return base, err
	}

	cfg, err := answers.Apply(base)
	if err != nil {
		return base, err
	}
	if err := config.SaveTo(cfg, path); err != nil {
		return base, err
	}

	fmt.Fprintf(out, "\nSaved configuration for board %q.\n", cfg.Board.ID)
	return cfg, nil
}
