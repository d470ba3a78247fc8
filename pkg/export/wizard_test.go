package export

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/tavla/pkg/config"
)

func TestWizardAnswers_Apply(t *testing.T) {
	base := config.DefaultConfig()
	answers := answersFrom(base)
	answers.BoardID = " office "
	answers.BoardName = "Office"
	answers.ShowMap = true
	answers.FeedPaths = "/feeds/a.yaml, ,/feeds/b.json"
	answers.Backend = "file"
	answers.TriggerMS = "900"

	cfg, err := answers.Apply(base)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.Board.ID != "office" || cfg.Board.Name != "Office" || !cfg.Board.ShowMap {
		t.Errorf("unexpected board %+v", cfg.Board)
	}
	if len(cfg.Feeds.Paths) != 2 || cfg.Feeds.Paths[1] != "/feeds/b.json" {
		t.Errorf("unexpected feed paths %v", cfg.Feeds.Paths)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("expected file backend, got %q", cfg.Store.Backend)
	}
	if cfg.Gesture.ConfirmMS != 150 || cfg.Gesture.TriggerMS != 900 {
		t.Errorf("unexpected gesture %+v", cfg.Gesture)
	}
}

func TestWizardAnswers_ApplyRejectsBadValues(t *testing.T) {
	base := config.DefaultConfig()

	tests := []struct {
		name   string
		mutate func(*WizardAnswers)
		want   string
	}{
		{"non-numeric delay", func(a *WizardAnswers) { a.ConfirmMS = "soon" }, "confirm delay"},
		{"negative delay", func(a *WizardAnswers) { a.TriggerMS = "-5" }, "trigger delay"},
		{"confirm after trigger", func(a *WizardAnswers) { a.ConfirmMS = "1000" }, "confirm_ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := answersFrom(base)
			tt.mutate(&a)
			cfg, err := a.Apply(base)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
			if cfg.Board != base.Board {
				t.Error("expected base config back on error")
			}
		})
	}
}

func TestAnswersFrom_RoundTrip(t *testing.T) {
	base := config.DefaultConfig()
	base.Feeds.Paths = []string{"/a", "/b"}

	cfg, err := answersFrom(base).Apply(base)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(cfg.Feeds.Paths, ",") != "/a,/b" {
		t.Errorf("feed paths not preserved: %v", cfg.Feeds.Paths)
	}
	if cfg.Board != base.Board || cfg.Gesture != base.Gesture {
		t.Error("unchanged answers should reproduce the base config")
	}
}
