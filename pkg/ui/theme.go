package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/tavla/pkg/model"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals use the
// terminal's own background instead of a down-converted approximation.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme holds the colors and pre-computed styles of the board view.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary lipgloss.AdaptiveColor
	Subtext lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor

	// Tile kinds
	Weather lipgloss.AdaptiveColor
	Stop    lipgloss.AdaptiveColor
	Bikes   lipgloss.AdaptiveColor
	Map     lipgloss.AdaptiveColor

	// Gesture feedback
	Confirming lipgloss.AdaptiveColor
	Cancelled  lipgloss.AdaptiveColor

	Base      lipgloss.Style
	Header    lipgloss.Style
	Footer    lipgloss.Style
	Tile      lipgloss.Style
	TileTitle lipgloss.Style
	MutedText lipgloss.Style
	Selected  lipgloss.Style
	Modal     lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary: ColorPrimary,
		Subtext: ColorSubtext,
		Border:  ColorBorder,
		Muted:   ColorMuted,

		Weather: ColorInfo,
		Stop:    ColorSuccess,
		Bikes:   ColorWarning,
		Map:     ColorPrimary,

		Confirming: ColorWarning,
		Cancelled:  ColorDanger,
	}

	t.Base = r.NewStyle().Foreground(ColorText)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.Footer = r.NewStyle().Foreground(t.Subtext)

	t.Tile = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	t.TileTitle = r.NewStyle().Bold(true)
	t.MutedText = r.NewStyle().Foreground(t.Muted)

	t.Selected = r.NewStyle().
		Background(ColorBgHighlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Modal = r.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2)

	t.Status = r.NewStyle().Foreground(ColorInfo)
	t.Error = r.NewStyle().Foreground(ColorDanger).Bold(true)

	return t
}

// KindColor returns the accent color of a tile kind.
func (t Theme) KindColor(k model.TileKind) lipgloss.AdaptiveColor {
	switch k {
	case model.KindWeather:
		return t.Weather
	case model.KindBikeGroup:
		return t.Bikes
	case model.KindMap:
		return t.Map
	default:
		return t.Stop
	}
}

// KindIcon returns the single-cell marker shown before a tile title.
func (t Theme) KindIcon(k model.TileKind) string {
	switch k {
	case model.KindWeather:
		return "W"
	case model.KindBikeGroup:
		return "B"
	case model.KindMap:
		return "M"
	default:
		return "S"
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
