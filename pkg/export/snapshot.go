// Package export renders board arrangements to files and writes starter
// configuration.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/tavla/pkg/layout"
	"github.com/vanderheijden86/tavla/pkg/model"
)

// LayoutSnapshotOptions controls layout snapshot export.
type LayoutSnapshotOptions struct {
	Path       string           // Output path; format inferred from extension when Format empty
	Format     string           // "svg" or "png" (case-insensitive)
	Title      string           // Rendered in the header
	Breakpoint model.Breakpoint // Shown in the header
	Columns    int              // Grid columns of the breakpoint
	Tiles      []model.Tile     // Tiles in effective order
	Layout     model.LayoutSpec // Placement per tile id
}

// SaveLayoutSnapshot renders the board arrangement as SVG or PNG.
func SaveLayoutSnapshot(opts LayoutSnapshotOptions) error {
	if len(opts.Tiles) == 0 {
		return fmt.Errorf("no tiles to export")
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		case ".svg":
			format = "svg"
		default:
			format = "svg"
			if filepath.Ext(opts.Path) == "" {
				opts.Path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	g := buildGrid(opts)
	if format == "png" {
		return renderPNG(opts.Path, g)
	}

	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	if err := renderSVG(file, g); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteLayoutSVG renders the arrangement as SVG to w.
func WriteLayoutSVG(w io.Writer, opts LayoutSnapshotOptions) error {
	return renderSVG(w, buildGrid(opts))
}

// --- grid computation ------------------------------------------------------

const (
	colWidth     = 260.0
	unitHeight   = 48.0 // pixels per layout height unit
	gutter       = 12.0
	padding      = 24.0
	headerHeight = 72.0
)

type gridBox struct {
	ID    string
	Name  string
	Kind  model.TileKind
	X, Y  float64
	W, H  float64
	Index int
}

type gridResult struct {
	Title    string
	Subtitle string
	Boxes    []gridBox
	Width    int
	Height   int
}

func buildGrid(opts LayoutSnapshotOptions) gridResult {
	cols := opts.Columns
	if cols < 1 {
		cols = 1
	}
	title := opts.Title
	if title == "" {
		title = "Board layout"
	}

	res := gridResult{
		Title:    title,
		Subtitle: fmt.Sprintf("breakpoint: %s  columns: %d  tiles: %d", opts.Breakpoint, cols, len(opts.Tiles)),
	}

	for i, t := range opts.Tiles {
		r, ok := opts.Layout[t.ID]
		if !ok {
			continue
		}
		res.Boxes = append(res.Boxes, gridBox{
			ID:    t.ID,
			Name:  t.Name,
			Kind:  t.Kind,
			X:     padding + r.X*(colWidth+gutter),
			Y:     headerHeight + padding + r.Y*unitHeight,
			W:     r.W*colWidth + (r.W-1)*gutter,
			H:     r.H*unitHeight - gutter/2,
			Index: i + 1,
		})
	}

	res.Width = int(2*padding + float64(cols)*colWidth + float64(cols-1)*gutter)
	res.Height = int(headerHeight + 2*padding + layout.Extent(opts.Layout)*unitHeight)
	return res
}

// --- rendering ---------------------------------------------------------------

var (
	colorWeather  = color.RGBA{0xdb, 0xea, 0xfe, 0xff}
	colorStop     = color.RGBA{0xdc, 0xfc, 0xe7, 0xff}
	colorBikes    = color.RGBA{0xfe, 0xf3, 0xc7, 0xff}
	colorMap      = color.RGBA{0xed, 0xe9, 0xfe, 0xff}
	colorStroke   = color.RGBA{0x33, 0x33, 0x33, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
)

func kindColor(k model.TileKind) color.RGBA {
	switch k {
	case model.KindWeather:
		return colorWeather
	case model.KindBikeGroup:
		return colorBikes
	case model.KindMap:
		return colorMap
	default:
		return colorStop
	}
}

func renderPNG(path string, g gridResult) error {
	dc := gg.NewContext(g.Width, g.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(12, 12, float64(g.Width)-24, headerHeight-12, 8)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(g.Title, padding, 32, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(g.Subtitle, padding, 52, 0, 0.5)

	for _, b := range g.Boxes {
		dc.SetColor(kindColor(b.Kind))
		dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, 8)
		dc.Fill()
		dc.SetColor(colorStroke)
		dc.SetLineWidth(1.2)
		dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, 8)
		dc.Stroke()

		dc.SetColor(colorText)
		dc.DrawStringAnchored(fmt.Sprintf("%d. %s", b.Index, truncate(b.Name, 32)), b.X+10, b.Y+18, 0, 0.5)
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(truncate(b.ID, 32), b.X+10, b.Y+36, 0, 0.5)
	}

	return dc.SavePNG(path)
}

func renderSVG(w io.Writer, g gridResult) error {
	canvas := svg.New(w)
	canvas.Start(g.Width, g.Height)
	canvas.Rect(0, 0, g.Width, g.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(12, 12, g.Width-24, int(headerHeight-12), 8, 8, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(int(padding), 36, g.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(int(padding), 56, g.Subtitle, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))

	for _, b := range g.Boxes {
		x, y := int(b.X), int(b.Y)
		canvas.Group(fmt.Sprintf(`id="tile-%s" data-kind="%s"`, svgID(b.ID), b.Kind))
		canvas.Roundrect(x, y, int(b.W), int(b.H), 8, 8,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.2", css(kindColor(b.Kind)), css(colorStroke)))
		canvas.Text(x+10, y+22, fmt.Sprintf("%d. %s", b.Index, truncate(b.Name, 32)),
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
		canvas.Text(x+10, y+40, truncate(b.ID, 32),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
		canvas.Gend()
	}

	canvas.End()
	return nil
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// svgID keeps ids usable as XML attribute values.
func svgID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
