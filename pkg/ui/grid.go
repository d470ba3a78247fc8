package ui

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/tavla/pkg/model"
)

// hitBox is the screen area of one rendered tile, in grid coordinates
// (row 0 is the first grid line, before scrolling).
type hitBox struct {
	ID   string
	X, Y int
	W, H int
}

func (h hitBox) contains(x, y int) bool {
	return x >= h.X && x < h.X+h.W && y >= h.Y && y < h.Y+h.H
}

// gridView is a rendered board.
type gridView struct {
	Lines []string
	Boxes []hitBox
}

// tileAt returns the tile under grid position (x, y).
func (g gridView) tileAt(x, y int) (string, bool) {
	for _, b := range g.Boxes {
		if b.contains(x, y) {
			return b.ID, true
		}
	}
	return "", false
}

// gridInput is everything renderGrid needs from the board.
type gridInput struct {
	Tiles   []model.Tile
	Layout  model.LayoutSpec
	Columns int
	Content model.DataSnapshot
	Width   int
	Now     time.Time

	// Highlighted tile and whether the long-press is about to trigger.
	Pressed    string
	Confirming bool
}

// columnWidth returns the cell width of one grid column.
func columnWidth(width, cols int) int {
	if cols < 1 {
		cols = 1
	}
	w := (width - (cols-1)*columnGap) / cols
	if w < 12 {
		w = 12
	}
	return w
}

// renderGrid draws tiles into columns by their layout rectangles. A tile
// spanning several columns is drawn in its start column.
func renderGrid(in gridInput, theme Theme) gridView {
	cols := in.Columns
	if cols < 1 {
		cols = 1
	}
	colW := columnWidth(in.Width, cols)

	type placed struct {
		tile  model.Tile
		rect  model.Rect
		index int
	}
	byCol := make([][]placed, cols)
	for i, t := range in.Tiles {
		r, ok := in.Layout[t.ID]
		if !ok {
			continue
		}
		c := int(r.X)
		if c >= cols {
			c = cols - 1
		}
		if c < 0 {
			c = 0
		}
		byCol[c] = append(byCol[c], placed{tile: t, rect: r, index: i})
	}

	var view gridView
	columns := make([][]string, cols)
	height := 0
	for c, items := range byCol {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].rect.Y != items[j].rect.Y {
				return items[i].rect.Y < items[j].rect.Y
			}
			return items[i].index < items[j].index
		})

		var lines []string
		for _, p := range items {
			top := int(math.Round(p.rect.Y * RowsPerUnit))
			if top < len(lines) {
				top = len(lines)
			}
			for len(lines) < top {
				lines = append(lines, strings.Repeat(" ", colW))
			}
			h := int(math.Round(p.rect.H * RowsPerUnit))
			if h < 3 {
				h = 3
			}
			lines = append(lines, renderTile(p.tile, in, theme, colW, h)...)
			view.Boxes = append(view.Boxes, hitBox{
				ID: p.tile.ID,
				X:  c * (colW + columnGap),
				Y:  top,
				W:  colW,
				H:  h,
			})
		}
		columns[c] = lines
		if len(lines) > height {
			height = len(lines)
		}
	}

	blank := strings.Repeat(" ", colW)
	gap := strings.Repeat(" ", columnGap)
	view.Lines = make([]string, height)
	for row := 0; row < height; row++ {
		var sb strings.Builder
		for c := range columns {
			if c > 0 {
				sb.WriteString(gap)
			}
			if row < len(columns[c]) {
				sb.WriteString(columns[c][row])
			} else {
				sb.WriteString(blank)
			}
		}
		view.Lines[row] = sb.String()
	}
	return view
}

// renderTile draws one bordered tile of exactly h lines and w cells.
func renderTile(t model.Tile, in gridInput, theme Theme, w, h int) []string {
	innerW := w - 4 // border and padding
	innerH := h - 2
	if innerW < 1 {
		innerW = 1
	}

	body := tileContent(t, in.Content, innerW, innerH, in.Now, theme)
	border := theme.Border
	if t.ID == in.Pressed {
		border = theme.Primary
		if in.Confirming {
			border = theme.Confirming
		}
	}

	out := theme.Tile.
		BorderForeground(border).
		Width(w - 2).
		Height(innerH).
		MaxHeight(h).
		Render(joinLines(fitLines(body, innerH)))

	lines := strings.Split(out, "\n")
	lines = fitLines(lines, h)
	for i, l := range lines {
		if pad := w - lipgloss.Width(l); pad > 0 {
			lines[i] = l + strings.Repeat(" ", pad)
		}
	}
	return lines
}

// tileContent returns the text lines shown inside a tile.
func tileContent(t model.Tile, snap model.DataSnapshot, width, height int, now time.Time, theme Theme) []string {
	title := theme.TileTitle.Foreground(theme.KindColor(t.Kind)).
		Render(truncate(theme.KindIcon(t.Kind)+" "+t.Name, width))
	lines := []string{title}

	switch t.Kind {
	case model.KindWeather:
		if w := snap.Weather; w != nil {
			lines = append(lines,
				truncate(fmt.Sprintf("%s  %.0f°", w.Symbol, w.Temperature), width),
				truncate(fmt.Sprintf("Rain %.1f mm  Wind %.0f m/s", w.Precipitation, w.WindSpeed), width))
		}
	case model.KindStop:
		if stop, ok := snap.Stop(t.ID); ok {
			for _, d := range stop.Departures {
				label := strings.TrimSpace(d.Line + " " + d.Destination)
				when := clockTime(d.Time, now)
				if d.Cancelled {
					lines = append(lines, theme.MutedText.Render(twoColumn(label, "cancelled", width)))
					continue
				}
				lines = append(lines, twoColumn(label, when, width))
			}
		}
	case model.KindBikeGroup:
		for _, s := range snap.BikeStations {
			lines = append(lines, twoColumn(s.Name, fmt.Sprintf("%d bikes %d docks", s.Bikes, s.Spaces), width))
		}
	case model.KindMap:
		stops := 0
		for _, s := range snap.Stops {
			if s.DepartureCount() > 0 {
				stops++
			}
		}
		lines = append(lines,
			truncate(fmt.Sprintf("%d stops, %d bike stations", stops, len(snap.BikeStations)), width),
			theme.MutedText.Render(truncate("map view not available in terminal", width)))
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return lines
}
