package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/tavla/pkg/model"
)

// reorderModal is the editing state of the reorder UI. It works on a copy
// of the effective order; nothing reaches the board until commit.
type reorderModal struct {
	open   bool
	order  model.TileOrder
	cursor int
	dirty  bool
}

func (r *reorderModal) start(order model.TileOrder) {
	r.open = true
	r.order = order.Clone()
	r.cursor = 0
	r.dirty = false
}

func (r *reorderModal) close() {
	r.open = false
	r.order = nil
	r.cursor = 0
	r.dirty = false
}

func (r *reorderModal) selected() (string, bool) {
	if r.cursor < 0 || r.cursor >= len(r.order) {
		return "", false
	}
	return r.order[r.cursor], true
}

func (r *reorderModal) moveCursor(delta int) {
	if len(r.order) == 0 {
		return
	}
	r.cursor += delta
	if r.cursor < 0 {
		r.cursor = 0
	}
	if r.cursor >= len(r.order) {
		r.cursor = len(r.order) - 1
	}
}

// shift swaps the selected tile with its neighbour; the cursor follows
// the tile.
func (r *reorderModal) shift(delta int) bool {
	to := r.cursor + delta
	if r.cursor < 0 || r.cursor >= len(r.order) || to < 0 || to >= len(r.order) {
		return false
	}
	r.order[r.cursor], r.order[to] = r.order[to], r.order[r.cursor]
	r.cursor = to
	r.dirty = true
	return true
}

// sync drops tiles that disappeared and appends new ones so the modal
// never edits a stale tile set. The board rejects such a commit anyway.
func (r *reorderModal) sync(current model.TileOrder) {
	if !r.open {
		return
	}
	set := current.IDSet()
	kept := r.order[:0]
	for _, id := range r.order {
		if _, ok := set[id]; ok {
			kept = append(kept, id)
		}
	}
	for _, id := range current {
		if !kept.Contains(id) {
			kept = append(kept, id)
		}
	}
	r.order = kept
	r.moveCursor(0)
	if r.cursor >= len(r.order) {
		r.cursor = 0
	}
}

func (r reorderModal) view(theme Theme, tiles map[string]model.Tile, h help.Model, keys reorderKeys, width int) string {
	var sb strings.Builder
	sb.WriteString(theme.TileTitle.Render("Reorder tiles"))
	if r.dirty {
		sb.WriteString(theme.MutedText.Render("  (unsaved)"))
	}
	sb.WriteString("\n\n")

	inner := width - 8
	if inner < 20 {
		inner = 20
	}
	for i, id := range r.order {
		t, ok := tiles[id]
		if !ok {
			t = model.Tile{ID: id, Name: id, Kind: model.KindForID(id)}
		}
		label := fmt.Sprintf("%2d. %s %s", i+1, theme.KindIcon(t.Kind), t.Name)
		label = truncate(label, inner-2)
		if i == r.cursor {
			sb.WriteString(theme.Selected.Render(label))
		} else {
			sb.WriteString("  " + label)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(h.View(keys))

	return theme.Modal.Width(lipgloss.Width(sb.String()) + 4).MaxWidth(width).Render(sb.String())
}
