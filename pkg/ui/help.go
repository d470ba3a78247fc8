package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# tavla

The board shows one tile per content group: weather, each stop with
upcoming departures, city bikes, and the map.

## Reordering

Press and hold anywhere on the board to open the reorder view. The tile
under the pointer is outlined while the press is held and changes color
just before the view opens. Moving the pointer or releasing early cancels.

| Key | Action |
|-----|--------|
| **r** | Open the reorder view |
| **j / k** | Move the selection |
| **J / K** | Move the selected tile down / up |
| **H / L** | Move the tile one column left / right (wide layouts) |
| **enter** | Save the order |
| **esc** | Close without saving |

A saved order is kept until the set of tiles changes. When a stop gains
or loses departures, the board falls back to the default order.

## Other keys

| Key | Action |
|-----|--------|
| **y** | Copy the tile order as JSON |
| **e** | Export the layout as SVG |
| **R** | Forget the saved order and layout |
| **?** | Toggle this help |
| **q** | Quit |
`

// helpView renders the help overlay as markdown for the given width.
// Falls back to the raw text when rendering fails.
func helpView(width int) string {
	wrap := width - 4
	if wrap < 40 {
		wrap = 40
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n ")
}
