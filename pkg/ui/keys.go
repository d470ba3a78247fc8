package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the board and reorder-mode bindings.
type keyMap struct {
	Quit    key.Binding
	Help    key.Binding
	Reorder key.Binding
	Copy    key.Binding
	Reset   key.Binding
	Export  key.Binding
	Up      key.Binding
	Down    key.Binding

	// Reorder mode
	MoveUp    key.Binding
	MoveDown  key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	Commit    key.Binding
	Cancel    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Reorder: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reorder tiles"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy order"),
		),
		Reset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reset order"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export layout"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move tile up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move tile down"),
		),
		MoveLeft: key.NewBinding(
			key.WithKeys("H", "shift+left"),
			key.WithHelp("H", "column left"),
		),
		MoveRight: key.NewBinding(
			key.WithKeys("L", "shift+right"),
			key.WithHelp("L", "column right"),
		),
		Commit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save order"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp implements help.KeyMap for the board footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Reorder, k.Copy, k.Export, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Reorder, k.Reset},
		{k.Copy, k.Export, k.Help, k.Quit},
	}
}

// reorderKeys is the help.KeyMap shown inside the reorder modal.
type reorderKeys struct {
	keys      keyMap
	draggable bool
}

func (r reorderKeys) ShortHelp() []key.Binding {
	b := []key.Binding{r.keys.Up, r.keys.Down, r.keys.MoveUp, r.keys.MoveDown}
	if r.draggable {
		b = append(b, r.keys.MoveLeft, r.keys.MoveRight)
	}
	return append(b, r.keys.Commit, r.keys.Cancel)
}

func (r reorderKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{r.ShortHelp()}
}
