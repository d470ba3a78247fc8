// Package ui implements the terminal board: a grid of tiles with a
// long-press gesture that opens the reorder view.
package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/tavla/internal/datasource"
	"github.com/vanderheijden86/tavla/pkg/board"
	"github.com/vanderheijden86/tavla/pkg/debug"
	"github.com/vanderheijden86/tavla/pkg/export"
	"github.com/vanderheijden86/tavla/pkg/gesture"
	"github.com/vanderheijden86/tavla/pkg/layout"
	"github.com/vanderheijden86/tavla/pkg/model"
)

// headerLines is the number of lines above the grid.
const headerLines = 1

// Options configures the board view.
type Options struct {
	Title string
	// Scheduler must be the scheduler the board's gesture machine was
	// created with; the view arms its timers as tea.Tick commands.
	Scheduler   *gesture.LoopScheduler
	Breakpoints layout.Table // defaults to layout.TerminalBreakpoints
	ExportPath  string       // target of the export key; empty disables it
	Now         func() time.Time
	Clipboard   func(string) error
	// Feeds reports the state of the feed sources in the header; nil when
	// the board has no feeds.
	Feeds FeedStatus
}

// FeedStatus is the feed state shown in the header.
type FeedStatus interface {
	Polling() bool
	Skipped() int
}

// Model is the Bubble Tea model of one board.
type Model struct {
	board *board.Board
	sched *gesture.LoopScheduler
	table layout.Table
	opts  Options

	theme Theme
	keys  keyMap
	help  help.Model

	content model.DataSnapshot

	width  int
	height int
	ready  bool
	scroll int
	grid   gridView

	pressed  string
	reorder  reorderModal
	showHelp bool
	helpText string

	status    string
	statusErr bool
	statusSeq int
}

// NewModel creates the view for b.
func NewModel(b *board.Board, opts Options) Model {
	if opts.Breakpoints == nil {
		opts.Breakpoints = layout.TerminalBreakpoints
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Title == "" {
		opts.Title = "tavla"
	}
	m := Model{
		board:   b,
		sched:   opts.Scheduler,
		table:   opts.Breakpoints,
		opts:    opts,
		theme:   DefaultTheme(lipgloss.DefaultRenderer()),
		keys:    defaultKeyMap(),
		help:    help.New(),
		content: b.Snapshot(),
		width:   80,
		height:  24,
	}
	m.rebuild()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return clockTickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		if m.board.SetViewport(layout.WidthViewport{Table: m.table, Width: msg.Width}) {
			debug.Log("ui: breakpoint %s at width %d", m.board.Breakpoint(), msg.Width)
		}
		if m.showHelp {
			m.helpText = helpView(m.width)
		}

	case SnapshotMsg:
		m.content = msg.Snapshot
		if msg.Diff.Relevant() {
			m.board.ApplySnapshot(msg.Snapshot)
			m.reorder.sync(m.board.Order())
			if msg.Diff.MembershipChanged() {
				cmds = append(cmds, m.setStatus(reloadStatus(msg.Diff), false))
			}
		}

	case FeedErrorMsg:
		cmds = append(cmds, m.setStatus(fmt.Sprintf("Feed reload failed: %v", msg.Err), true))

	case gestureTimerMsg:
		if m.sched != nil {
			m.sched.Fire(msg.ID)
		}
		m.afterGesture()

	case clockTickMsg:
		cmds = append(cmds, clockTickCmd())

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusErr = false
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, timerCmds(m.sched)...)
	m.rebuild()
	return m, tea.Batch(cmds...)
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.showHelp {
		return
	}
	g := m.board.Gesture()

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelUp:
		if m.reorder.open {
			m.reorder.moveCursor(-1)
		} else {
			m.scrollBy(-3)
		}
		return
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonWheelDown:
		if m.reorder.open {
			m.reorder.moveCursor(1)
		} else {
			m.scrollBy(3)
		}
		return
	}

	if m.reorder.open {
		return
	}

	x, y := float64(msg.X), float64(msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		m.pressed, _ = m.grid.tileAt(msg.X, msg.Y-headerLines+m.scroll)
		g.Down(x, y)
	case tea.MouseActionMotion:
		g.Move(x, y)
	case tea.MouseActionRelease:
		g.Up()
	}
	m.afterGesture()
}

// afterGesture syncs the view with the gesture machine: it clears the
// press highlight once the session ends and opens the reorder view when
// the long press fired.
func (m *Model) afterGesture() {
	g := m.board.Gesture()
	switch g.State() {
	case model.GesturePressing, model.GestureVisuallyConfirming:
		return
	case model.GestureTriggered:
		m.pressed = ""
		if !m.reorder.open {
			m.reorder.start(m.board.Order())
		}
	default:
		m.pressed = ""
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) && (msg.String() == "ctrl+c" || !m.reorder.open) {
		return tea.Quit
	}
	if m.reorder.open {
		return m.handleReorderKey(msg)
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Cancel) {
			m.showHelp = false
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.helpText = helpView(m.width)
	case key.Matches(msg, m.keys.Reorder):
		m.board.Gesture().Open()
		m.afterGesture()
	case key.Matches(msg, m.keys.Up):
		m.scrollBy(-1)
	case key.Matches(msg, m.keys.Down):
		m.scrollBy(1)
	case key.Matches(msg, m.keys.Copy):
		return m.copyOrder()
	case key.Matches(msg, m.keys.Reset):
		m.board.Reset()
		return m.setStatus("Saved order and layout cleared", false)
	case key.Matches(msg, m.keys.Export):
		return m.exportLayout()
	}
	return nil
}

func (m *Model) handleReorderKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.MoveUp):
		m.reorder.shift(-1)
	case key.Matches(msg, m.keys.MoveDown):
		m.reorder.shift(1)
	case key.Matches(msg, m.keys.Up):
		m.reorder.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.reorder.moveCursor(1)
	case key.Matches(msg, m.keys.MoveLeft):
		return m.moveColumn(-1)
	case key.Matches(msg, m.keys.MoveRight):
		return m.moveColumn(1)
	case key.Matches(msg, m.keys.Commit):
		return m.commitReorder()
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
		m.closeReorder()
	}
	return nil
}

func (m *Model) commitReorder() tea.Cmd {
	order := m.reorder.order.Clone()
	dirty := m.reorder.dirty
	m.closeReorder()
	if !dirty {
		return nil
	}
	if m.board.CommitReorder(order) {
		return m.setStatus("Tile order saved", false)
	}
	return m.setStatus("Tiles changed while reordering; order not saved", true)
}

func (m *Model) closeReorder() {
	m.reorder.close()
	m.board.Gesture().Dismiss()
}

// moveColumn moves the selected tile to the bottom of the neighbouring
// column and commits the arrangement. Only wide layouts are draggable.
func (m *Model) moveColumn(delta int) tea.Cmd {
	if !m.board.Draggable() {
		return m.setStatus("Columns are fixed at this width", true)
	}
	id, ok := m.reorder.selected()
	if !ok {
		return nil
	}
	spec := m.board.Layout()
	r, ok := spec[id]
	if !ok {
		return nil
	}
	cols := m.board.Columns()
	nx := r.X + float64(delta)
	if nx < 0 || nx+r.W > float64(cols) {
		return nil
	}
	delete(spec, id)
	bottoms := layout.ColumnBottoms(spec, cols)
	r.X = nx
	r.Y = 0
	for c := int(nx); c < int(nx+r.W) && c < cols; c++ {
		if bottoms[c] > r.Y {
			r.Y = bottoms[c]
		}
	}
	spec[id] = r
	if !m.board.CommitLayout(spec) {
		return m.setStatus("Layout is saved once the board shows a stop", true)
	}
	return m.setStatus(fmt.Sprintf("Moved %s to column %d", id, int(nx)+1), false)
}

func (m *Model) copyOrder() tea.Cmd {
	data, err := board.EncodeOrder(m.board.Order(), m.board.Names())
	if err != nil {
		return m.setStatus(fmt.Sprintf("Copy failed: %v", err), true)
	}
	if err := m.opts.Clipboard(string(data)); err != nil {
		return m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
	}
	return m.setStatus("Copied tile order to clipboard", false)
}

func (m *Model) exportLayout() tea.Cmd {
	if m.opts.ExportPath == "" {
		return m.setStatus("No export path configured (use -export)", true)
	}
	err := export.SaveLayoutSnapshot(export.LayoutSnapshotOptions{
		Path:       m.opts.ExportPath,
		Title:      m.opts.Title,
		Breakpoint: m.board.Breakpoint(),
		Columns:    m.board.Columns(),
		Tiles:      m.board.Tiles(),
		Layout:     m.board.Layout(),
	})
	if err != nil {
		return m.setStatus(fmt.Sprintf("Export failed: %v", err), true)
	}
	return m.setStatus("Layout exported to "+m.opts.ExportPath, false)
}

func (m *Model) setStatus(s string, isErr bool) tea.Cmd {
	m.status = s
	m.statusErr = isErr
	m.statusSeq++
	return statusClearCmd(m.statusSeq)
}

func (m *Model) bodyHeight() int {
	h := m.height - headerLines - 1
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) scrollBy(delta int) {
	m.scroll += delta
	m.clampScroll()
}

func (m *Model) clampScroll() {
	maxScroll := len(m.grid.Lines) - m.bodyHeight()
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m *Model) rebuild() {
	g := m.board.Gesture()
	m.grid = renderGrid(gridInput{
		Tiles:      m.board.Tiles(),
		Layout:     m.board.Layout(),
		Columns:    m.board.Columns(),
		Content:    m.content,
		Width:      m.width,
		Now:        m.opts.Now(),
		Pressed:    m.pressed,
		Confirming: g.Confirming(),
	}, m.theme)
	m.clampScroll()
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading board…"
	}

	body := m.bodyHeight()
	var content string
	switch {
	case m.showHelp:
		content = joinLines(fitLines(strings.Split(m.helpText, "\n"), body))
	case m.reorder.open:
		modal := m.reorder.view(m.theme, m.tileMap(), m.help,
			reorderKeys{keys: m.keys, draggable: m.board.Draggable()}, m.width)
		content = lipgloss.Place(m.width, body, lipgloss.Center, lipgloss.Center, modal)
	case len(m.grid.Lines) == 0:
		content = lipgloss.Place(m.width, body, lipgloss.Center, lipgloss.Center,
			m.theme.MutedText.Render("No content yet. Waiting for feeds…"))
	default:
		end := m.scroll + body
		if end > len(m.grid.Lines) {
			end = len(m.grid.Lines)
		}
		content = joinLines(fitLines(append([]string(nil), m.grid.Lines[m.scroll:end]...), body))
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), content, m.footerView())
}

func (m Model) headerView() string {
	title := m.theme.Header.Render(m.opts.Title)
	info := fmt.Sprintf(" %s · %d col · %d tiles", m.board.Breakpoint(), m.board.Columns(), len(m.board.Order()))
	if !m.content.UpdatedAt.IsZero() {
		info += " · updated " + m.content.UpdatedAt.Local().Format("15:04")
	}
	if f := m.opts.Feeds; f != nil {
		if f.Polling() {
			info += " · polling"
		}
		if n := f.Skipped(); n == 1 {
			info += " · 1 feed skipped"
		} else if n > 1 {
			info += fmt.Sprintf(" · %d feeds skipped", n)
		}
	}
	return title + m.theme.MutedText.Render(truncate(info, m.width-lipgloss.Width(title)))
}

func (m Model) footerView() string {
	if m.status != "" {
		if m.statusErr {
			return m.theme.Error.Render(truncate(m.status, m.width))
		}
		return m.theme.Status.Render(truncate(m.status, m.width))
	}
	if g := m.board.Gesture(); g.Confirming() {
		return m.theme.Status.Render("Keep holding to reorder…")
	}
	return m.help.View(m.keys)
}

// reloadStatus summarizes a membership change and names the feeds that
// caused it.
func reloadStatus(d datasource.SnapshotDiff) string {
	s := d.Summary()
	if len(d.Feeds) == 0 {
		return s
	}
	names := make([]string, len(d.Feeds))
	for i, p := range d.Feeds {
		names[i] = filepath.Base(p)
	}
	return s + " (" + strings.Join(names, ", ") + ")"
}

func (m Model) tileMap() map[string]model.Tile {
	out := make(map[string]model.Tile)
	for _, t := range m.board.Tiles() {
		out[t.ID] = t
	}
	return out
}
