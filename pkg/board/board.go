// Package board owns the per-board state of a dashboard: the derived
// tiles, the effective order, the placement for the active breakpoint and
// the long-press gesture session. All methods run on the caller's event
// loop; a Board is not safe for concurrent use.
package board

import (
	"errors"

	"github.com/google/uuid"

	"github.com/vanderheijden86/tavla/pkg/debug"
	"github.com/vanderheijden86/tavla/pkg/gesture"
	"github.com/vanderheijden86/tavla/pkg/layout"
	"github.com/vanderheijden86/tavla/pkg/metrics"
	"github.com/vanderheijden86/tavla/pkg/model"
	"github.com/vanderheijden86/tavla/pkg/tiles"
)

var (
	// ErrNoBoardID is returned by New when Options.ID is empty.
	ErrNoBoardID = errors.New("board: empty board id")
	// ErrNoStore is returned by New when Options.Store is nil.
	ErrNoStore = errors.New("board: no store")
)

// Store is the persistence contract the board writes through. Set and
// Delete are fire-and-forget; a Get right after a Set may miss the write.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

// OrderKey returns the store key of a board's committed tile order.
func OrderKey(boardID string) string {
	return boardID + "-tile-order"
}

var dashboardNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://tavla.dev/dashboard"))

// DefaultDashboardKey returns the stable layout key of a board.
func DefaultDashboardKey(boardID string) string {
	return uuid.NewSHA1(dashboardNamespace, []byte(boardID)).String()
}

// SessionDashboardKey returns a fresh layout key, so dragged layouts live
// only for one dashboard instance.
func SessionDashboardKey() string {
	return uuid.NewString()
}

// Options configures a Board.
type Options struct {
	ID           string
	DashboardKey string // defaults to DefaultDashboardKey(ID)
	Store        Store
	Allocator    *layout.Allocator       // defaults to the terminal table
	Viewport     layout.ViewportProvider // defaults to the widest breakpoint
	Scheduler    gesture.Scheduler       // defaults to a LoopScheduler
	Gesture      gesture.Config
	// GestureOptions are passed to the gesture machine, typically
	// gesture.WithOnTrigger to open the reorder UI.
	GestureOptions []gesture.Option
}

// Board is the state container of one dashboard.
type Board struct {
	id           string
	dashboardKey string
	store        Store
	alloc        *layout.Allocator
	machine      *gesture.Machine

	snapshot model.DataSnapshot
	tiles    map[string]model.Tile
	derived  model.TileOrder
	order    model.TileOrder

	// committed is the last order the user committed, nil when none or
	// when the stored value was malformed.
	committed model.TileOrder
	// layouts are the persisted arrangements of draggable breakpoints.
	layouts map[model.Breakpoint]model.LayoutSpec

	bp      model.Breakpoint
	current model.LayoutSpec
}

// New creates a board and loads its persisted state. Malformed stored
// values are logged and ignored.
func New(opts Options) (*Board, error) {
	if opts.ID == "" {
		return nil, ErrNoBoardID
	}
	if opts.Store == nil {
		return nil, ErrNoStore
	}
	if opts.DashboardKey == "" {
		opts.DashboardKey = DefaultDashboardKey(opts.ID)
	}
	if opts.Allocator == nil {
		opts.Allocator = layout.NewAllocator(layout.TerminalBreakpoints)
	}
	if opts.Viewport == nil {
		opts.Viewport = layout.FixedViewport(model.BreakpointLarge)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = gesture.NewLoopScheduler()
	}

	b := &Board{
		id:           opts.ID,
		dashboardKey: opts.DashboardKey,
		store:        opts.Store,
		tiles:        make(map[string]model.Tile),
		layouts:      make(map[model.Breakpoint]model.LayoutSpec),
		bp:           opts.Viewport.Breakpoint(),
	}
	// Size tiles by the kind they were derived as. A stop may carry an id
	// that looks like a reserved one.
	alloc := *opts.Allocator
	fallback := alloc.KindOf
	if fallback == nil {
		fallback = model.KindForID
	}
	alloc.KindOf = func(id string) model.TileKind {
		if t, ok := b.tiles[id]; ok {
			return t.Kind
		}
		return fallback(id)
	}
	b.alloc = &alloc
	b.machine = gesture.New(opts.Scheduler, opts.Gesture, opts.GestureOptions...)
	b.load()
	b.recompute()
	return b, nil
}

func (b *Board) load() {
	if data, ok := b.store.Get(OrderKey(b.id)); ok {
		order, err := DecodeOrder(data)
		if err != nil {
			debug.Log("board %s: ignoring stored order: %v", b.id, err)
			metrics.MalformedState.Inc()
		} else {
			b.committed = order
		}
	}
	if data, ok := b.store.Get(b.dashboardKey); ok {
		layouts, err := DecodeLayouts(data)
		if err != nil {
			debug.Log("board %s: ignoring stored layouts: %v", b.id, err)
			metrics.MalformedState.Inc()
		} else {
			b.layouts = layouts
		}
	}
}

// ID returns the board identifier.
func (b *Board) ID() string { return b.id }

// DashboardKey returns the key dragged layouts are stored under.
func (b *Board) DashboardKey() string { return b.dashboardKey }

// Order returns the effective tile order.
func (b *Board) Order() model.TileOrder { return b.order.Clone() }

// DefaultOrder returns the order derived from the latest snapshot.
func (b *Board) DefaultOrder() model.TileOrder { return b.derived.Clone() }

// Tiles returns the tile descriptors in effective order.
func (b *Board) Tiles() []model.Tile {
	out := make([]model.Tile, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.tiles[id])
	}
	return out
}

// Tile returns the descriptor of a tile in the current set.
func (b *Board) Tile(id string) (model.Tile, bool) {
	t, ok := b.tiles[id]
	return t, ok
}

// Snapshot returns the last applied snapshot.
func (b *Board) Snapshot() model.DataSnapshot { return b.snapshot }

// Layout returns the placement for the active breakpoint.
func (b *Board) Layout() model.LayoutSpec { return b.current.Clone() }

// Breakpoint returns the active breakpoint.
func (b *Board) Breakpoint() model.Breakpoint { return b.bp }

// Columns returns the column count of the active breakpoint.
func (b *Board) Columns() int { return b.alloc.Breakpoints.Columns(b.bp) }

// Draggable reports whether the active breakpoint accepts dragged layouts.
func (b *Board) Draggable() bool { return b.alloc.Draggable(b.bp) }

// Gesture returns the long-press machine of the board.
func (b *Board) Gesture() *gesture.Machine { return b.machine }

// ApplySnapshot replaces the content snapshot and recomputes order and
// layout. It reports whether either changed.
func (b *Board) ApplySnapshot(snap model.DataSnapshot) bool {
	defer debug.LogEnterExit("board.ApplySnapshot")()
	b.snapshot = snap
	return b.recompute()
}

// SetBreakpoint switches the active breakpoint and recomputes the layout.
func (b *Board) SetBreakpoint(bp model.Breakpoint) bool {
	if !bp.IsValid() {
		debug.Log("board %s: ignoring unknown breakpoint %q", b.id, bp)
		return false
	}
	if bp == b.bp {
		return false
	}
	b.bp = bp
	return b.relayout()
}

// SetViewport resolves the breakpoint from a viewport provider.
func (b *Board) SetViewport(vp layout.ViewportProvider) bool {
	return b.SetBreakpoint(vp.Breakpoint())
}

// CommitReorder makes newOrder the persisted baseline. The order passes
// through reconciliation against the current tiles first; when the tile
// set changed under the reorder UI the derived order wins and nothing is
// persisted. It reports whether newOrder was accepted.
func (b *Board) CommitReorder(newOrder model.TileOrder) bool {
	effective := tiles.Reconcile(newOrder, b.derived)
	if !effective.Equal(newOrder) {
		debug.Log("board %s: rejected reorder %s, tile set is %s", b.id, newOrder, b.derived)
		b.order = effective
		b.relayout()
		return false
	}

	b.committed = newOrder.Clone()
	b.persistOrder()
	b.order = effective
	b.relayout()
	return true
}

// CommitLayout stores a dragged arrangement for the active breakpoint.
// It is ignored on non-draggable breakpoints, before the board shows any
// stop tile, and when a rectangle does not fit the grid. Entries for
// unknown tiles are dropped and missing tiles get default placements.
func (b *Board) CommitLayout(spec model.LayoutSpec) bool {
	if !b.Draggable() {
		debug.Log("board %s: layout commit ignored on %s", b.id, b.bp)
		return false
	}
	if !b.hasStops() {
		return false
	}
	if !layout.FitsGrid(spec, b.Columns()) {
		debug.Log("board %s: layout commit does not fit %d columns", b.id, b.Columns())
		return false
	}
	pruned := make(model.LayoutSpec, len(spec))
	for id, r := range spec {
		if b.order.Contains(id) {
			pruned[id] = r
		}
	}
	b.layouts[b.bp] = pruned
	if _, wrote := b.place(); !wrote {
		b.persistLayouts()
	}
	return true
}

// Reset clears the persisted order and layouts of the board and falls
// back to the derived defaults.
func (b *Board) Reset() {
	b.store.Delete(OrderKey(b.id))
	b.store.Delete(b.dashboardKey)
	b.committed = nil
	b.layouts = make(map[model.Breakpoint]model.LayoutSpec)
	b.recompute()
}

// Names returns the display name of every tile in the current set.
func (b *Board) Names() map[string]string {
	names := make(map[string]string, len(b.tiles))
	for id, t := range b.tiles {
		names[id] = t.Name
	}
	return names
}

func (b *Board) recompute() bool {
	derived := tiles.DeriveTiles(b.snapshot)
	b.tiles = make(map[string]model.Tile, len(derived))
	for _, t := range derived {
		b.tiles[t.ID] = t
	}
	b.derived = tiles.OrderOf(derived)

	prev := b.order
	b.order = tiles.Reconcile(b.committed, b.derived)
	layoutChanged := b.relayout()
	return !prev.Equal(b.order) || layoutChanged
}

// relayout recomputes the placement of the active breakpoint and reports
// whether it changed.
func (b *Board) relayout() bool {
	changed, _ := b.place()
	return changed
}

// place allocates the active breakpoint. On draggable breakpoints the
// merged arrangement becomes the new persisted layout once the board has
// stop tiles; wrote reports whether that queued a store write.
func (b *Board) place() (changed, wrote bool) {
	var persisted model.LayoutSpec
	draggable := b.Draggable()
	if draggable {
		persisted = b.layouts[b.bp]
	}
	spec := b.alloc.Allocate(b.order, b.bp, b.snapshot.SizeHints(), persisted)

	changed = !spec.Equal(b.current)
	b.current = spec

	if draggable && b.hasStops() && !spec.Equal(b.layouts[b.bp]) {
		b.layouts[b.bp] = spec.Clone()
		b.persistLayouts()
		wrote = true
	}
	return changed, wrote
}

func (b *Board) hasStops() bool {
	for _, id := range b.order {
		if t, ok := b.tiles[id]; ok && t.Kind == model.KindStop {
			return true
		}
	}
	return false
}

func (b *Board) persistOrder() {
	data, err := EncodeOrder(b.committed, b.Names())
	if err != nil {
		debug.Log("board %s: encode order: %v", b.id, err)
		return
	}
	b.store.Set(OrderKey(b.id), data)
}

func (b *Board) persistLayouts() {
	data, err := EncodeLayouts(b.layouts)
	if err != nil {
		debug.Log("board %s: encode layouts: %v", b.id, err)
		return
	}
	b.store.Set(b.dashboardKey, data)
}
