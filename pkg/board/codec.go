package board

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/tavla/pkg/model"
)

// ErrMalformed wraps every decode failure. Callers treat malformed
// persisted state as absent.
var ErrMalformed = errors.New("malformed board state")

// orderEntry is the persisted form of one tile in a committed order.
type orderEntry struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

// layoutItem is the persisted form of one placed tile.
type layoutItem struct {
	I *string  `json:"i"`
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	W *float64 `json:"w"`
	H *float64 `json:"h"`
}

// EncodeOrder serializes an order as a JSON array of {id, name} objects.
// names supplies display names; missing names are stored empty.
func EncodeOrder(order model.TileOrder, names map[string]string) ([]byte, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	entries := make([]orderEntry, len(order))
	for i, id := range order {
		id := id
		entries[i] = orderEntry{ID: &id, Name: names[id]}
	}
	return json.Marshal(entries)
}

// DecodeOrder parses a persisted order. Anything other than a non-null
// array of objects with unique, non-empty string ids is malformed.
func DecodeOrder(data []byte) (model.TileOrder, error) {
	var entries []orderEntry
	if err := strictUnmarshal(data, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		return nil, fmt.Errorf("%w: order is null", ErrMalformed)
	}
	order := make(model.TileOrder, 0, len(entries))
	for i, e := range entries {
		if e.ID == nil {
			return nil, fmt.Errorf("%w: order entry %d has no id", ErrMalformed, i)
		}
		order = append(order, *e.ID)
	}
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return order, nil
}

// EncodeLayouts serializes per-breakpoint layouts as an object keyed by
// breakpoint name, each value an array of {i, x, y, w, h} sorted by
// position.
func EncodeLayouts(layouts map[model.Breakpoint]model.LayoutSpec) ([]byte, error) {
	out := make(map[string][]layoutItem, len(layouts))
	for bp, spec := range layouts {
		if !bp.IsValid() {
			return nil, fmt.Errorf("unknown breakpoint %q", bp)
		}
		items := make([]layoutItem, 0, len(spec))
		for _, id := range spec.IDs() {
			id, r := id, spec[id]
			items = append(items, layoutItem{I: &id, X: &r.X, Y: &r.Y, W: &r.W, H: &r.H})
		}
		out[string(bp)] = items
	}
	return json.Marshal(out)
}

// DecodeLayouts parses persisted layouts. Unknown breakpoint keys, missing
// fields, non-finite or negative values and duplicate ids are malformed.
// Whether rectangles fit a breakpoint's columns is left to the allocator.
func DecodeLayouts(data []byte) (map[model.Breakpoint]model.LayoutSpec, error) {
	var raw map[string][]layoutItem
	if err := strictUnmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: layouts are null", ErrMalformed)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	layouts := make(map[model.Breakpoint]model.LayoutSpec, len(raw))
	for _, k := range keys {
		bp, err := model.ParseBreakpoint(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		spec := make(model.LayoutSpec, len(raw[k]))
		for n, item := range raw[k] {
			if item.I == nil || *item.I == "" {
				return nil, fmt.Errorf("%w: %s item %d has no id", ErrMalformed, bp, n)
			}
			if item.X == nil || item.Y == nil || item.W == nil || item.H == nil {
				return nil, fmt.Errorf("%w: %s item %q is missing coordinates", ErrMalformed, bp, *item.I)
			}
			r := model.Rect{X: *item.X, Y: *item.Y, W: *item.W, H: *item.H}
			if !finiteRect(r) {
				return nil, fmt.Errorf("%w: %s item %q has invalid geometry %+v", ErrMalformed, bp, *item.I, r)
			}
			if _, dup := spec[*item.I]; dup {
				return nil, fmt.Errorf("%w: %s has duplicate id %q", ErrMalformed, bp, *item.I)
			}
			spec[*item.I] = r
		}
		layouts[bp] = spec
	}
	return layouts, nil
}

func finiteRect(r model.Rect) bool {
	for _, v := range []float64{r.X, r.Y, r.W, r.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.X >= 0 && r.Y >= 0 && r.W > 0 && r.H > 0
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrMalformed)
	}
	return nil
}
