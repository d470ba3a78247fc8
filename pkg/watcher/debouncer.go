// Package watcher reports changes to a set of feed files, using fsnotify
// with a stat-polling fallback for remote filesystems.
package watcher

import (
	"sort"
	"sync"
	"time"
)

// DefaultDebounceDuration is the default debounce window.
const DefaultDebounceDuration = 250 * time.Millisecond

// Debouncer collects the paths reported during a burst of changes and
// hands them over in one callback once the burst has been quiet for the
// debounce duration.
type Debouncer struct {
	duration time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	changed map[string]struct{}
}

// NewDebouncer creates a Debouncer. A zero duration selects
// DefaultDebounceDuration.
func NewDebouncer(duration time.Duration) *Debouncer {
	if duration <= 0 {
		duration = DefaultDebounceDuration
	}
	return &Debouncer{duration: duration, changed: make(map[string]struct{})}
}

// Trigger records path as changed and (re)schedules callback. The callback
// receives every path recorded since the previous callback, sorted. Only
// the callback of the last Trigger in a burst runs.
func (d *Debouncer) Trigger(path string, callback func(changed []string)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.changed[path] = struct{}{}
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, func() {
		if changed, ok := d.take(gen); ok {
			callback(changed)
		}
	})
}

// take drains the recorded paths unless a newer Trigger or a Cancel
// superseded generation gen.
func (d *Debouncer) take(gen uint64) ([]string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen {
		return nil, false
	}
	d.timer = nil
	changed := make([]string, 0, len(d.changed))
	for p := range d.changed {
		changed = append(changed, p)
	}
	sort.Strings(changed)
	d.changed = make(map[string]struct{})
	return changed, true
}

// Pending reports whether a callback is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel drops any pending callback and the paths recorded for it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.changed = make(map[string]struct{})
}

// Duration returns the debounce duration.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}
