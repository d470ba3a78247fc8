package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/tavla/pkg/debug"
	"github.com/vanderheijden86/tavla/pkg/metrics"
	"github.com/vanderheijden86/tavla/pkg/model"
	"github.com/vanderheijden86/tavla/pkg/watcher"
)

// DefaultLoadConcurrency bounds the number of feeds parsed at once.
const DefaultLoadConcurrency = 4

// AggregatorOptions configures an Aggregator.
type AggregatorOptions struct {
	// Debounce is the quiet period before a burst of file changes reloads.
	Debounce time.Duration
	// PollInterval is used when the watcher falls back to polling.
	PollInterval time.Duration
	// ForcePoll disables fsnotify.
	ForcePoll bool
	// MapEnabled forces the map flag on every snapshot.
	MapEnabled bool
	// Concurrency bounds parallel feed parsing; 0 selects the default.
	Concurrency int
}

// Aggregator merges a set of feed files into snapshots and reloads them
// when the files change.
type Aggregator struct {
	paths []string
	opts  AggregatorOptions

	mu      sync.Mutex
	last    model.DataSnapshot
	loaded  bool
	sources []FeedSource
	watcher *watcher.Watcher
}

// NewAggregator returns an aggregator over the given feed paths. Paths may
// name files or directories.
func NewAggregator(paths []string, opts AggregatorOptions) (*Aggregator, error) {
	if len(paths) == 0 {
		return nil, ErrNoFeeds
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultLoadConcurrency
	}
	return &Aggregator{paths: append([]string(nil), paths...), opts: opts}, nil
}

// Load reads every feed in parallel and merges them in discovery order.
// Each feed's outcome is recorded on its FeedSource (see Sources). A feed
// that fails to load is logged and contributes nothing; Load fails only
// when every feed fails or ctx is cancelled.
func (a *Aggregator) Load(ctx context.Context) (model.DataSnapshot, error) {
	defer metrics.Timer(metrics.FeedLoad)()
	start := time.Now()

	sources, err := DiscoverFeeds(a.paths)
	if err != nil {
		return model.DataSnapshot{}, err
	}

	results := make([]model.DataSnapshot, len(sources))
	failures := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)
	for i := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			snap, err := ValidateFeed(&sources[i])
			if err != nil {
				debug.Log("datasource: skipping feed %s", sources[i])
				failures[i] = err
				return nil
			}
			results[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.DataSnapshot{}, fmt.Errorf("load feeds: %w", err)
	}

	a.mu.Lock()
	a.sources = sources
	a.mu.Unlock()

	var loaded []model.DataSnapshot
	for i := range sources {
		if failures[i] == nil {
			loaded = append(loaded, results[i])
		}
	}
	if len(loaded) == 0 {
		return model.DataSnapshot{}, fmt.Errorf("all %d feeds failed: %w", len(sources), errors.Join(failures...))
	}

	debug.LogIf(len(loaded) < len(sources), "datasource: using %d of %d feeds", len(loaded), len(sources))
	snap := Merge(loaded...)
	if a.opts.MapEnabled {
		snap.MapEnabled = true
	}

	a.mu.Lock()
	a.last = snap
	a.loaded = true
	a.mu.Unlock()
	debug.LogTiming("datasource: load", time.Since(start))
	return snap, nil
}

// Last returns the most recent successfully loaded snapshot.
func (a *Aggregator) Last() (model.DataSnapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.loaded
}

// Sources returns the feeds of the most recent load with their outcome.
func (a *Aggregator) Sources() []FeedSource {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]FeedSource(nil), a.sources...)
}

// Skipped returns the number of feeds the most recent load could not use.
func (a *Aggregator) Skipped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, s := range a.sources {
		if !s.Valid {
			n++
		}
	}
	return n
}

// Watch reloads the feeds whenever one of them changes and hands each new
// snapshot to onSnapshot, together with its difference from the previous
// one and the feeds that changed. Reload errors go to onError. Watch
// returns once watching started; it stops when ctx is cancelled or Close
// is called.
func (a *Aggregator) Watch(ctx context.Context, onSnapshot func(model.DataSnapshot, SnapshotDiff), onError func(error)) error {
	if onError == nil {
		onError = func(error) {}
	}
	sources, err := DiscoverFeeds(a.paths)
	if err != nil {
		return err
	}
	files := make([]string, len(sources))
	for i, s := range sources {
		files[i] = s.Path
	}

	reload := func(changed []string) {
		debug.Log("datasource: reloading after change to %s", strings.Join(changed, ", "))
		prev, _ := a.Last()
		snap, err := a.Load(ctx)
		if err != nil {
			onError(err)
			return
		}
		diff := Diff(prev, snap)
		diff.Feeds = changed
		onSnapshot(snap, diff)
	}

	w, err := watcher.NewWatcher(files,
		watcher.WithDebounceDuration(a.opts.Debounce),
		watcher.WithPollInterval(a.opts.PollInterval),
		watcher.WithForcePoll(a.opts.ForcePoll),
		watcher.WithOnChange(reload),
		watcher.WithOnError(onError),
	)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	a.watcher = w
	a.mu.Unlock()
	return nil
}

// Polling reports whether the active watcher fell back to polling.
func (a *Aggregator) Polling() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.watcher != nil && a.watcher.IsPolling()
}

// Close stops watching.
func (a *Aggregator) Close() {
	a.mu.Lock()
	w := a.watcher
	a.watcher = nil
	a.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}
