package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/tavla/pkg/debug"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// Environment variables that force polling mode.
const (
	EnvForcePoll    = "TAVLA_FORCE_POLL"
	EnvForcePolling = "TAVLA_FORCE_POLLING"
)

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrNoPaths        = errors.New("watcher: no paths to watch")
)

// PathError reports which watched file an error belongs to.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string { return e.Path + ": " + e.Err.Error() }
func (e *PathError) Unwrap() error { return e.Err }

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithOnChange sets the callback invoked, debounced, when watched files
// change. It receives the paths that changed during the burst.
func WithOnChange(fn func(changed []string)) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on errors. Per-file errors are
// *PathError values.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

type fileState struct {
	mtime time.Time
	size  int64
}

// Watcher monitors a set of files. A burst of changes across any of them
// results in one debounced notification.
type Watcher struct {
	paths            []string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func(changed []string)
	onError          func(error)
	forcePoll        bool
	forcePollEnv     bool
	fsTypes          map[string]FilesystemType

	fsWatcher   *fsnotify.Watcher
	debouncer   *Debouncer
	useFallback bool
	states      map[string]fileState

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// NewWatcher creates a watcher for the given files. Paths are made
// absolute and deduplicated.
func NewWatcher(paths []string, opts ...WatcherOption) (*Watcher, error) {
	seen := make(map[string]struct{}, len(paths))
	var abs []string
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		abs = append(abs, a)
	}
	if len(abs) == 0 {
		return nil, ErrNoPaths
	}

	w := &Watcher{
		paths:            abs,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func([]string) {},
		onError:          func(error) {},
		fsTypes:          make(map[string]FilesystemType),
		states:           make(map[string]fileState),
		changeCh:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start begins watching. The watcher stops when ctx is cancelled or Stop
// is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}
	if ctx == nil {
		ctx = context.Background()
	}
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.useFallback = false
	w.forcePollEnv = envBool(EnvForcePoll) || envBool(EnvForcePolling)

	for _, p := range w.paths {
		fsType := DetectFilesystemType(p)
		w.fsTypes[p] = fsType
		if isRemoteFilesystem(fsType) {
			debug.Log("watcher: %s is on %s, polling", p, fsType)
			w.useFallback = true
		}

		info, err := os.Stat(p)
		switch {
		case err == nil:
			w.states[p] = fileState{mtime: info.ModTime(), size: info.Size()}
		case os.IsPermission(err):
			w.cancel()
			return &PathError{Path: p, Err: ErrPermission}
		default:
			// Not created yet.
			w.states[p] = fileState{}
		}
	}

	forcePoll := w.forcePoll || w.forcePollEnv
	if forcePoll {
		w.useFallback = true
	}

	if !w.useFallback {
		if err := w.startFsnotify(); err != nil {
			debug.Log("watcher: fsnotify unavailable, polling: %v", err)
			w.useFallback = true
		}
	}
	if w.useFallback {
		go w.watchPolling(w.ctx)
	}

	w.started = true
	return nil
}

// startFsnotify watches every parent directory; atomic replace-by-rename
// is only visible at the directory level.
func (w *Watcher) startFsnotify() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, dir := range w.dirs() {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return err
		}
	}
	w.fsWatcher = fsw
	go w.watchFsnotify(w.ctx, fsw)
	return nil
}

func (w *Watcher) dirs() []string {
	set := make(map[string]struct{})
	for _, p := range w.paths {
		set[filepath.Dir(p)] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Stop stops watching. The Changed channel is left open so a goroutine
// blocked on it is not woken with a spurious change.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.useFallback
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed returns a channel that receives when a watched file changes.
// This is an alternative to the OnChange callback.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Paths returns the watched file paths.
func (w *Watcher) Paths() []string {
	return append([]string(nil), w.paths...)
}

// FilesystemType returns the classification of a watched path as of the
// last Start.
func (w *Watcher) FilesystemType(path string) FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return w.fsTypes[path]
}

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pollInterval
}

func envBool(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func (w *Watcher) watched(name string) (string, bool) {
	for _, p := range w.paths {
		if p == name {
			return p, true
		}
	}
	return "", false
}

func (w *Watcher) watchFsnotify(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			path, ok := w.watched(abs)
			if !ok {
				continue
			}

			switch {
			case event.Op&fsnotify.Remove != 0:
				w.onError(&PathError{Path: path, Err: ErrFileRemoved})
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(path, w.notifyChange)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, p := range w.pollOnce() {
				w.debouncer.Trigger(p, w.notifyChange)
			}
		}
	}
}

// pollOnce stats every path and returns the ones that changed.
func (w *Watcher) pollOnce() []string {
	var changed []string
	for _, p := range w.paths {
		info, err := os.Stat(p)
		if err != nil {
			w.mu.Lock()
			prev := w.states[p]
			w.states[p] = fileState{}
			w.mu.Unlock()

			switch {
			case os.IsNotExist(err):
				if !prev.mtime.IsZero() {
					w.onError(&PathError{Path: p, Err: ErrFileRemoved})
				}
			case os.IsPermission(err):
				w.onError(&PathError{Path: p, Err: ErrPermission})
			default:
				w.onError(&PathError{Path: p, Err: err})
			}
			continue
		}

		w.mu.Lock()
		prev := w.states[p]
		if info.ModTime().After(prev.mtime) || info.Size() != prev.size {
			w.states[p] = fileState{mtime: info.ModTime(), size: info.Size()}
			changed = append(changed, p)
		}
		w.mu.Unlock()
	}
	return changed
}

func (w *Watcher) notifyChange(changed []string) {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if !started {
		return
	}

	w.onChange(changed)

	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
