// Package store persists opaque board state values under string keys.
//
// Backends are synchronous key/value stores. Adapter wraps a backend with
// the fire-and-forget write path the board needs: Set queues the write on
// a background goroutine and never reports failure to the caller.
package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// Backend kinds accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Backend is a synchronous key/value store.
type Backend interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent.
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Open creates the backend of the given kind rooted at path. An empty kind
// selects SQLite. path is ignored by the memory backend.
func Open(kind, path string) (Backend, error) {
	switch strings.ToLower(kind) {
	case "", BackendSQLite:
		return OpenSQLite(path)
	case BackendFile:
		return OpenFile(path)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (want %s, %s or %s)",
			kind, BackendSQLite, BackendFile, BackendMemory)
	}
}

// DefaultPath returns the conventional file name for a backend kind inside
// stateDir.
func DefaultPath(kind, stateDir string) string {
	switch strings.ToLower(kind) {
	case BackendFile:
		return filepath.Join(stateDir, "boards.json")
	default:
		return filepath.Join(stateDir, "boards.db")
	}
}

// Memory is an in-process backend. It is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemory returns an empty memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
