package store

import (
	"sync"

	"github.com/vanderheijden86/tavla/pkg/debug"
	"github.com/vanderheijden86/tavla/pkg/metrics"
)

// DefaultQueueSize bounds the number of writes waiting for the backend.
const DefaultQueueSize = 64

type opKind int

const (
	opSet opKind = iota
	opDelete
	opFlush
)

type op struct {
	kind  opKind
	key   string
	value []byte
	done  chan struct{}
}

// Adapter is the board-facing persistence API. Reads are synchronous;
// writes are queued to a single writer goroutine and applied in order.
// Failures are logged and counted, never returned. A Set followed
// immediately by a Get may observe the old value.
type Adapter struct {
	backend Backend
	queue   chan op

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAdapter starts the writer goroutine for backend.
func NewAdapter(backend Backend) *Adapter {
	return NewAdapterSize(backend, DefaultQueueSize)
}

// NewAdapterSize is NewAdapter with an explicit queue size.
func NewAdapterSize(backend Backend, size int) *Adapter {
	if size < 1 {
		size = 1
	}
	a := &Adapter{
		backend: backend,
		queue:   make(chan op, size),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// Get returns the value under key. Read errors are logged and reported as
// absence.
func (a *Adapter) Get(key string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, false
	}
	v, ok, err := a.backend.Get(key)
	if err != nil {
		debug.Log("store: get %q failed: %v", key, err)
		return nil, false
	}
	return v, ok
}

// Set queues a write. It never blocks: when the queue is full the write is
// dropped and counted as a failure.
func (a *Adapter) Set(key string, value []byte) {
	a.enqueue(op{kind: opSet, key: key, value: append([]byte(nil), value...)})
}

// Delete queues removal of key.
func (a *Adapter) Delete(key string) {
	a.enqueue(op{kind: opDelete, key: key})
}

func (a *Adapter) enqueue(o op) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		debug.Log("store: %v dropped for %q: %v", o.kind, o.key, ErrClosed)
		metrics.StoreWriteFailures.Inc()
		return
	}
	select {
	case a.queue <- o:
	default:
		debug.Log("store: write queue full, dropping %q", o.key)
		metrics.StoreWriteFailures.Inc()
	}
}

// Flush blocks until every write queued before the call has been applied.
func (a *Adapter) Flush() {
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return
	}
	done := make(chan struct{})
	a.queue <- op{kind: opFlush, done: done}
	a.mu.RUnlock()
	<-done
}

// Close drains pending writes, stops the writer and closes the backend.
// Calling Close more than once returns ErrClosed.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	a.wg.Wait()
	return a.backend.Close()
}

func (a *Adapter) run() {
	defer a.wg.Done()
	for o := range a.queue {
		switch o.kind {
		case opFlush:
			close(o.done)
		case opSet:
			a.apply(o, func() error { return a.backend.Set(o.key, o.value) })
		case opDelete:
			a.apply(o, func() error { return a.backend.Delete(o.key) })
		}
	}
}

func (a *Adapter) apply(o op, write func() error) {
	stop := metrics.Timer(metrics.StoreWrite)
	err := write()
	stop()
	if err != nil {
		debug.Log("store: %v %q failed: %v", o.kind, o.key, err)
		metrics.StoreWriteFailures.Inc()
	}
}

func (k opKind) String() string {
	switch k {
	case opSet:
		return "set"
	case opDelete:
		return "delete"
	default:
		return "flush"
	}
}
