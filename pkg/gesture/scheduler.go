package gesture

import "time"

// Request is a timer waiting to be armed by the host event loop.
type Request struct {
	ID    uint64
	Delay time.Duration
}

// LoopScheduler hands timers to a host event loop instead of running them
// on goroutines. The host drains TakePending after every event, arms a
// loop-native timer for each request, and calls Fire with the id when it
// elapses. Callbacks therefore run on the loop, never concurrently with
// pointer handling. LoopScheduler is not safe for concurrent use.
type LoopScheduler struct {
	nextID  uint64
	timers  map[uint64]*loopTimer
	pending []Request
}

// NewLoopScheduler returns an empty scheduler.
func NewLoopScheduler() *LoopScheduler {
	return &LoopScheduler{timers: make(map[uint64]*loopTimer)}
}

type loopTimer struct {
	s  *LoopScheduler
	id uint64
	fn func()
}

// Stop cancels the timer. Stopping a fired or stopped timer is a no-op.
func (t *loopTimer) Stop() bool {
	if _, ok := t.s.timers[t.id]; !ok {
		return false
	}
	delete(t.s.timers, t.id)
	return true
}

// AfterFunc registers f to run when the host fires the returned timer.
func (s *LoopScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.nextID++
	t := &loopTimer{s: s, id: s.nextID, fn: f}
	s.timers[t.id] = t
	s.pending = append(s.pending, Request{ID: t.id, Delay: d})
	return t
}

// TakePending returns and clears the timers registered since the last call.
// Requests for timers already stopped are skipped.
func (s *LoopScheduler) TakePending() []Request {
	if len(s.pending) == 0 {
		return nil
	}
	out := make([]Request, 0, len(s.pending))
	for _, r := range s.pending {
		if _, live := s.timers[r.ID]; live {
			out = append(out, r)
		}
	}
	s.pending = s.pending[:0]
	return out
}

// Fire runs the callback of timer id if it is still armed and reports
// whether it ran.
func (s *LoopScheduler) Fire(id uint64) bool {
	t, ok := s.timers[id]
	if !ok {
		return false
	}
	delete(s.timers, id)
	t.fn()
	return true
}

// Armed returns the number of timers that have not fired or been stopped.
func (s *LoopScheduler) Armed() int {
	return len(s.timers)
}
