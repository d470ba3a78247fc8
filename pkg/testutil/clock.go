package testutil

import (
	"sort"
	"time"

	"github.com/vanderheijden86/tavla/pkg/gesture"
)

// ManualClock is a gesture.Scheduler driven by explicit Advance calls.
// Callbacks run synchronously inside Advance, in due-time order.
type ManualClock struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	clock   *ManualClock
	due     time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

// NewManualClock returns a clock at time zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Stop cancels the timer; it is a no-op once fired or stopped.
func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// AfterFunc schedules f to run d after the current time.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) gesture.Timer {
	c.seq++
	t := &manualTimer{clock: c, due: c.now + d, seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Now returns the elapsed virtual time.
func (c *ManualClock) Now() time.Duration {
	return c.now
}

// Advance moves the clock forward by d, firing every timer that falls due.
func (c *ManualClock) Advance(d time.Duration) {
	target := c.now + d
	for {
		next := c.nextDue(target)
		if next == nil {
			break
		}
		c.now = next.due
		next.fired = true
		next.fn()
	}
	c.now = target
}

// Pending returns the number of timers that are neither fired nor stopped.
func (c *ManualClock) Pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

func (c *ManualClock) nextDue(limit time.Duration) *manualTimer {
	var live []*manualTimer
	for _, t := range c.timers {
		if !t.fired && !t.stopped && t.due <= limit {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].due != live[j].due {
			return live[i].due < live[j].due
		}
		return live[i].seq < live[j].seq
	})
	return live[0]
}
