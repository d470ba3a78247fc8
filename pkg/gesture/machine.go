// Package gesture detects the sustained press that opens the reorder UI.
//
// A Machine is driven by pointer events from a single-threaded event loop.
// Each press starts a session with two named timers: the confirm timer
// turns on the visual "about to trigger" flag, and the trigger timer
// fires the long press. Movement beyond the tolerance, release, or a
// pointer cancel before the trigger timer fires cancels the session.
//
// Timers are scheduled through a Scheduler whose callbacks must run on the
// same loop that delivers pointer events. Machine is not safe for
// concurrent use.
package gesture

import (
	"math"
	"time"

	"github.com/vanderheijden86/tavla/pkg/debug"
	"github.com/vanderheijden86/tavla/pkg/model"
)

// Default thresholds.
const (
	DefaultConfirmDelay  = 150 * time.Millisecond
	DefaultTriggerDelay  = 750 * time.Millisecond
	DefaultMoveTolerance = 25.0
)

// Timer is a cancellable scheduled callback. Stop must be idempotent and
// report whether it prevented the callback from running.
type Timer interface {
	Stop() bool
}

// Scheduler schedules callbacks on the machine's event loop.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Config holds the gesture thresholds.
type Config struct {
	ConfirmDelay  time.Duration
	TriggerDelay  time.Duration
	MoveTolerance float64 // in pointer units; movement beyond this cancels
}

// DefaultConfig returns the standard long-press thresholds.
func DefaultConfig() Config {
	return Config{
		ConfirmDelay:  DefaultConfirmDelay,
		TriggerDelay:  DefaultTriggerDelay,
		MoveTolerance: DefaultMoveTolerance,
	}
}

func (c Config) withDefaults() Config {
	if c.ConfirmDelay <= 0 {
		c.ConfirmDelay = DefaultConfirmDelay
	}
	if c.TriggerDelay <= 0 {
		c.TriggerDelay = DefaultTriggerDelay
	}
	if c.MoveTolerance < 0 {
		c.MoveTolerance = 0
	}
	return c
}

// Option configures a Machine.
type Option func(*Machine)

// WithOnTrigger sets the callback invoked once when a long press fires.
func WithOnTrigger(fn func()) Option {
	return func(m *Machine) {
		m.onTrigger = fn
	}
}

// WithOnChange sets the callback invoked on every state transition.
func WithOnChange(fn func(from, to model.GestureState)) Option {
	return func(m *Machine) {
		m.onChange = fn
	}
}

// Machine is the long-press state machine for one board.
type Machine struct {
	cfg       Config
	scheduler Scheduler
	onTrigger func()
	onChange  func(from, to model.GestureState)

	state      model.GestureState
	confirming bool
	session    uint64
	originX    float64
	originY    float64

	confirmTimer Timer
	triggerTimer Timer
	triggers     int
}

// New creates a Machine that schedules its timers on s.
func New(s Scheduler, cfg Config, opts ...Option) *Machine {
	m := &Machine{
		cfg:       cfg.withDefaults(),
		scheduler: s,
		onTrigger: func() {},
		onChange:  func(model.GestureState, model.GestureState) {},
		state:     model.GestureIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() model.GestureState { return m.state }

// Confirming reports whether the pre-trigger visual flag is on.
func (m *Machine) Confirming() bool { return m.confirming }

// Triggered reports whether the reorder UI should be open.
func (m *Machine) Triggered() bool { return m.state == model.GestureTriggered }

// TriggerCount returns how many long presses have fired.
func (m *Machine) TriggerCount() int { return m.triggers }

// Config returns the thresholds in effect.
func (m *Machine) Config() Config { return m.cfg }

// Down starts a new press session at (x, y). Timers left over from any
// earlier session are torn down first. Presses are ignored while the
// reorder UI is open.
func (m *Machine) Down(x, y float64) {
	m.stopTimers()
	if m.state == model.GestureTriggered {
		return
	}

	if m.state == model.GestureCancelled {
		m.transition(model.GestureIdle)
	}
	m.session++
	session := m.session
	m.originX, m.originY = x, y
	m.confirming = false
	m.transition(model.GesturePressing)

	m.confirmTimer = m.scheduler.AfterFunc(m.cfg.ConfirmDelay, func() {
		m.onConfirmTimer(session)
	})
	m.triggerTimer = m.scheduler.AfterFunc(m.cfg.TriggerDelay, func() {
		m.onTriggerTimer(session)
	})
}

// Move reports pointer movement. Moving beyond the tolerance cancels an
// active press.
func (m *Machine) Move(x, y float64) {
	if !m.pressing() {
		return
	}
	if math.Hypot(x-m.originX, y-m.originY) > m.cfg.MoveTolerance {
		m.cancel("moved")
	}
}

// Up reports pointer release. Releasing before the trigger cancels.
func (m *Machine) Up() {
	if m.pressing() {
		m.cancel("released")
	}
}

// CancelPointer reports that the platform aborted the pointer stream.
func (m *Machine) CancelPointer() {
	if m.pressing() {
		m.cancel("pointer cancelled")
	}
}

// Dismiss returns the machine to Idle after the reorder UI closes. It
// also clears a cancelled session.
func (m *Machine) Dismiss() {
	switch m.state {
	case model.GestureTriggered, model.GestureCancelled:
		m.stopTimers()
		m.confirming = false
		m.transition(model.GestureIdle)
	}
}

// Open enters the triggered state directly, for keyboard access to the
// reorder UI. It counts as a trigger.
func (m *Machine) Open() {
	if m.state == model.GestureTriggered {
		return
	}
	m.stopTimers()
	m.session++
	m.fire()
}

func (m *Machine) pressing() bool {
	return m.state == model.GesturePressing || m.state == model.GestureVisuallyConfirming
}

func (m *Machine) onConfirmTimer(session uint64) {
	if session != m.session || m.state != model.GesturePressing {
		return
	}
	m.confirmTimer = nil
	m.confirming = true
	m.transition(model.GestureVisuallyConfirming)
}

func (m *Machine) onTriggerTimer(session uint64) {
	if session != m.session || !m.pressing() {
		return
	}
	m.triggerTimer = nil
	m.stopTimers()
	m.fire()
}

func (m *Machine) fire() {
	m.confirming = false
	m.triggers++
	m.transition(model.GestureTriggered)
	m.onTrigger()
}

func (m *Machine) cancel(reason string) {
	m.stopTimers()
	m.confirming = false
	debug.Log("gesture: session %d cancelled (%s)", m.session, reason)
	m.transition(model.GestureCancelled)
}

func (m *Machine) stopTimers() {
	if m.confirmTimer != nil {
		m.confirmTimer.Stop()
		m.confirmTimer = nil
	}
	if m.triggerTimer != nil {
		m.triggerTimer.Stop()
		m.triggerTimer = nil
	}
}

func (m *Machine) transition(to model.GestureState) {
	from := m.state
	if from == to {
		return
	}
	m.state = to
	debug.Log("gesture: %s -> %s", from, to)
	m.onChange(from, to)
}
