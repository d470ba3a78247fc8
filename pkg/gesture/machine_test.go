package gesture_test

import (
	"testing"
	"time"

	"github.com/vanderheijden86/tavla/pkg/gesture"
	"github.com/vanderheijden86/tavla/pkg/model"
	"github.com/vanderheijden86/tavla/pkg/testutil"
)

type recorder struct {
	triggers   int
	confirmSet bool
	states     []model.GestureState
}

func newMachine(t *testing.T) (*gesture.Machine, *testutil.ManualClock, *recorder) {
	t.Helper()
	clock := testutil.NewManualClock()
	rec := &recorder{}
	var m *gesture.Machine
	m = gesture.New(clock, gesture.DefaultConfig(),
		gesture.WithOnTrigger(func() { rec.triggers++ }),
		gesture.WithOnChange(func(_, to model.GestureState) {
			rec.states = append(rec.states, to)
			if m.Confirming() {
				rec.confirmSet = true
			}
		}),
	)
	return m, clock, rec
}

func TestMachine_HoldTriggersExactlyOnce(t *testing.T) {
	m, clock, rec := newMachine(t)

	m.Down(10, 10)
	clock.Advance(800 * time.Millisecond)

	if m.State() != model.GestureTriggered {
		t.Fatalf("expected triggered, got %s", m.State())
	}
	if rec.triggers != 1 {
		t.Errorf("expected 1 trigger, got %d", rec.triggers)
	}
	if m.Confirming() {
		t.Error("confirming flag should be cleared once triggered")
	}
	if !rec.confirmSet {
		t.Error("confirming flag should have been set before trigger")
	}

	// Holding longer and releasing must not fire again or cancel.
	clock.Advance(time.Second)
	m.Up()
	if rec.triggers != 1 {
		t.Errorf("expected still 1 trigger, got %d", rec.triggers)
	}
	if !m.Triggered() {
		t.Error("release after trigger should keep the reorder UI open")
	}
}

func TestMachine_MoveBeyondToleranceCancels(t *testing.T) {
	m, clock, rec := newMachine(t)

	m.Down(0, 0)
	clock.Advance(200 * time.Millisecond)
	m.Move(0, gesture.DefaultMoveTolerance+1)
	clock.Advance(100 * time.Millisecond)
	m.Up()
	clock.Advance(time.Second)

	if m.State() != model.GestureCancelled {
		t.Fatalf("expected cancelled, got %s", m.State())
	}
	if rec.triggers != 0 {
		t.Errorf("expected no trigger, got %d", rec.triggers)
	}
	if m.Confirming() {
		t.Error("confirming flag should be cleared on cancel")
	}
	if clock.Pending() != 0 {
		t.Errorf("expected no pending timers, got %d", clock.Pending())
	}
}

func TestMachine_SmallMoveWithinToleranceKeepsPress(t *testing.T) {
	m, clock, rec := newMachine(t)

	m.Down(5, 5)
	m.Move(6, 6)
	clock.Advance(750 * time.Millisecond)

	if rec.triggers != 1 {
		t.Errorf("expected trigger despite small move, got %d", rec.triggers)
	}
}

func TestMachine_EarlyReleaseNeverConfirms(t *testing.T) {
	m, clock, rec := newMachine(t)

	m.Down(1, 1)
	clock.Advance(100 * time.Millisecond)
	m.Up()
	clock.Advance(time.Second)

	if m.State() != model.GestureCancelled {
		t.Fatalf("expected cancelled, got %s", m.State())
	}
	if rec.confirmSet {
		t.Error("confirming flag must not be set for a 100ms press")
	}
	if rec.triggers != 0 {
		t.Errorf("expected no trigger, got %d", rec.triggers)
	}
}

func TestMachine_ConfirmingBetweenThresholds(t *testing.T) {
	m, clock, _ := newMachine(t)

	m.Down(0, 0)
	clock.Advance(149 * time.Millisecond)
	if m.Confirming() {
		t.Fatal("confirming set before 150ms")
	}
	clock.Advance(time.Millisecond)
	if !m.Confirming() || m.State() != model.GestureVisuallyConfirming {
		t.Fatalf("expected confirming at 150ms, state %s", m.State())
	}
	m.CancelPointer()
	if m.Confirming() || m.State() != model.GestureCancelled {
		t.Fatalf("pointer cancel should clear flag and cancel, state %s", m.State())
	}
}

func TestMachine_NewPressTearsDownPreviousTimers(t *testing.T) {
	m, clock, rec := newMachine(t)

	m.Down(0, 0)
	clock.Advance(500 * time.Millisecond)
	// A second press without an intervening release restarts the session.
	m.Down(0, 0)
	clock.Advance(500 * time.Millisecond)

	if rec.triggers != 0 {
		t.Fatalf("stale timer from first session fired: %d triggers", rec.triggers)
	}
	if clock.Pending() != 1 {
		t.Errorf("expected only the second session's trigger timer pending, got %d", clock.Pending())
	}

	clock.Advance(250 * time.Millisecond)
	if rec.triggers != 1 {
		t.Errorf("expected second session to trigger once, got %d", rec.triggers)
	}
}

func TestMachine_CancelledReturnsToIdleOnNextPress(t *testing.T) {
	m, clock, rec := newMachine(t)

	m.Down(0, 0)
	m.Up()
	m.Down(0, 0)

	want := []model.GestureState{
		model.GesturePressing,
		model.GestureCancelled,
		model.GestureIdle,
		model.GesturePressing,
	}
	if len(rec.states) != len(want) {
		t.Fatalf("states = %v, want %v", rec.states, want)
	}
	for i := range want {
		if rec.states[i] != want[i] {
			t.Errorf("state %d = %s, want %s", i, rec.states[i], want[i])
		}
	}
	clock.Advance(time.Second)
	if rec.triggers != 1 {
		t.Errorf("expected trigger after fresh press, got %d", rec.triggers)
	}
}

func TestMachine_DismissAndIgnoredPressWhileOpen(t *testing.T) {
	m, clock, rec := newMachine(t)

	m.Down(0, 0)
	clock.Advance(time.Second)
	if !m.Triggered() {
		t.Fatal("expected triggered")
	}

	m.Down(0, 0)
	clock.Advance(time.Second)
	if rec.triggers != 1 {
		t.Errorf("press while open should be ignored, got %d triggers", rec.triggers)
	}

	m.Dismiss()
	if m.State() != model.GestureIdle {
		t.Errorf("expected idle after dismiss, got %s", m.State())
	}
	m.Dismiss()
	if m.State() != model.GestureIdle {
		t.Errorf("second dismiss should be a no-op, got %s", m.State())
	}
}

func TestMachine_OpenCountsAsTrigger(t *testing.T) {
	m, _, rec := newMachine(t)

	m.Open()
	m.Open()
	if rec.triggers != 1 || m.TriggerCount() != 1 {
		t.Errorf("expected a single trigger, got callback=%d count=%d", rec.triggers, m.TriggerCount())
	}
	if !m.Triggered() {
		t.Error("expected triggered after Open")
	}
}

func TestMachine_EventsWhileIdleAreNoops(t *testing.T) {
	m, _, rec := newMachine(t)

	m.Move(100, 100)
	m.Up()
	m.CancelPointer()
	m.Dismiss()

	if m.State() != model.GestureIdle || len(rec.states) != 0 {
		t.Errorf("expected no transitions, got %v", rec.states)
	}
}

func TestConfig_DefaultsFillZeroValues(t *testing.T) {
	m := gesture.New(testutil.NewManualClock(), gesture.Config{})
	cfg := m.Config()
	if cfg.ConfirmDelay != gesture.DefaultConfirmDelay || cfg.TriggerDelay != gesture.DefaultTriggerDelay {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
