package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/tavla/internal/datasource"
	"github.com/vanderheijden86/tavla/pkg/gesture"
	"github.com/vanderheijden86/tavla/pkg/model"
)

// SnapshotMsg delivers a reloaded feed snapshot.
type SnapshotMsg struct {
	Snapshot model.DataSnapshot
	Diff     datasource.SnapshotDiff
}

// FeedErrorMsg reports a failed reload.
type FeedErrorMsg struct {
	Err error
}

// gestureTimerMsg fires a long-press timer on the event loop.
type gestureTimerMsg struct {
	ID uint64
}

// clockTickMsg refreshes relative departure times.
type clockTickMsg time.Time

// statusClearMsg clears a status message unless a newer one replaced it.
type statusClearMsg struct {
	seq int
}

// timerCmds arms a tea.Tick for every timer the gesture machine
// registered since the last call.
func timerCmds(s *gesture.LoopScheduler) []tea.Cmd {
	if s == nil {
		return nil
	}
	var cmds []tea.Cmd
	for _, r := range s.TakePending() {
		id := r.ID
		cmds = append(cmds, tea.Tick(r.Delay, func(time.Time) tea.Msg {
			return gestureTimerMsg{ID: id}
		}))
	}
	return cmds
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(30*time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

func statusClearCmd(seq int) tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{seq: seq}
	})
}
