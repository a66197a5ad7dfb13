package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// coarseTickMsg is the periodic resync timer.
type coarseTickMsg time.Time

// fineTickMsg is the debounce timer that flushes the dirty flags.
type fineTickMsg time.Time

// DataChangedMsg is sent from outside the program when the database changed
// behind the browser's back.
type DataChangedMsg struct{}

func coarseTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return coarseTickMsg(t)
	})
}

func fineTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return fineTickMsg(t)
	})
}
