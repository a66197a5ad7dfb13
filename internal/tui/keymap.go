package tui

import (
	"github.com/Ellen-desu/termisql/internal/browse"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Select key.Binding
	Back   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev pane"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next pane"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "browse"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Up, k.Down, k.Left, k.Right, k.Back, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Select, k.Back, k.Quit},
	}
}

// translate maps a terminal key press to the browser's logical key.
func (k KeyMap) translate(msg tea.KeyMsg) browse.Key {
	switch {
	case key.Matches(msg, k.Quit):
		return browse.KeyQuit
	case key.Matches(msg, k.Select):
		return browse.KeyEnter
	case key.Matches(msg, k.Back):
		return browse.KeyEscape
	case key.Matches(msg, k.Up):
		return browse.KeyUp
	case key.Matches(msg, k.Down):
		return browse.KeyDown
	case key.Matches(msg, k.Left):
		return browse.KeyLeft
	case key.Matches(msg, k.Right):
		return browse.KeyRight
	default:
		return browse.KeyNone
	}
}
