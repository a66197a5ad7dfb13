package browse

// Screen is the pane that has focus.
type Screen int

const (
	ScreenMain Screen = iota
	ScreenSelecting
	ScreenViewing
	ScreenPaging
)

func (s Screen) String() string {
	switch s {
	case ScreenMain:
		return "main"
	case ScreenSelecting:
		return "selecting"
	case ScreenViewing:
		return "viewing"
	case ScreenPaging:
		return "paging"
	default:
		return "unknown"
	}
}

// right is the next pane in the Selecting → Viewing → Paging cycle.
// Main has no lateral neighbours.
func (s Screen) right() Screen {
	switch s {
	case ScreenSelecting:
		return ScreenViewing
	case ScreenViewing:
		return ScreenPaging
	case ScreenPaging:
		return ScreenSelecting
	default:
		return s
	}
}

func (s Screen) left() Screen {
	switch s {
	case ScreenSelecting:
		return ScreenPaging
	case ScreenPaging:
		return ScreenViewing
	case ScreenViewing:
		return ScreenSelecting
	default:
		return s
	}
}

// Key is a logical key press, already decoded from the terminal.
type Key int

const (
	KeyNone Key = iota
	KeyEnter
	KeyEscape
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyQuit
)

// Outcome is the work a key press asks the scheduler to do.
type Outcome struct {
	Refresh bool
	Redraw  bool
}

// Machine is the navigation state machine. The zero value starts on Main.
type Machine struct {
	screen Screen
	exit   bool
}

// Screen returns the focused pane.
func (m *Machine) Screen() Screen {
	return m.screen
}

// ExitRequested reports whether quit was pressed.
func (m *Machine) ExitRequested() bool {
	return m.exit
}

// Handle applies one key press to the machine and to st. Every press asks
// for a redraw; only moves that change what must be fetched ask for a refresh.
func (m *Machine) Handle(k Key, st *State) Outcome {
	out := Outcome{Redraw: true}

	switch k {
	case KeyQuit:
		m.exit = true

	case KeyEnter:
		if m.screen == ScreenMain {
			m.screen = ScreenSelecting
		}

	case KeyEscape:
		m.screen = ScreenMain

	case KeyRight:
		m.screen = m.screen.right()

	case KeyLeft:
		m.screen = m.screen.left()

	case KeyUp, KeyDown:
		out.Refresh = m.move(k == KeyDown, st)
	}

	return out
}

// move handles Up/Down for the focused pane and reports whether the data
// shown must be fetched again.
func (m *Machine) move(down bool, st *State) bool {
	switch m.screen {
	case ScreenSelecting:
		if st.Tables.Len() == 0 {
			return false
		}
		if down {
			st.Tables.Next()
		} else {
			st.Tables.Prev()
		}
		return true

	case ScreenViewing:
		if down {
			st.NextRow()
		} else {
			st.PrevRow()
		}
		return false

	case ScreenPaging:
		if st.Page.End == 0 {
			return false
		}
		if down {
			st.Page.Next()
		} else {
			st.Page.Prev()
		}
		return true
	}
	return false
}
