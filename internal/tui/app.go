package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/Ellen-desu/termisql/internal/browse"
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	DefaultResyncInterval   = 5 * time.Second
	DefaultDebounceInterval = 50 * time.Millisecond
)

// Options configures an App.
type Options struct {
	PageSize uint8
	// ResyncInterval is the coarse timer that marks everything dirty.
	ResyncInterval time.Duration
	// DebounceInterval is the fine timer that flushes the dirty flags.
	DebounceInterval time.Duration
	// Source describes the connected database in the status bar.
	Source string
	Logger *slog.Logger
}

// App is the main TUI application model. It owns the browsing state; all
// refreshes and renders happen on the fine timer.
type App struct {
	ctx    context.Context
	src    browse.Source
	logger *slog.Logger

	state   *browse.State
	machine browse.Machine

	needsDataRefresh bool
	needsRedraw      bool

	// frame is the last render; View returns it unchanged between renders.
	frame string

	// Window size
	width, height int

	resync   time.Duration
	debounce time.Duration
	source   string
	err      error

	keys KeyMap
	help help.Model
}

// NewApp creates a new TUI application reading from src. ctx bounds every
// refresh.
func NewApp(ctx context.Context, src browse.Source, opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.ResyncInterval <= 0 {
		opts.ResyncInterval = DefaultResyncInterval
	}
	if opts.DebounceInterval <= 0 {
		opts.DebounceInterval = DefaultDebounceInterval
	}
	if opts.PageSize == 0 {
		opts.PageSize = 25
	}

	h := help.New()
	h.Styles.ShortKey = statusKeyStyle
	h.Styles.ShortDesc = dimItemStyle
	h.Styles.ShortSeparator = dimItemStyle

	return &App{
		ctx:              ctx,
		src:              src,
		logger:           opts.Logger,
		state:            browse.NewState(opts.PageSize, opts.Logger),
		needsDataRefresh: true,
		needsRedraw:      true,
		resync:           opts.ResyncInterval,
		debounce:         opts.DebounceInterval,
		source:           opts.Source,
		keys:             DefaultKeyMap(),
		help:             h,
	}
}

// Err returns the error that stopped the program, if any.
func (a *App) Err() error {
	return a.err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(coarseTick(a.resync), fineTick(a.debounce))
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		out := a.machine.Handle(a.keys.translate(msg), a.state)
		a.needsDataRefresh = a.needsDataRefresh || out.Refresh
		a.needsRedraw = a.needsRedraw || out.Redraw
		if a.machine.ExitRequested() {
			a.logger.Info("quit requested")
			return a, tea.Quit
		}
		return a, nil

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.needsRedraw = true
		return a, nil

	case DataChangedMsg:
		a.needsDataRefresh = true
		a.needsRedraw = true
		return a, nil

	case coarseTickMsg:
		a.needsDataRefresh = true
		a.needsRedraw = true
		return a, coarseTick(a.resync)

	case fineTickMsg:
		if a.needsDataRefresh {
			a.needsDataRefresh = false
			if err := a.state.Refresh(a.ctx, a.src); err != nil {
				a.logger.Error("refresh failed", "err", err)
				a.err = err
				return a, tea.Quit
			}
		}
		if a.needsRedraw {
			a.needsRedraw = false
			a.frame = a.render()
		}
		return a, fineTick(a.debounce)
	}

	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	return a.frame
}
