package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Ellen-desu/termisql/internal/config"
	"github.com/Ellen-desu/termisql/internal/database"
	"github.com/Ellen-desu/termisql/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when stdout cannot host the browser.
var ErrNotTerminal = errors.New("stdout is not a terminal")

// isTerminal reports whether fd is a terminal.
var isTerminal = term.IsTerminal

// run opens the configured backend and runs the browser until the user quits
// or a refresh fails.
func run(cmd *cobra.Command, cfg *config.Config) error {
	if !isTerminal(int(os.Stdout.Fd())) {
		return ErrNotTerminal
	}

	logger, logFile, err := newLogger(cfg.Log, cfg.LogLevel())
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, source, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	app := tui.NewApp(ctx, backend, tui.Options{
		PageSize:         uint8(cfg.UI.PageSize),
		ResyncInterval:   cfg.UI.ResyncInterval,
		DebounceInterval: cfg.UI.DebounceInterval,
		Source:           source,
		Logger:           logger,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if cfg.Kind() == database.KindSQLite && cfg.UI.Watch {
		stop := watchFile(cfg.SQLite.Path, logger, func() { p.Send(tui.DataChangedMsg{}) })
		defer stop()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	if err := app.Err(); err != nil {
		return err
	}

	logger.Info("exited")
	return nil
}

// openBackend connects to the configured backend and returns it with a short
// description for the status bar.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.Backend, string, error) {
	opts := cfg.PoolOptions(logger)

	switch cfg.Kind() {
	case database.KindSQLite:
		file, err := database.ResolveSQLiteFile(cfg.SQLite.Path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open database: %w", err)
		}
		b, err := database.OpenSQLite(ctx, file, opts)
		if err != nil {
			return nil, "", err
		}
		return b, "sqlite: " + file.Alias, nil

	case database.KindMySQL:
		params := cfg.ServerParams()
		b, err := database.OpenMySQL(ctx, params, opts)
		if err != nil {
			return nil, "", err
		}
		return b, describeServer(cfg.Backend, params), nil

	case database.KindPostgres:
		params := cfg.ServerParams()
		b, err := database.OpenPostgres(ctx, params, opts)
		if err != nil {
			return nil, "", err
		}
		return b, describeServer(cfg.Backend, params), nil

	default:
		return nil, "", fmt.Errorf("%w: %q", config.ErrBackend, cfg.Backend)
	}
}

func describeServer(backend string, p database.ServerParams) string {
	return fmt.Sprintf("%s: %s@%s:%d/%s", backend, p.User, p.Host, p.Port, p.Database)
}

// watchFile calls onChange whenever the database file changes. Failures are
// logged; the periodic resync still picks up changes.
func watchFile(path string, logger *slog.Logger, onChange func()) (stop func()) {
	w, err := database.NewFileWatcher(path, logger)
	if err != nil {
		logger.Warn("file watcher unavailable", "path", path, "err", err)
		return func() {}
	}
	w.OnChange(onChange)
	if err := w.Start(); err != nil {
		logger.Warn("file watcher unavailable", "path", path, "err", err)
		w.Stop()
		return func() {}
	}
	return w.Stop
}
