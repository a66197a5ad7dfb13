package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Ellen-desu/termisql/internal/config"
	"github.com/google/uuid"
)

// newLogger returns the process logger. The terminal belongs to the browser,
// so logs only go to a file; without one they are discarded. Each run gets
// its own session id so runs appending to one file can be told apart.
func newLogger(cfg config.LogConfig, level slog.Level) (*slog.Logger, io.Closer, error) {
	if cfg.File == "" {
		return slog.New(slog.DiscardHandler), nopCloser{}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("session", uuid.New().String())
	return logger, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
