package database

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a SQLite file, including its journal and WAL, and
// notifies callbacks when another process writes to it.
type FileWatcher struct {
	path      string
	watcher   *fsnotify.Watcher
	callbacks []func()
	stop      chan struct{}
	stopOnce  sync.Once
	logger    *slog.Logger
	mu        sync.RWMutex
}

// NewFileWatcher creates a watcher for the database file at path.
func NewFileWatcher(path string, logger *slog.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &FileWatcher{
		path:      abs,
		watcher:   watcher,
		callbacks: make([]func(), 0),
		stop:      make(chan struct{}),
		logger:    logger,
	}, nil
}

// OnChange registers a callback to be called after the file changed.
func (w *FileWatcher) OnChange(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins watching. The directory is watched rather than the file so
// that the -wal and -journal siblings and atomic replacements are seen.
func (w *FileWatcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.watch()
	return nil
}

// Stop stops watching.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.watcher.Close()
	})
}

// relevant reports whether an event path belongs to the watched database.
func (w *FileWatcher) relevant(name string) bool {
	switch filepath.Clean(name) {
	case w.path, w.path + "-wal", w.path + "-journal":
		return true
	}
	return false
}

func (w *FileWatcher) watch() {
	// Debounce timer to avoid a notification per page write
	var debounceTimer *time.Timer
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, w.notify)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "path", w.path, "err", err)

		case <-w.stop:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

func (w *FileWatcher) notify() {
	select {
	case <-w.stop:
		return
	default:
	}

	w.logger.Debug("database file changed", "path", w.path)

	w.mu.RLock()
	callbacks := make([]func(), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb()
	}
}
