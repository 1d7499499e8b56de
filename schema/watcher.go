package schema

import (
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration file when it changes and swaps the
// active Registry atomically. In-flight ingestion runs keep the Registry
// they started with; the new one takes effect for subsequent runs.
type Watcher struct {
	path     string
	registry atomic.Pointer[Registry]
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	done     chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets a custom logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
	}
}

// NewWatcher loads the configuration at path and watches it for changes.
// A reload that fails to parse keeps the previous Registry active.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	registry, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors replace files on save, which drops
	// a watch registered on the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		watcher: fsw,
		logger:  slog.Default().With("component", "config-watcher"),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.registry.Store(registry)

	go w.run()
	return w, nil
}

// Registry returns the currently active Registry.
func (w *Watcher) Registry() *Registry {
	return w.registry.Load()
}

// Close stops watching. The last loaded Registry remains available.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			registry, err := LoadFile(w.path)
			if err != nil {
				w.logger.Error("configuration reload failed, keeping previous registry",
					"path", w.path, "err", err)
				continue
			}
			w.registry.Store(registry)
			w.logger.Info("configuration reloaded",
				"path", w.path, "collections", len(registry.CollectionIDs()))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("configuration watcher error", "err", err)
		}
	}
}
