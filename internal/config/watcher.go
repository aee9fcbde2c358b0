package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadHandler receives a freshly loaded configuration.
type ReloadHandler func(cfg *Config)

// Watcher reloads the configuration file when it changes on disk.
type Watcher struct {
	path          string
	debounceDelay time.Duration
	handler       ReloadHandler
	watcher       *fsnotify.Watcher
	stopChan      chan struct{}
	doneChan      chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for the config file at path. Editors often
// replace files instead of writing them, so the parent directory is watched.
func NewWatcher(path string, debounceDelay time.Duration, handler ReloadHandler) (*Watcher, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:          abs,
		debounceDelay: debounceDelay,
		handler:       handler,
		watcher:       fsWatcher,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.watcher.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	go w.processEvents()

	slog.Info("config watcher started", "path", w.path, "debounce_ms", w.debounceDelay.Milliseconds())
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	close(w.stopChan)
	<-w.doneChan

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return w.watcher.Close()
}

func (w *Watcher) processEvents() {
	defer close(w.doneChan)

	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				slog.Debug("config event detected", "event", event.Op.String())
				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceDelay, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		// Keep running with the previous config.
		slog.Error("failed to reload config", "path", w.path, "error", err)
		return
	}
	slog.Info("config reloaded", "path", w.path)
	w.handler(cfg)
}
