package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads Config from its source file when it changes on disk,
// grounded on the teacher's internal/config/watcher.go ConfigWatcher,
// narrowed to the single file this package loads from (the teacher watches
// a whole config directory plus per-environment overlays; this engine has
// one YAML source and layers env vars on top of it at load time).
// Hot reload only ever runs in Development, matching the teacher's guard.
type Watcher struct {
	mu        sync.RWMutex
	config    Config
	path      string
	logger    *zap.Logger
	callbacks []func(Config)
	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
}

// NewWatcher builds a Watcher around the already-loaded initial config.
// Outside Development it returns immediately with hot reload disabled;
// Stop is still safe to call.
func NewWatcher(initial Config, path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{config: initial, path: path, logger: logger, stopCh: make(chan struct{})}

	if initial.Environment != Development || path == "" {
		logger.Info("config hot reload disabled", zap.String("environment", string(initial.Environment)))
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create file watcher: %w", err)
	}
	if err := fsWatcher.Add(path); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	w.fsWatcher = fsWatcher
	go w.loop()
	logger.Info("config hot reload enabled", zap.String("path", path))
	return w, nil
}

// OnChange registers fn to run, in its own goroutine, whenever the watched
// file reloads into a validated Config that differs from the current one.
func (w *Watcher) OnChange(fn func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Config returns the currently active configuration.
func (w *Watcher) Config() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop ends the watch goroutine. Safe to call even if hot reload was never
// enabled.
func (w *Watcher) Stop() {
	if w.fsWatcher == nil {
		return
	}
	close(w.stopCh)
	w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var debounce *time.Timer
	const debounceDelay = 300 * time.Millisecond

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	next, err := Load(w.path)
	if err != nil {
		w.logger.Error("config reload failed, keeping previous configuration", zap.Error(err))
		return
	}

	w.mu.Lock()
	if w.config == next {
		w.mu.Unlock()
		w.logger.Debug("config unchanged after reload")
		return
	}
	w.config = next
	callbacks := append([]func(Config){}, w.callbacks...)
	w.mu.Unlock()

	w.logger.Info("config reloaded")
	for _, cb := range callbacks {
		go func(fn func(Config)) {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("config change callback panicked", zap.Any("panic", r))
				}
			}()
			fn(next)
		}(cb)
	}
}
