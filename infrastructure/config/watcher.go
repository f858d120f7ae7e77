package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads the YAML overlay file. It is meant for development;
// production deployments restart on config changes instead.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
}

// NewWatcher creates a watcher around an already-loaded configuration.
func NewWatcher(cfg *Config, logger *zap.Logger) (*Watcher, error) {
	if cfg.OverlayPath == "" {
		return nil, fmt.Errorf("config: no overlay file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: creating file watcher: %w", err)
	}

	if err := watcher.Add(cfg.OverlayPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watching overlay file: %w", err)
	}
	// Editors and orchestrators often replace the file atomically, which
	// surfaces as a create in the parent directory.
	if err := watcher.Add(filepath.Dir(cfg.OverlayPath)); err != nil {
		logger.Warn("failed to watch config directory", zap.Error(err))
	}

	return &Watcher{
		path:    cfg.OverlayPath,
		watcher: watcher,
		logger:  logger,
		stopCh:  make(chan struct{}),
		current: cfg,
	}, nil
}

// Current returns the latest valid configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after each successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Start begins watching for changes.
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("configuration watcher started", zap.String("path", w.path))
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("configuration watcher stopped")
	})
}

func (w *Watcher) watchLoop() {
	// Debounce to avoid double reloads on write+rename sequences.
	var debounce *time.Timer
	const debounceDuration = 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDuration, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", zap.Error(err))
		}
	}
}

// reload rebuilds the configuration; an invalid file keeps the current
// one in place.
func (w *Watcher) reload() {
	w.logger.Info("configuration file changed, reloading", zap.String("path", w.path))

	next, err := Load()
	if err != nil {
		w.logger.Error("invalid configuration, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = next
	handlers := append([]func(*Config){}, w.onChange...)
	w.mu.Unlock()

	for _, handler := range handlers {
		go handler(next)
	}

	w.logger.Info("configuration reloaded")
}
