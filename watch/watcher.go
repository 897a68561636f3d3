// Package watch reloads a shader source file when it changes on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches a single file and publishes its contents after writes
// settle. Only the most recent unread contents are kept.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	logger   *zap.Logger
	debounce time.Duration

	changedAt time.Time
	dirty     bool

	updates chan string
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// New creates a Watcher for path. The file's directory is watched so that
// editors which replace the file on save are followed.
func New(path string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  watcher,
		path:     abs,
		logger:   logger,
		debounce: debounce,
		updates:  make(chan string, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		w.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.logger.Info("Watching shader file", zap.String("path", w.path), zap.Duration("debounce", w.debounce))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("Error closing watcher", zap.Error(err))
	}
}

// Updates delivers new file contents.
func (w *Watcher) Updates() <-chan string { return w.updates }

// Drain returns pending contents without blocking.
func (w *Watcher) Drain() (string, bool) {
	select {
	case src := <-w.updates:
		return src, true
	default:
		return "", false
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 2
	if tick <= 0 || tick > 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	debounceTicker := time.NewTicker(tick)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))

		case <-debounceTicker.C:
			w.flush(false)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	w.logger.Debug("Shader file changed", zap.String("op", event.Op.String()))
	w.changedAt = time.Now()
	w.dirty = true
	if w.debounce <= 0 {
		w.flush(true)
	}
}

// flush publishes the file once it has been quiet for the debounce window.
func (w *Watcher) flush(force bool) {
	if !w.dirty || (!force && time.Since(w.changedAt) < w.debounce) {
		return
	}
	w.dirty = false

	content, err := os.ReadFile(w.path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Error("Failed to read shader file", zap.String("path", w.path), zap.Error(err))
		}
		return
	}
	if len(content) == 0 {
		// Truncated mid-save; the following write brings the contents.
		return
	}

	// Replace any update the render thread has not picked up yet.
	select {
	case <-w.updates:
	default:
	}
	w.updates <- string(content)
	w.logger.Info("Shader file reloaded", zap.String("path", w.path), zap.Int("bytes", len(content)))
}
