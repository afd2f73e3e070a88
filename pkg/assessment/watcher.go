package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader is implemented by Service.
type Reloader interface {
	Reload(ctx context.Context) error
}

// WatcherConfig contains configuration for the rule-set watcher.
type WatcherConfig struct {
	// Path is the rule-set file to watch.
	Path string

	// Debounce is the quiet period after the last change before reloading.
	// Default: 250ms
	Debounce time.Duration
}

// Watcher reloads a rule set when its file changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	reloader Reloader
	config   WatcherConfig
	target   string
	debounce *Debouncer
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher for cfg.Path. The file itself need not exist
// yet, but its directory must.
func NewWatcher(cfg WatcherConfig, reloader Reloader, logger *slog.Logger) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, errors.New("watch path is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	target, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fw,
		reloader: reloader,
		config:   cfg,
		target:   target,
		debounce: NewDebouncer(cfg.Debounce),
		logger:   logger.With("component", "assessment.watcher"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks, reloading on changes, until ctx is cancelled or Stop is
// called. A Watcher runs at most once.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer close(w.doneCh)

	// Watch the directory: editors often replace files by rename, which
	// drops a watch placed on the file itself.
	dir := filepath.Dir(w.target)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("rule set watcher started",
		"path", w.target,
		"debounce_ms", w.config.Debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("rule set watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("rule set watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			w.logger.Debug("rule set file event", "path", event.Name, "op", event.Op.String())

			w.debounce.Trigger(func() {
				w.logger.Info("triggering rule set reload", "path", w.target)
				// Reload logs and counts its own failures.
				_ = w.reloader.Reload(ctx)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("rule set watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and releases its resources.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		select {
		case <-w.stopCh:
		default:
			close(w.stopCh)
		}
		<-w.doneCh
	}

	w.debounce.Stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// shouldProcessEvent reports whether event concerns the watched file.
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.target
}

// Debouncer collects rapid events and runs the latest callback once after a
// quiet period.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopped  bool
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger (re)starts the quiet period; callback runs when it elapses.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		cb := d.callback
		stopped := d.stopped
		d.mu.Unlock()

		if cb != nil && !stopped {
			cb()
		}
	})
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
