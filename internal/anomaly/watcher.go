package anomaly

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads the anomaly catalog when the content file changes.
// Disabled by default; intended for content iteration, not production runs.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	catalog     *Catalog
	lastReload  time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	logger      *zap.Logger
}

// NewWatcher creates a Watcher for the catalog's content file.
func NewWatcher(catalog *Catalog, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:     fsw,
		catalog:     catalog,
		debounceDur: 500 * time.Millisecond, // editors fire bursts of writes
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		logger:      logger.Named("catalog-watch"),
	}, nil
}

// Start begins watching. Non-blocking; the watch loop runs in a goroutine
// until Stop is called or the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	// Watch the directory rather than the file: many editors replace the
	// file on save, which drops a file-level watch. Running flips on only
	// once the watch is in place, so a failed Start can be retried and a
	// Stop after one does not wait on a loop that never ran.
	dir := filepath.Dir(w.catalog.path)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.running = true

	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	target := filepath.Clean(w.catalog.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.mu.Lock()
			debounced := time.Since(w.lastReload) < w.debounceDur
			if !debounced {
				w.lastReload = time.Now()
			}
			w.mu.Unlock()
			if debounced {
				continue
			}
			if err := w.catalog.Reload(); err != nil {
				w.logger.Warn("Catalog reload failed, keeping previous content", zap.Error(err))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}

// Stop shuts the watcher down and waits for the loop to exit. Safe to call
// whether or not Start succeeded; the underlying watcher is always released.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if !running {
		return w.watcher.Close()
	}

	close(w.stopCh)
	err := w.watcher.Close()
	<-w.doneCh
	return err
}
