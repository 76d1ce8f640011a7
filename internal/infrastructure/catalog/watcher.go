package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the catalog when one of its files changes.
type Watcher struct {
	loader  *Loader
	watcher *fsnotify.Watcher
	files   map[string]struct{}
	logger  *zap.Logger

	debounceDelay time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher watches the directories holding paths. Directories are watched
// instead of the files so that editors replacing a file are noticed.
func NewWatcher(loader *Loader, paths []string, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		loader:        loader,
		watcher:       fsw,
		files:         make(map[string]struct{}, len(paths)),
		logger:        logger.Named("catalog-watcher"),
		debounceDelay: 250 * time.Millisecond,
		done:          make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// Start begins watching in the background.
func (w *Watcher) Start() {
	w.ctx, w.cancel = context.WithCancel(context.Background())
	go w.watchLoop()
	w.logger.Info("Catalog watcher started", zap.Int("files", len(w.files)))
}

// Stop ends the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
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
			w.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := w.files[abs]; !ok {
		return
	}

	// Debounce rapid events
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceDelay, w.reload)
}

func (w *Watcher) reload() {
	if _, err := w.loader.Reload(w.ctx); err != nil {
		w.logger.Warn("Catalog reload failed, keeping previous catalog", zap.Error(err))
		return
	}
	w.logger.Info("Catalog reloaded")
}
