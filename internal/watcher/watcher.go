// Package watcher re-ingests the corpus when files under the docs
// directory change. Because indexing is a whole-corpus rebuild, every
// relevant event collapses into one debounced rebuild callback.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/skyops/airman/internal/extract"
)

const defaultDebounce = 2 * time.Second

// Watcher watches the corpus directory tree and triggers a rebuild after
// changes settle.
type Watcher struct {
	root       string
	extensions map[string]bool
	onRebuild  func()
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	started bool

	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the settle window before a rebuild fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher over root. onRebuild is invoked once per settled
// burst of changes to supported document files.
func New(root string, onRebuild func(), logger *zap.Logger, opts ...Option) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	exts := make(map[string]bool)
	for _, e := range extract.SupportedExtensions() {
		exts[e] = true
	}
	w := &Watcher{
		root:       root,
		extensions: exts,
		onRebuild:  onRebuild,
		debounce:   defaultDebounce,
		logger:     logger,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching and returns immediately. The watcher runs until
// ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fsw
	w.started = true
	if err := w.addTreeLocked(w.root); err != nil {
		_ = fsw.Close()
		w.watcher = nil
		w.started = false
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	w.logger.Info("watching corpus directory", zap.String("root", w.root))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watch error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.mu.Lock()
			if w.watcher != nil {
				if err := w.addTreeLocked(ev.Name); err != nil {
					w.logger.Warn("failed to watch new directory",
						zap.String("path", ev.Name), zap.Error(err))
				}
			}
			w.mu.Unlock()
			w.scheduleRebuild(ev)
			return
		}
	case ev.Op.Has(fsnotify.Write), ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
	default:
		return
	}
	if !w.supported(ev.Name) {
		return
	}
	w.scheduleRebuild(ev)
}

func (w *Watcher) supported(path string) bool {
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

// scheduleRebuild resets the settle timer; the rebuild fires once after
// debounce with no further events.
func (w *Watcher) scheduleRebuild(ev fsnotify.Event) {
	w.logger.Debug("corpus change", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Info("corpus changed, triggering rebuild")
		w.onRebuild()
	})
}

func (w *Watcher) addTreeLocked(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// Stop stops the watcher and cancels any pending rebuild.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
