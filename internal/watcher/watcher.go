// Package watcher provides file watching with debouncing using fsnotify.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of writes from editors that save in
// several steps.
const DefaultDebounce = 250 * time.Millisecond

// FileWatcher calls a callback after a watched file changes. The parent
// directory is watched so atomic replace-by-rename saves are seen.
type FileWatcher struct {
	path     string
	debounce time.Duration
	onChange func(path string)
	onError  func(err error)

	fsw        *fsnotify.Watcher
	mu         sync.Mutex
	timer      *time.Timer
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithDebounce sets the quiet period before the callback fires.
func WithDebounce(d time.Duration) Option {
	return func(w *FileWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnChange sets the change callback. It runs on a timer goroutine.
func WithOnChange(fn func(path string)) Option {
	return func(w *FileWatcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback for watcher errors.
func WithOnError(fn func(err error)) Option {
	return func(w *FileWatcher) {
		w.onError = fn
	}
}

// New creates a watcher for path. Call Start to begin watching.
func New(path string, opts ...Option) *FileWatcher {
	w := &FileWatcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching in a background goroutine until ctx is done or Stop
// is called.
func (w *FileWatcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}
	w.fsw = fsw

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.wg.Add(1)
	go w.run(ctx)

	slog.Default().Debug("file watcher started", "path", w.path, "debounce", w.debounce)
	return nil
}

// Stop halts the watcher and drops any pending callback.
func (w *FileWatcher) Stop() {
	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
}

func (w *FileWatcher) run(ctx context.Context) {
	defer w.wg.Done()
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(ctx)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Default().Warn("file watcher error", "path", w.path, "error", err)
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *FileWatcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		slog.Default().Debug("watched file changed", "path", w.path)
		if w.onChange != nil {
			w.onChange(w.path)
		}
	})
}
