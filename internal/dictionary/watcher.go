package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last write before
// reloading. Editors often write a file in several steps.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a dictionary file when it changes on disk.
//
// A reload that fails leaves the previous dictionary in place and reports the
// error on Errors(); callbacks only ever see dictionaries that parsed.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	current  *Dictionary
	onChange []func(*Dictionary)

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	errChan chan error
	wg      sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger used for reload diagnostics.
func WithLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher loads path once and prepares to watch it. Call Start to begin
// watching.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	d, err := Load(path)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:     path,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		current:  d,
		ctx:      ctx,
		cancel:   cancel,
		errChan:  make(chan error, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Current returns the most recently loaded dictionary.
func (w *Watcher) Current() *Dictionary {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after every successful reload.
// Register callbacks before calling Start.
func (w *Watcher) OnChange(cb func(*Dictionary)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, cb)
}

// Errors returns a channel receiving reload and watch errors. The channel is
// buffered with capacity one; errors are dropped while it is full.
func (w *Watcher) Errors() <-chan error {
	return w.errChan
}

// Start begins watching. The directory is watched rather than the file so
// that editors replacing the file by rename are still noticed.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = watcher

	w.wg.Add(1)
	go w.watchLoop()
	return nil
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}
	d, err := Load(w.path)
	if err != nil {
		w.logger.Warn("dictionary reload failed, keeping previous",
			"path", w.path,
			"error", err)
		w.report(fmt.Errorf("reload dictionary: %w", err))
		return
	}

	w.mu.Lock()
	changed := w.current == nil || w.current.Fingerprint != d.Fingerprint
	w.current = d
	callbacks := append([]func(*Dictionary){}, w.onChange...)
	w.mu.Unlock()

	if !changed {
		w.logger.Debug("dictionary rewritten without changes", "path", w.path)
		return
	}
	w.logger.Info("dictionary reloaded",
		"path", w.path,
		"fingerprint", d.Fingerprint[:12],
		"entries", d.Root.Stats().Entries)
	for _, cb := range callbacks {
		cb(d)
	}
}

func (w *Watcher) report(err error) {
	select {
	case w.errChan <- err:
	default:
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	w.cancel()
	var err error
	if w.watcher != nil {
		err = w.watcher.Close()
	}
	w.wg.Wait()
	return err
}
