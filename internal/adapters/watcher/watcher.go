// Package watcher turns filesystem notifications into batches of watch events.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// DefaultDebounceWindow is the default time window for coalescing events.
const DefaultDebounceWindow = 50 * time.Millisecond

const batchChannelBuffer = 16

// Watcher watches a directory tree recursively using fsnotify.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	debouncer *Debouncer
	batches   chan []ports.WatchEvent
	done      chan struct{}
	sendMu    sync.RWMutex
	closed    bool
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewWatcher creates a watcher that batches events over window.
func NewWatcher(logger ports.Logger, window time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create file watcher")
	}
	w := &Watcher{
		fsWatcher: fsw,
		logger:    logger,
		batches:   make(chan []ports.WatchEvent, batchChannelBuffer),
		done:      make(chan struct{}),
	}
	w.debouncer = NewDebouncer(window, w.deliver)
	return w, nil
}

// Start watches root and every directory below it, then processes events
// until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context, root string) error {
	for dir := range watchRecursively(root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to watch directory"), "dir", dir)
		}
	}
	w.wg.Go(func() { w.processEvents(ctx) })
	return nil
}

// Add watches one more directory tree.
func (w *Watcher) Add(dir string) error {
	for d := range watchRecursively(dir) {
		if err := w.fsWatcher.Add(d); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to watch directory"), "dir", d)
		}
	}
	return nil
}

// Stop stops watching, waits for event processing to finish and ends Events.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.wg.Wait()
		w.debouncer.Flush()

		w.sendMu.Lock()
		w.closed = true
		close(w.batches)
		w.sendMu.Unlock()
	})
	return err
}

// Events yields debounced batches until the watcher stops.
func (w *Watcher) Events() iter.Seq[[]ports.WatchEvent] {
	return func(yield func([]ports.WatchEvent) bool) {
		for batch := range w.batches {
			if !yield(batch) {
				return
			}
		}
	}
}

func (w *Watcher) deliver(batch []ports.WatchEvent) {
	w.sendMu.RLock()
	defer w.sendMu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.batches <- batch:
	case <-w.done:
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			ev, ok := convertEvent(event)
			if !ok {
				continue
			}
			w.debouncer.Add(ev)
			if ev.Operation == ports.OpCreate {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !shouldSkip(info.Name()) {
					_ = w.Add(event.Name)
				}
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.debouncer.Add(ports.WatchEvent{Operation: ports.OpOverflow})
				continue
			}
			w.logger.Error(zerr.Wrap(err, "file watcher error"))
		}
	}
}

// convertEvent maps an fsnotify event. Chmod-only events are dropped.
func convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	switch {
	case event.Has(fsnotify.Create):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpCreate}, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpDelete}, true
	case event.Has(fsnotify.Write):
		return ports.WatchEvent{Path: event.Name, Operation: ports.OpModify}, true
	default:
		return ports.WatchEvent{}, false
	}
}

func shouldSkip(name string) bool {
	return slices.Contains(domain.IgnoredDirs, name)
}

func watchRecursively(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are skipped
			}
			if !d.IsDir() {
				return nil
			}
			if p != root && shouldSkip(d.Name()) {
				return fs.SkipDir
			}
			if !yield(p) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}
