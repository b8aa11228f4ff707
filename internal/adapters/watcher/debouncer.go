package watcher

import (
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/tgraph/internal/core/ports"
)

// Debouncer coalesces rapid filesystem events into batches. Within a batch each
// path appears once; a create or delete outranks a modify of the same path,
// and an overflow replaces the whole batch.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[string]ports.WatchOp
	overflow bool
	timer    *time.Timer
	window   time.Duration
	callback func([]ports.WatchEvent)
}

// NewDebouncer creates a debouncer calling callback once the window passes
// without new events.
func NewDebouncer(window time.Duration, callback func([]ports.WatchEvent)) *Debouncer {
	return &Debouncer{
		pending:  make(map[string]ports.WatchOp),
		window:   window,
		callback: callback,
	}
}

// Add records an event and restarts the window.
func (d *Debouncer) Add(ev ports.WatchEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ev.Operation == ports.OpOverflow {
		d.overflow = true
	} else if prev, ok := d.pending[ev.Path]; !ok || prev == ports.OpModify {
		d.pending[ev.Path] = ev.Operation
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	batch := d.takeLocked()
	d.timer = nil
	d.mu.Unlock()

	if len(batch) > 0 && d.callback != nil {
		d.callback(batch)
	}
}

// Flush delivers pending events synchronously.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			// Already firing; let it deliver.
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}
	batch := d.takeLocked()
	d.mu.Unlock()

	if len(batch) > 0 && d.callback != nil {
		d.callback(batch)
	}
}

func (d *Debouncer) takeLocked() []ports.WatchEvent {
	defer func() {
		clear(d.pending)
		d.overflow = false
	}()
	if d.overflow {
		return []ports.WatchEvent{{Operation: ports.OpOverflow}}
	}
	batch := make([]ports.WatchEvent, 0, len(d.pending))
	for p, op := range d.pending {
		batch = append(batch, ports.WatchEvent{Path: p, Operation: op})
	}
	slices.SortFunc(batch, func(a, b ports.WatchEvent) int {
		return strings.Compare(a.Path, b.Path)
	})
	return batch
}
