package watcher

import (
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debouncer coalesces bursts of template change events.
// Each path is dispatched once per burst, as changed or removed according to its latest event.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[string]fsnotify.Op
	interval time.Duration
	timer    *time.Timer
}

// NewDebouncer creates a debouncer that waits interval after the last event before dispatching
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		pending:  make(map[string]fsnotify.Op),
		interval: interval,
	}
}

// Add records a file change event.
// A remove or rename replaces earlier events for the path, and so does any event after one.
// Create, write and chmod events accumulate.
func (d *Debouncer) Add(path string, op fsnotify.Op) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, ok := d.pending[path]
	if !ok || isRemoval(op) || isRemoval(prev) {
		d.pending[path] = op
		return
	}
	d.pending[path] = prev | op
}

func isRemoval(op fsnotify.Op) bool {
	return op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}

// Flush restarts the quiet period; when it elapses the pending changes are handed to callback
func (d *Debouncer) Flush(callback func(changed, removed []string)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, func() {
		changed, removed := d.drain()
		if len(changed) > 0 || len(removed) > 0 {
			callback(changed, removed)
		}
	})
}

// drain splits and clears pending changes. Paths come back sorted.
func (d *Debouncer) drain() (changed, removed []string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for path, op := range d.pending {
		switch {
		case isRemoval(op):
			removed = append(removed, path)
		case op.Has(fsnotify.Write) || op.Has(fsnotify.Create):
			changed = append(changed, path)
		}
	}
	d.pending = make(map[string]fsnotify.Op)

	sort.Strings(changed)
	sort.Strings(removed)
	return changed, removed
}
