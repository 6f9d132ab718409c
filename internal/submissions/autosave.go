package submissions

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid draft saves per key: a scheduled save runs only
// after the quiet period elapses with no newer save for the same key.
// Latest-wins: rescheduling replaces the pending work.
type Debouncer struct {
	quiet   time.Duration
	mu      sync.Mutex
	pending map[string]*pendingSave
}

type pendingSave struct {
	timer *time.Timer
	run   func()
}

// NewDebouncer constructs a Debouncer with the given quiet period.
func NewDebouncer(quiet time.Duration) *Debouncer {
	return &Debouncer{
		quiet:   quiet,
		pending: make(map[string]*pendingSave),
	}
}

// Schedule registers run to execute after the quiet period. A pending save
// for the same key is replaced and its timer reset.
func (d *Debouncer) Schedule(key string, run func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.pending[key]; ok {
		existing.timer.Stop()
		existing.run = run
		existing.timer.Reset(d.quiet)
		return
	}

	save := &pendingSave{run: run}
	save.timer = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		current, ok := d.pending[key]
		if !ok || current != save {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		run := current.run
		d.mu.Unlock()
		run()
	})
	d.pending[key] = save
}

// Flush runs the pending save for key immediately, if any. Callers that are
// about to read the draft back (submit, payment capture) flush first so the
// write is visible.
func (d *Debouncer) Flush(key string) {
	d.mu.Lock()
	save, ok := d.pending[key]
	if ok {
		save.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()
	if ok {
		save.run()
	}
}

// Close flushes every pending save.
func (d *Debouncer) Close() {
	d.mu.Lock()
	saves := make([]*pendingSave, 0, len(d.pending))
	for key, save := range d.pending {
		save.timer.Stop()
		saves = append(saves, save)
		delete(d.pending, key)
	}
	d.mu.Unlock()
	for _, save := range saves {
		save.run()
	}
}
