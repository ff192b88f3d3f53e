package launcherdata

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Writer persists a state snapshot. *Store implements it.
type Writer interface {
	Save(State) error
}

// Debouncer coalesces rapid enablement toggles into single writes. Each
// queued change re-arms a single-shot timer; when the cooldown elapses with
// no further changes, the current state is written once. Only the last
// requested value per id survives the coalescing window.
//
// Safe for use from multiple goroutines.
type Debouncer struct {
	writer   Writer
	cooldown time.Duration
	logger   *log.Logger

	mu     sync.Mutex
	state  State
	dirty  bool
	timer  *time.Timer
	closed bool
}

// NewDebouncer creates a debouncer flushing to writer after cooldown of
// inactivity.
func NewDebouncer(writer Writer, cooldown time.Duration, logger *log.Logger) *Debouncer {
	if logger == nil {
		logger = log.Default()
	}
	return &Debouncer{writer: writer, cooldown: cooldown, logger: logger}
}

// Reset replaces the tracked state without scheduling a write. Any pending
// flush still fires and writes the new state.
func (d *Debouncer) Reset(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = s.Clone()
}

// QueueChange records a toggle and (re)arms the flush timer.
func (d *Debouncer) QueueChange(id string, enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.state.SetEnabled(id, enabled)
	d.dirty = true

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.cooldown, d.flush)
}

// Flush writes any pending state immediately, bypassing the timer.
func (d *Debouncer) Flush() error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if !d.dirty || d.closed {
		d.mu.Unlock()
		return nil
	}
	d.dirty = false
	snapshot := d.state.Clone()
	d.mu.Unlock()

	return d.writer.Save(snapshot)
}

// Close flushes pending changes and stops the debouncer. A timer callback
// firing after Close writes nothing. Close is idempotent.
func (d *Debouncer) Close() error {
	err := d.Flush()

	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.closed = true
	d.mu.Unlock()

	return err
}

// flush is the timer callback.
func (d *Debouncer) flush() {
	if err := d.Flush(); err != nil {
		d.logger.Error("debounced write failed", "err", err)
	}
}
