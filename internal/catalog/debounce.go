package catalog

import (
	"sync"
	"time"
)

// DefaultSearchDebounce is how long search input must stay unchanged before
// it is applied to the filter.
const DefaultSearchDebounce = 300 * time.Millisecond

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc is the production value.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer delivers only the last value of a burst, once the burst has been
// quiet for delay. Values are delivered on the timer goroutine.
type Debouncer[T any] struct {
	delay   time.Duration
	after   AfterFunc
	deliver func(T)

	mu      sync.Mutex
	timer   Timer
	pending T
	armed   bool
	gen     uint64
}

func NewDebouncer[T any](delay time.Duration, after AfterFunc, deliver func(T)) *Debouncer[T] {
	if after == nil {
		after = realAfterFunc
	}
	return &Debouncer[T]{delay: delay, after: after, deliver: deliver}
}

// Push replaces the pending value and restarts the quiet period.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = v
	d.armed = true
	d.gen++

	gen := d.gen
	d.timer = d.after(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if !d.armed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.armed = false
	d.timer = nil
	d.mu.Unlock()

	d.deliver(v)
}

// Flush delivers a pending value now. It reports whether one was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	v := d.pending
	d.armed = false
	d.timer = nil
	d.gen++
	d.mu.Unlock()

	d.deliver(v)
	return true
}

// Cancel drops a pending value without delivering it.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = false
	d.timer = nil
	d.gen++
}

// Pending returns the value waiting to be delivered, if any.
func (d *Debouncer[T]) Pending() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.armed
}
