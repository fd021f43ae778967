// Package debounce coalesces bursts of calls into a single trailing call.
package debounce

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Debouncer runs action once delay has passed without a new Trigger. Only the
// value from the last Trigger is delivered. The zero value is not usable; use New.
type Debouncer[T any] struct {
	delay  time.Duration
	action func(T)

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	// idle is closed while nothing is scheduled or running; a fresh channel
	// replaces it when work begins.
	idle chan struct{}
	// gen identifies the live schedule; timers from older schedules that
	// could not be stopped in time see a mismatch and do nothing.
	gen uint64
}

// New returns a Debouncer that calls action after delay of quiescence.
func New[T any](delay time.Duration, action func(T)) *Debouncer[T] {
	idle := make(chan struct{})
	close(idle)
	return &Debouncer[T]{delay: delay, action: action, idle: idle}
}

// Trigger discards any pending schedule and schedules action(v) delay from now.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.markBusy()
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen, v) })
}

// Cancel discards any pending schedule without running action. An action
// that already started is left to finish.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	if !d.running {
		d.markIdle()
	}
}

// Pending reports whether a schedule is waiting to fire.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Wait blocks until no schedule is pending and no action is running, or
// until ctx is done.
func (d *Debouncer[T]) Wait(ctx context.Context) error {
	for {
		d.mu.Lock()
		idle := d.idle
		d.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}

		// A Trigger may have landed between the close and our wake-up.
		d.mu.Lock()
		done := d.timer == nil && !d.running
		d.mu.Unlock()
		if done {
			return nil
		}
	}
}

func (d *Debouncer[T]) fire(gen uint64, v T) {
	d.mu.Lock()
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		if d.timer == nil {
			d.markIdle()
		}
		d.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("debounced action panicked", slog.Any("panic", r))
		}
	}()
	d.action(v)
}

// markBusy and markIdle must be called with mu held.
func (d *Debouncer[T]) markBusy() {
	select {
	case <-d.idle:
		d.idle = make(chan struct{})
	default:
	}
}

func (d *Debouncer[T]) markIdle() {
	select {
	case <-d.idle:
	default:
		close(d.idle)
	}
}
