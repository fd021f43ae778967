package scan

import (
	"context"
	"sync"
	"time"
)

// FocusKeeper returns focus to the barcode input on a fixed tick for as long
// as it runs. Start and Stop bracket the lifetime of the scanning view.
type FocusKeeper struct {
	view     View
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewFocusKeeper(view View, interval time.Duration) *FocusKeeper {
	if interval <= 0 {
		interval = DefaultFocusInterval
	}
	return &FocusKeeper{view: view, interval: interval}
}

// Start launches the tick loop. Calling Start on a running keeper is a no-op.
// The loop also ends when ctx is cancelled; a later Start replaces it.
func (k *FocusKeeper) Start(ctx context.Context) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.cancel != nil {
		select {
		case <-k.done:
			k.cancel()
		default:
			return
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	k.cancel = cancel
	k.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(k.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				k.Ensure()
			}
		}
	}()
}

// Stop ends the loop and waits for it to exit. Safe to call when stopped.
func (k *FocusKeeper) Stop() {
	k.mu.Lock()
	cancel, done := k.cancel, k.done
	k.cancel, k.done = nil, nil
	k.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the tick loop is live.
func (k *FocusKeeper) Running() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.done == nil {
		return false
	}
	select {
	case <-k.done:
		return false
	default:
		return true
	}
}

// Ensure focuses the input if something else holds focus.
func (k *FocusKeeper) Ensure() {
	if !k.view.Focused() {
		k.view.Focus()
	}
}
