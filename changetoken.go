package filicious

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ChangeToken represents a single-use change notification. Consumers
// either poll HasChanged or register a callback; ActiveChangeCallbacks
// tells which approach the underlying implementation serves efficiently.
type ChangeToken interface {
	// HasChanged returns true once a change has occurred. Tokens are
	// single-use: once true, it stays true.
	HasChanged() bool

	// ActiveChangeCallbacks indicates whether the token proactively
	// raises callbacks; if false, consumers should poll instead.
	ActiveChangeCallbacks() bool

	// RegisterChangeCallback registers a callback invoked on change and
	// returns a function to unregister it.
	RegisterChangeCallback(callback func()) (unregister func())
}

// CallbackChangeToken is a ChangeToken backed by native events; adapters
// with real filesystem notifications signal it directly.
type CallbackChangeToken struct {
	mu        sync.Mutex
	changed   atomic.Bool
	callbacks []func()
}

// NewCallbackChangeToken creates an unsignaled callback token.
func NewCallbackChangeToken() *CallbackChangeToken {
	return &CallbackChangeToken{}
}

func (t *CallbackChangeToken) HasChanged() bool { return t.changed.Load() }

func (t *CallbackChangeToken) ActiveChangeCallbacks() bool { return true }

func (t *CallbackChangeToken) RegisterChangeCallback(callback func()) (unregister func()) {
	t.mu.Lock()
	t.callbacks = append(t.callbacks, callback)
	index := len(t.callbacks) - 1
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if index < len(t.callbacks) {
			// Nil out instead of removing to keep indices stable.
			t.callbacks[index] = nil
		}
	}
}

// SignalChange marks the token as changed and invokes the callbacks.
// Called by the adapter that owns the token; signaling twice is a no-op.
func (t *CallbackChangeToken) SignalChange() {
	if t.changed.Swap(true) {
		return
	}

	t.mu.Lock()
	callbacks := make([]func(), len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.mu.Unlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb()
		}
	}
}

// PollingChangeToken serves backends without native events by running a
// check function at a fixed interval. The polling goroutine exits as
// soon as the token fires, Stop is called, or the constructor context is
// cancelled.
type PollingChangeToken struct {
	*CallbackChangeToken
	cancel context.CancelFunc
}

// NewPollingChangeToken starts polling check at the given interval; a
// zero interval defaults to 5 seconds. Cancel the context or call Stop
// to release the goroutine.
func NewPollingChangeToken(ctx context.Context, interval time.Duration, check func() bool) *PollingChangeToken {
	if interval == 0 {
		interval = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	t := &PollingChangeToken{
		CallbackChangeToken: NewCallbackChangeToken(),
		cancel:              cancel,
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if check != nil && check() {
					t.SignalChange()
					return
				}
			}
		}
	}()

	return t
}

// Stop ends polling. Safe to call multiple times.
func (t *PollingChangeToken) Stop() { t.cancel() }

// CancelledChangeToken is permanently in the changed state. Returned
// where watching cannot be served at all.
type CancelledChangeToken struct{}

func (CancelledChangeToken) HasChanged() bool            { return true }
func (CancelledChangeToken) ActiveChangeCallbacks() bool { return false }
func (CancelledChangeToken) RegisterChangeCallback(callback func()) func() {
	callback()
	return func() {}
}
