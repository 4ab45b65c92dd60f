// Package ratelimit implements a per-key sliding-window request counter.
// A key is limited by counting its recorded timestamps inside the trailing
// window; timestamps older than the window are purged lazily on each check.
package ratelimit

import (
	"sync"
	"time"
)

// Clock supplies the current time. Inject a fake in tests to control the
// window without sleeping.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Window tracks request timestamps per key. The zero limit or window means
// the key is unconfigured and always allowed, so callers can apply
// heterogeneous per-endpoint policies without special cases. All methods
// are safe for concurrent use and never return an error.
type Window struct {
	mu      sync.Mutex
	clock   Clock
	history map[string][]time.Time
}

// Option configures a Window.
type Option func(*Window)

// WithClock sets the time source. Defaults to the wall clock.
func WithClock(c Clock) Option {
	return func(w *Window) {
		if c != nil {
			w.clock = c
		}
	}
}

// NewWindow creates an empty sliding-window counter.
func NewWindow(opts ...Option) *Window {
	w := &Window{
		clock:   realClock{},
		history: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Check reports whether one more request for key would be allowed right
// now, without recording anything. Expired timestamps are purged as a side
// effect.
func (w *Window) Check(key string, limit int, window time.Duration) bool {
	if limit <= 0 || window <= 0 {
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.purge(key, window)) < limit
}

// Record appends the current time to key's history. Use it after an
// out-of-band admission decision; Allow combines the two steps.
func (w *Window) Record(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.history[key] = append(w.history[key], w.clock.Now())
}

// Allow is the check-and-record variant: it admits the request and records
// its timestamp, or denies it and records nothing, so a burst of denied
// requests cannot extend the lockout.
func (w *Window) Allow(key string, limit int, window time.Duration) bool {
	if limit <= 0 || window <= 0 {
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.purge(key, window)
	if len(kept) >= limit {
		return false
	}
	w.history[key] = append(kept, w.clock.Now())
	return true
}

// Reset forgets key's history.
func (w *Window) Reset(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.history, key)
}

// Len returns the number of keys with recorded history.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.history)
}

// purge drops key's timestamps older than the window and stores the kept
// slice back. Caller holds the lock.
func (w *Window) purge(key string, window time.Duration) []time.Time {
	stamps, ok := w.history[key]
	if !ok {
		return nil
	}

	// A timestamp counts while its age is strictly less than the window, so
	// a key locked out at the limit recovers exactly one window after its
	// oldest surviving request.
	start := w.clock.Now().Add(-window)
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(start) {
			kept = append(kept, ts)
		}
	}

	if len(kept) == 0 {
		delete(w.history, key)
		return nil
	}
	w.history[key] = kept
	return kept
}
