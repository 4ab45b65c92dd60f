package cache

import "time"

// Store is the capability every cache implementation provides. Absence and
// expiry are reported as a miss, never as an error.
type Store interface {
	// Get returns the live value for key. An expired entry is removed and
	// reported as a miss.
	Get(key string) (any, bool)

	// Set stores value under key with the configured default TTL.
	Set(key string, value any)

	// SetTTL stores value under key with an explicit TTL. ttl <= 0 means the
	// entry never expires.
	SetTTL(key string, value any, ttl time.Duration)

	// Delete removes key. Reports whether a live entry was removed.
	Delete(key string) bool

	// Has reports whether key holds a live entry, without touching recency.
	Has(key string) bool

	// Len returns the number of stored entries, including any that have
	// expired but not yet been swept.
	Len() int

	// Clear removes all entries. Cumulative counters survive.
	Clear()

	// Stats returns a snapshot of the cache counters.
	Stats() Stats

	// Close stops the background sweeper and clears all entries. Safe to
	// call more than once.
	Close()
}

// Policy selects the Store implementation built by New.
type Policy int

const (
	// PolicyLRU is the bounded store: strict least-recently-used eviction,
	// entry-count ceiling, and estimated-memory ceiling.
	PolicyLRU Policy = iota

	// PolicyTTLMap is a plain expiry-on-read map. It keeps no recency order
	// and ignores MaxEntries and MaxMemoryBytes.
	PolicyTTLMap
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyLRU:
		return "lru"
	case PolicyTTLMap:
		return "ttlmap"
	default:
		return "unknown"
	}
}

// Config holds cache configuration.
type Config struct {
	// Policy selects the implementation. Defaults to PolicyLRU.
	Policy Policy

	// MaxEntries caps the number of stored entries. 0 = unbounded.
	// Honored by PolicyLRU only.
	MaxEntries int

	// DefaultTTL is applied by Set. 0 = entries never expire.
	DefaultTTL time.Duration

	// CleanupInterval is the period of the background expiry sweep.
	// 0 disables the sweeper.
	CleanupInterval time.Duration

	// MaxMemoryBytes caps the total estimated size of stored values.
	// 0 = unbounded. Honored by PolicyLRU only.
	MaxMemoryBytes int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Policy:          PolicyLRU,
		MaxEntries:      1000,
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
		MaxMemoryBytes:  100 * 1024 * 1024, // 100 MB
	}
}

// Reason describes why an entry was evicted.
type Reason int

const (
	// ReasonExpired means the entry's TTL elapsed.
	ReasonExpired Reason = iota

	// ReasonCapacity means the entry-count ceiling pushed out the
	// least-recently-used entry.
	ReasonCapacity

	// ReasonMemory means the memory ceiling pushed out the
	// least-recently-used entry.
	ReasonMemory
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonExpired:
		return "ttl"
	case ReasonCapacity:
		return "size"
	case ReasonMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// EvictFunc observes evictions. It runs after the cache lock is released and
// never affects cache behavior. Explicit Delete and Clear are not evictions.
type EvictFunc func(key string, value any, reason Reason)

// Clock supplies the current time. Inject a fake in tests to control TTL
// expiry without sleeping.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Option configures a cache built by New, NewLRU, or NewTTLMap.
type Option func(*options)

type options struct {
	clock   Clock
	onEvict EvictFunc
}

// WithClock sets the time source. Defaults to the wall clock.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithOnEvict registers a callback invoked once per evicted entry.
func WithOnEvict(fn EvictFunc) Option {
	return func(o *options) {
		o.onEvict = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: realClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New builds the Store selected by cfg.Policy.
func New(cfg Config, opts ...Option) Store {
	if cfg.Policy == PolicyTTLMap {
		return NewTTLMap(cfg, opts...)
	}
	return NewLRU(cfg, opts...)
}

// evicted is a pending eviction notification, collected under the cache lock
// and delivered after it is released.
type evicted struct {
	key    string
	value  any
	reason Reason
}

func notify(fn EvictFunc, evs []evicted) {
	if fn == nil {
		return
	}
	for _, ev := range evs {
		fn(ev.key, ev.value, ev.reason)
	}
}
