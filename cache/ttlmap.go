package cache

import (
	"sync"
	"time"
)

// mapEntry is one cached pair in the TTLMap. No recency links are kept.
type mapEntry struct {
	value     any
	createdAt time.Time
	ttl       time.Duration // <= 0 means no expiry
	size      int64
}

// TTLMap is the plain expiry-on-read store. It honors the same Get, Set,
// Delete, Has, Clear, and sweep contracts as LRU but keeps no recency order
// and enforces no ceilings, which makes writes cheaper for callers that cap
// growth some other way. All methods are safe for concurrent use.
type TTLMap struct {
	mu      sync.Mutex
	cfg     Config
	clock   Clock
	onEvict EvictFunc

	entries map[string]*mapEntry
	memory  int64
	stats   counters

	sweeper *sweeper
}

// NewTTLMap builds a TTLMap store and starts its sweeper when
// cfg.CleanupInterval > 0.
func NewTTLMap(cfg Config, opts ...Option) *TTLMap {
	o := buildOptions(opts)

	c := &TTLMap{
		cfg:     cfg,
		clock:   o.clock,
		onEvict: o.onEvict,
		entries: make(map[string]*mapEntry),
	}

	c.sweeper = startSweeper(cfg.CleanupInterval, c.removeExpired)
	return c
}

// Get returns the live value for key. An expired entry is removed and
// counted as a TTL eviction; absence and expiry are both misses.
func (c *TTLMap) Get(key string) (any, bool) {
	c.mu.Lock()

	e, ok := c.entries[key]
	if !ok {
		c.stats.misses++
		c.mu.Unlock()
		return nil, false
	}

	if c.expired(e, c.clock.Now()) {
		c.remove(key, e)
		c.stats.evicted(ReasonExpired)
		c.stats.misses++
		c.mu.Unlock()
		notify(c.onEvict, []evicted{{key, e.value, ReasonExpired}})
		return nil, false
	}

	c.stats.hits++
	v := e.value
	c.mu.Unlock()
	return v, true
}

// Set stores value under key with the configured default TTL.
func (c *TTLMap) Set(key string, value any) {
	c.SetTTL(key, value, c.cfg.DefaultTTL)
}

// SetTTL stores value under key with an explicit TTL.
func (c *TTLMap) SetTTL(key string, value any, ttl time.Duration) {
	size := entrySize(key, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.memory -= old.size
	}
	c.entries[key] = &mapEntry{
		value:     value,
		createdAt: c.clock.Now(),
		ttl:       ttl,
		size:      size,
	}
	c.memory += size
}

// Delete removes key. Reports whether a live entry was removed.
func (c *TTLMap) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.remove(key, e)
	return true
}

// Has reports whether key holds a live entry, without counting toward the
// hit rate. An expired entry is removed as in Get.
func (c *TTLMap) Has(key string) bool {
	c.mu.Lock()

	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	if c.expired(e, c.clock.Now()) {
		c.remove(key, e)
		c.stats.evicted(ReasonExpired)
		c.mu.Unlock()
		notify(c.onEvict, []evicted{{key, e.value, ReasonExpired}})
		return false
	}

	c.mu.Unlock()
	return true
}

// Len returns the number of stored entries, including expired ones that
// have not yet been swept.
func (c *TTLMap) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries. Cumulative counters survive.
func (c *TTLMap) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Stats returns a snapshot of the cache counters.
func (c *TTLMap) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Len:          len(c.entries),
		MemoryBytes:  c.memory,
		Hits:         c.stats.hits,
		Misses:       c.stats.misses,
		TTLEvictions: c.stats.ttlEvictions,
	}
}

// Close stops the sweeper and clears all entries.
func (c *TTLMap) Close() {
	c.sweeper.close()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *TTLMap) removeExpired() {
	c.mu.Lock()

	now := c.clock.Now()
	var evs []evicted
	for key, e := range c.entries {
		if c.expired(e, now) {
			c.remove(key, e)
			c.stats.evicted(ReasonExpired)
			evs = append(evs, evicted{key, e.value, ReasonExpired})
		}
	}

	c.mu.Unlock()
	notify(c.onEvict, evs)
}

func (c *TTLMap) expired(e *mapEntry, now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) >= e.ttl
}

func (c *TTLMap) remove(key string, e *mapEntry) {
	delete(c.entries, key)
	c.memory -= e.size
}

func (c *TTLMap) reset() {
	c.entries = make(map[string]*mapEntry)
	c.memory = 0
}
