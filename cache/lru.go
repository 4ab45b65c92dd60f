package cache

import (
	"sync"
	"time"
)

// entry is one cached pair plus its position in the recency list. The list
// links are embedded so promotion and eviction never allocate.
type entry struct {
	key         string
	value       any
	createdAt   time.Time
	ttl         time.Duration // <= 0 means no expiry
	accessCount int64
	lastAccess  time.Time
	size        int64

	prev, next *entry
}

// LRU is a bounded store with strict least-recently-used eviction. A
// sentinel-headed doubly linked list keeps recency order: the sentinel's
// next is the most recently used entry, its prev the least. Every live key
// has exactly one node. All methods are safe for concurrent use.
type LRU struct {
	mu      sync.Mutex
	cfg     Config
	clock   Clock
	onEvict EvictFunc

	entries map[string]*entry
	root    entry // sentinel
	memory  int64
	stats   counters

	sweeper *sweeper
}

// NewLRU builds an LRU store and starts its sweeper when
// cfg.CleanupInterval > 0.
func NewLRU(cfg Config, opts ...Option) *LRU {
	o := buildOptions(opts)

	c := &LRU{
		cfg:     cfg,
		clock:   o.clock,
		onEvict: o.onEvict,
		entries: make(map[string]*entry),
	}
	c.root.prev = &c.root
	c.root.next = &c.root

	c.sweeper = startSweeper(cfg.CleanupInterval, c.removeExpired)
	return c
}

// Get returns the live value for key. An expired entry is removed and
// counted as a TTL eviction; absence and expiry are both misses.
func (c *LRU) Get(key string) (any, bool) {
	c.mu.Lock()

	e, ok := c.entries[key]
	if !ok {
		c.stats.misses++
		c.mu.Unlock()
		return nil, false
	}

	now := c.clock.Now()
	if c.expired(e, now) {
		c.remove(e)
		c.stats.evicted(ReasonExpired)
		c.stats.misses++
		c.mu.Unlock()
		notify(c.onEvict, []evicted{{e.key, e.value, ReasonExpired}})
		return nil, false
	}

	e.accessCount++
	e.lastAccess = now
	c.moveToFront(e)
	c.stats.hits++

	v := e.value
	c.mu.Unlock()
	return v, true
}

// Set stores value under key with the configured default TTL.
func (c *LRU) Set(key string, value any) {
	c.SetTTL(key, value, c.cfg.DefaultTTL)
}

// SetTTL stores value under key. An existing entry is updated in place and
// promoted; a new one is inserted at the head. Either way the count and
// memory ceilings are enforced afterwards, evicting from the tail.
func (c *LRU) SetTTL(key string, value any, ttl time.Duration) {
	size := entrySize(key, value)

	c.mu.Lock()
	now := c.clock.Now()

	if e, ok := c.entries[key]; ok {
		c.memory += size - e.size
		e.value = value
		e.createdAt = now
		e.ttl = ttl
		e.lastAccess = now
		e.size = size
		c.moveToFront(e)
	} else {
		e := &entry{
			key:        key,
			value:      value,
			createdAt:  now,
			ttl:        ttl,
			lastAccess: now,
			size:       size,
		}
		c.entries[key] = e
		c.pushFront(e)
		c.memory += size
	}

	evs := c.enforceConstraints()
	c.mu.Unlock()
	notify(c.onEvict, evs)
}

// Delete removes key. Reports whether a live entry was removed.
func (c *LRU) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.remove(e)
	return true
}

// Has reports whether key holds a live entry. It never promotes and never
// counts toward the hit rate; an expired entry is removed as in Get.
func (c *LRU) Has(key string) bool {
	c.mu.Lock()

	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	if c.expired(e, c.clock.Now()) {
		c.remove(e)
		c.stats.evicted(ReasonExpired)
		c.mu.Unlock()
		notify(c.onEvict, []evicted{{e.key, e.value, ReasonExpired}})
		return false
	}

	c.mu.Unlock()
	return true
}

// Len returns the number of stored entries, including expired ones that
// have not yet been swept.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries. Cumulative counters survive.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Stats returns a snapshot of the cache counters.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Len:             len(c.entries),
		MemoryBytes:     c.memory,
		Hits:            c.stats.hits,
		Misses:          c.stats.misses,
		TTLEvictions:    c.stats.ttlEvictions,
		SizeEvictions:   c.stats.sizeEvictions,
		MemoryEvictions: c.stats.memoryEvictions,
	}
}

// Close stops the sweeper and clears all entries.
func (c *LRU) Close() {
	c.sweeper.close()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// removeExpired is the sweep pass: it drops every expired entry so
// abandoned keys do not linger until their next lookup.
func (c *LRU) removeExpired() {
	c.mu.Lock()

	now := c.clock.Now()
	var evs []evicted
	for e := c.root.prev; e != &c.root; {
		prev := e.prev
		if c.expired(e, now) {
			c.remove(e)
			c.stats.evicted(ReasonExpired)
			evs = append(evs, evicted{e.key, e.value, ReasonExpired})
		}
		e = prev
	}

	c.mu.Unlock()
	notify(c.onEvict, evs)
}

// enforceConstraints evicts from the tail until both ceilings hold. Callers
// hold the lock and deliver the returned notifications after unlocking.
func (c *LRU) enforceConstraints() []evicted {
	var evs []evicted

	for c.cfg.MaxEntries > 0 && len(c.entries) > c.cfg.MaxEntries {
		e := c.evictTail(ReasonCapacity)
		evs = append(evs, evicted{e.key, e.value, ReasonCapacity})
	}

	for c.cfg.MaxMemoryBytes > 0 && c.memory > c.cfg.MaxMemoryBytes && len(c.entries) > 0 {
		e := c.evictTail(ReasonMemory)
		evs = append(evs, evicted{e.key, e.value, ReasonMemory})
	}

	return evs
}

func (c *LRU) evictTail(reason Reason) *entry {
	e := c.root.prev
	c.remove(e)
	c.stats.evicted(reason)
	return e
}

// expired reports whether e's TTL has fully elapsed at now.
func (c *LRU) expired(e *entry, now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) >= e.ttl
}

func (c *LRU) remove(e *entry) {
	c.unlink(e)
	delete(c.entries, e.key)
	c.memory -= e.size
}

func (c *LRU) reset() {
	c.entries = make(map[string]*entry)
	c.root.prev = &c.root
	c.root.next = &c.root
	c.memory = 0
}

func (c *LRU) pushFront(e *entry) {
	e.prev = &c.root
	e.next = c.root.next
	c.root.next.prev = e
	c.root.next = e
}

func (c *LRU) unlink(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
}

func (c *LRU) moveToFront(e *entry) {
	c.unlink(e)
	c.pushFront(e)
}
