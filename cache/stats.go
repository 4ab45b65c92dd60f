package cache

// Stats is a point-in-time snapshot of cache counters. Hit, miss, and
// eviction counters are cumulative since construction; Len and MemoryBytes
// reflect the current contents.
type Stats struct {
	Len             int
	MemoryBytes     int64
	Hits            uint64
	Misses          uint64
	TTLEvictions    uint64
	SizeEvictions   uint64
	MemoryEvictions uint64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Evictions returns the total evictions across all reasons.
func (s Stats) Evictions() uint64 {
	return s.TTLEvictions + s.SizeEvictions + s.MemoryEvictions
}

// counters holds the mutable tallies behind Stats. Guarded by the owning
// store's mutex.
type counters struct {
	hits            uint64
	misses          uint64
	ttlEvictions    uint64
	sizeEvictions   uint64
	memoryEvictions uint64
}

func (c *counters) evicted(r Reason) {
	switch r {
	case ReasonExpired:
		c.ttlEvictions++
	case ReasonCapacity:
		c.sizeEvictions++
	case ReasonMemory:
		c.memoryEvictions++
	}
}
