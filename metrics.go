package breakwater

import (
	"sync/atomic"
	"time"
)

// Metrics tracks service activity with atomic counters. Counters are
// monotonic until ResetMetrics and pure observation: no code path reads
// them to make a decision, so removing them would change no returned value.
type Metrics struct {
	requests          atomic.Uint64
	cacheHits         atomic.Uint64
	cacheMisses       atomic.Uint64
	errors            atomic.Uint64
	rateLimitExceeded atomic.Uint64
	totalLatency      atomic.Int64 // nanoseconds
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Requests          uint64
	CacheHits         uint64
	CacheMisses       uint64
	Errors            uint64
	RateLimitExceeded uint64
	TotalLatency      time.Duration
}

// AverageLatency returns the mean response time of completed requests, or 0
// before any request completed.
func (s MetricsSnapshot) AverageLatency() time.Duration {
	if s.Requests == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Requests)
}

// CacheHitRate returns hits / (hits + misses), or 0 before any lookup.
func (s MetricsSnapshot) CacheHitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

func (m *Metrics) observeSuccess(latency time.Duration) {
	m.requests.Add(1)
	m.totalLatency.Add(int64(latency))
}

func (m *Metrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Requests:          m.requests.Load(),
		CacheHits:         m.cacheHits.Load(),
		CacheMisses:       m.cacheMisses.Load(),
		Errors:            m.errors.Load(),
		RateLimitExceeded: m.rateLimitExceeded.Load(),
		TotalLatency:      time.Duration(m.totalLatency.Load()),
	}
}

func (m *Metrics) reset() {
	m.requests.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.errors.Store(0)
	m.rateLimitExceeded.Store(0)
	m.totalLatency.Store(0)
}
