package cache_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breakwater-labs/breakwater/cache"
	"github.com/breakwater-labs/breakwater/internal/testutil"
)

func newLRU(t *testing.T, cfg cache.Config, opts ...cache.Option) *cache.LRU {
	t.Helper()
	c := cache.NewLRU(cfg, opts...)
	t.Cleanup(c.Close)
	return c
}

func TestLRU_GetSet(t *testing.T) {
	c := newLRU(t, cache.Config{MaxEntries: 10})

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("balance:0xabc", 1234.5)
	v, ok := c.Get("balance:0xabc")
	require.True(t, ok)
	assert.Equal(t, 1234.5, v)

	// Overwrite updates in place
	c.Set("balance:0xabc", 99.0)
	v, ok = c.Get("balance:0xabc")
	require.True(t, ok)
	assert.Equal(t, 99.0, v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_SizeNeverExceedsMaxEntries(t *testing.T) {
	c := newLRU(t, cache.Config{MaxEntries: 5})

	for i := 0; i < 50; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
		assert.LessOrEqual(t, c.Len(), 5)
	}
	assert.Equal(t, 5, c.Len())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newLRU(t, cache.Config{MaxEntries: 3})

	c.Set("A", 1)
	c.Set("B", 2)
	c.Set("C", 3)

	// Touch A so B becomes the least recently used
	_, ok := c.Get("A")
	require.True(t, ok)

	c.Set("D", 4)

	assert.False(t, c.Has("B"), "least recently used entry should be evicted")
	assert.True(t, c.Has("A"))
	assert.True(t, c.Has("C"))
	assert.True(t, c.Has("D"))
	assert.Equal(t, 3, c.Len())
}

func TestLRU_SetPromotes(t *testing.T) {
	c := newLRU(t, cache.Config{MaxEntries: 3})

	c.Set("A", 1)
	c.Set("B", 2)
	c.Set("C", 3)

	// Overwriting A promotes it, so B is now the tail
	c.Set("A", 10)
	c.Set("D", 4)

	assert.False(t, c.Has("B"))
	assert.True(t, c.Has("A"))
}

func TestLRU_HasDoesNotPromote(t *testing.T) {
	c := newLRU(t, cache.Config{MaxEntries: 3})

	c.Set("A", 1)
	c.Set("B", 2)
	c.Set("C", 3)

	// Has must not refresh recency, so A stays the tail
	require.True(t, c.Has("A"))
	c.Set("D", 4)

	assert.False(t, c.Has("A"))
	assert.True(t, c.Has("B"))
}

func TestLRU_TTLExpiry(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	c := newLRU(t, cache.Config{MaxEntries: 10}, cache.WithClock(clock))

	c.SetTTL("price:ETH", 3000, time.Second)

	clock.Advance(999 * time.Millisecond)
	_, ok := c.Get("price:ETH")
	assert.True(t, ok, "entry should live while elapsed < ttl")

	clock.Advance(time.Millisecond)
	_, ok = c.Get("price:ETH")
	assert.False(t, ok, "entry should expire once elapsed reaches ttl")

	st := c.Stats()
	assert.Equal(t, uint64(1), st.TTLEvictions)
	assert.Equal(t, 0, c.Len(), "expired entry is removed on read")
}

func TestLRU_ZeroTTLNeverExpires(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	c := newLRU(t, cache.Config{MaxEntries: 10}, cache.WithClock(clock))

	c.SetTTL("chain:params", "mainnet", 0)
	clock.Advance(1000 * time.Hour)

	_, ok := c.Get("chain:params")
	assert.True(t, ok)
}

func TestLRU_DefaultTTLFromConfig(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	c := newLRU(t, cache.Config{MaxEntries: 10, DefaultTTL: time.Minute}, cache.WithClock(clock))

	c.Set("k", "v")

	clock.Advance(59 * time.Second)
	assert.True(t, c.Has("k"))

	clock.Advance(time.Second)
	assert.False(t, c.Has("k"))
}

func TestLRU_MemoryCeiling(t *testing.T) {
	const ceiling = 4096
	c := newLRU(t, cache.Config{MaxMemoryBytes: ceiling})

	payload := make([]byte, 512)
	inserts := 20
	for i := 0; i < inserts; i++ {
		c.Set(fmt.Sprintf("block-%d", i), payload)
	}

	st := c.Stats()
	assert.LessOrEqual(t, st.MemoryBytes, int64(ceiling))
	assert.Less(t, c.Len(), inserts, "memory ceiling must force evictions")
	assert.Greater(t, st.MemoryEvictions, uint64(0))
}

func TestLRU_OversizedEntryEvictsItself(t *testing.T) {
	c := newLRU(t, cache.Config{MaxMemoryBytes: 256})

	c.Set("huge", make([]byte, 4096))

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Stats().MemoryBytes)
}

func TestLRU_Delete(t *testing.T) {
	c := newLRU(t, cache.Config{MaxEntries: 10})

	c.Set("k", "v")
	assert.True(t, c.Delete("k"))
	assert.False(t, c.Delete("k"))
	assert.False(t, c.Has("k"))
	assert.Equal(t, 0, c.Len())
}

func TestLRU_Clear(t *testing.T) {
	c := newLRU(t, cache.Config{MaxEntries: 10})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Stats().MemoryBytes)

	// Cumulative counters survive Clear
	assert.Equal(t, uint64(1), c.Stats().Hits)
}

func TestLRU_Stats(t *testing.T) {
	c := newLRU(t, cache.Config{MaxEntries: 2})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Get("a")
	c.Get("missing")
	c.Set("c", 3) // evicts b

	st := c.Stats()
	assert.Equal(t, uint64(2), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
	assert.Equal(t, uint64(1), st.SizeEvictions)
	assert.Equal(t, uint64(1), st.Evictions())
	assert.InDelta(t, 2.0/3.0, st.HitRate(), 1e-9)
	assert.Equal(t, 2, st.Len)
	assert.Greater(t, st.MemoryBytes, int64(0))
}

func TestLRU_HitRateZeroBeforeLookups(t *testing.T) {
	c := newLRU(t, cache.Config{MaxEntries: 2})
	assert.Zero(t, c.Stats().HitRate())
}

func TestLRU_OnEvictReasons(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())

	type evt struct {
		key    string
		reason cache.Reason
	}
	var events []evt
	record := func(key string, _ any, reason cache.Reason) {
		events = append(events, evt{key, reason})
	}

	c := newLRU(t, cache.Config{MaxEntries: 2},
		cache.WithClock(clock),
		cache.WithOnEvict(record),
	)

	c.SetTTL("stale", 1, time.Second)
	clock.Advance(time.Second)
	c.Get("stale") // expired read

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // capacity eviction of a

	require.Len(t, events, 2)
	assert.Equal(t, evt{"stale", cache.ReasonExpired}, events[0])
	assert.Equal(t, evt{"a", cache.ReasonCapacity}, events[1])
}

func TestLRU_DeleteIsNotAnEviction(t *testing.T) {
	var evictions int
	c := newLRU(t, cache.Config{MaxEntries: 10},
		cache.WithOnEvict(func(string, any, cache.Reason) { evictions++ }),
	)

	c.Set("k", "v")
	c.Delete("k")
	c.Clear()

	assert.Zero(t, evictions)
	assert.Zero(t, c.Stats().Evictions())
}

func TestLRU_SweepRemovesExpired(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	c := cache.NewLRU(cache.Config{
		MaxEntries:      10,
		CleanupInterval: 10 * time.Millisecond,
	}, cache.WithClock(clock))
	t.Cleanup(c.Close)

	c.SetTTL("gone-1", 1, time.Second)
	c.SetTTL("gone-2", 2, time.Second)
	c.SetTTL("kept", 3, time.Hour)
	clock.Advance(2 * time.Second)

	// The sweep runs on real time; the entries expire on the fake clock.
	require.Eventually(t, func() bool { return c.Len() == 1 },
		time.Second, 5*time.Millisecond, "sweep should drop expired entries")

	st := c.Stats()
	assert.Equal(t, uint64(2), st.TTLEvictions)
	assert.True(t, c.Has("kept"))
}

func TestLRU_CloseIsIdempotent(t *testing.T) {
	c := cache.NewLRU(cache.Config{MaxEntries: 10, CleanupInterval: time.Minute})

	c.Set("k", "v")
	c.Close()
	c.Close()

	assert.Equal(t, 0, c.Len())
}

func TestLRU_StoreInterface(t *testing.T) {
	var _ cache.Store = (*cache.LRU)(nil)
	var _ cache.Store = (*cache.TTLMap)(nil)

	c := cache.New(cache.Config{Policy: cache.PolicyLRU, MaxEntries: 1})
	t.Cleanup(c.Close)
	_, ok := c.(*cache.LRU)
	assert.True(t, ok)

	m := cache.New(cache.Config{Policy: cache.PolicyTTLMap})
	t.Cleanup(m.Close)
	_, ok = m.(*cache.TTLMap)
	assert.True(t, ok)
}
