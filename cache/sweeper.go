package cache

import (
	"sync"
	"time"
)

// sweeper drives the periodic expiry sweep. Each store owns its own sweeper,
// acquired at construction and released by Close, so any number of cache
// instances can coexist in one process.
type sweeper struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// startSweeper runs sweep every interval until close. Returns nil when
// interval <= 0.
func startSweeper(interval time.Duration, sweep func()) *sweeper {
	if interval <= 0 {
		return nil
	}

	s := &sweeper{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sweep()
			case <-s.stop:
				return
			}
		}
	}()

	return s
}

// close stops the sweep goroutine and waits for it to exit. Idempotent and
// nil-safe.
func (s *sweeper) close() {
	if s == nil {
		return
	}
	s.once.Do(func() { close(s.stop) })
	<-s.done
}
