// Package refresh keeps hot cache keys warm by periodically re-executing
// registered fetches through a Service, so readers see cached data even
// when every entry would otherwise expire between requests.
package refresh

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/breakwater-labs/breakwater"
	"github.com/breakwater-labs/breakwater/internal/syncutil"
	"github.com/breakwater-labs/breakwater/internal/validate"
)

// Sentinel errors
var (
	ErrAlreadyRunning = errors.New("breakwater/refresh: already running")
	ErrNoTasks        = errors.New("breakwater/refresh: no tasks registered")
)

// Fetch produces a fresh value for one cache key.
type Fetch func(ctx context.Context) (any, error)

type task struct {
	key   string
	ttl   time.Duration
	fetch Fetch
}

// Refresher re-executes registered fetches on a jittered interval and
// stores the results in the Service's cache. It does not own the Service.
type Refresher struct {
	svc      *breakwater.Service
	logger   *slog.Logger
	interval time.Duration
	jitter   time.Duration
	// maxErrors stops the loop after that many consecutive failed cycles
	// (a cycle fails when any task fails); 0 means never stop.
	maxErrors int

	mu    sync.Mutex
	tasks []task

	running           atomic.Bool
	stopped           atomic.Bool
	consecutiveErrors atomic.Int32
	stopCh            chan struct{}
	stopMu            sync.Mutex
	wg                sync.WaitGroup
}

// Option configures the Refresher.
type Option func(*Refresher)

// WithLogger sets a custom logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Refresher) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithInterval sets the refresh period. Defaults to one minute.
func WithInterval(d time.Duration) Option {
	return func(r *Refresher) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithJitter spreads each cycle by up to ±d so several refreshers don't
// align their upstream bursts. Defaults to a tenth of the interval.
func WithJitter(d time.Duration) Option {
	return func(r *Refresher) {
		r.jitter = d
	}
}

// WithMaxErrors stops the loop after n consecutive cycles with at least
// one failed task. Zero keeps refreshing forever.
func WithMaxErrors(n int) Option {
	return func(r *Refresher) {
		r.maxErrors = n
	}
}

// New creates a Refresher for svc. The caller remains responsible for
// closing svc after Stop.
func New(svc *breakwater.Service, opts ...Option) *Refresher {
	r := &Refresher{
		svc:      svc,
		interval: time.Minute,
		jitter:   -1,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.jitter < 0 {
		r.jitter = r.interval / 10
	}
	return r
}

// Register adds a task refreshing key with ttl. Tasks may be registered
// while the refresher runs; the next cycle picks them up.
func (r *Refresher) Register(key string, ttl time.Duration, fetch Fetch) error {
	if err := validate.Key(key); err != nil {
		return err
	}
	if fetch == nil {
		return fmt.Errorf("breakwater/refresh: nil fetch for key %q", key)
	}

	r.mu.Lock()
	r.tasks = append(r.tasks, task{key: key, ttl: ttl, fetch: fetch})
	r.mu.Unlock()
	return nil
}

// Start begins the refresh loop. The first cycle runs immediately so the
// cache is warm before the first interval elapses.
func (r *Refresher) Start(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	r.mu.Lock()
	n := len(r.tasks)
	r.mu.Unlock()
	if n == 0 {
		r.running.Store(false)
		return ErrNoTasks
	}

	// Support restart by recreating stopCh if previously stopped.
	r.stopMu.Lock()
	if r.stopped.Load() {
		r.stopCh = make(chan struct{})
		r.stopped.Store(false)
	}
	r.stopMu.Unlock()

	syncutil.Go(&r.wg, func() {
		r.loop(ctx)
	})

	r.logger.Info("refresh loop started",
		"tasks", n,
		"interval", r.interval,
		"max_errors", r.maxErrors,
	)
	return nil
}

// Stop gracefully stops the loop and waits for the in-flight cycle. The
// current fetch runs to completion; only the inter-cycle wait is cut short.
func (r *Refresher) Stop() {
	if !r.running.CompareAndSwap(true, false) {
		return
	}

	r.stopMu.Lock()
	select {
	case <-r.stopCh:
		// Already closed
	default:
		close(r.stopCh)
	}
	r.stopped.Store(true)
	r.stopMu.Unlock()

	r.wg.Wait()
	r.logger.Info("refresh loop stopped")
}

// Running reports whether the loop is active.
func (r *Refresher) Running() bool {
	return r.running.Load()
}

// IsHealthy reports whether the loop is active and under its error cap.
func (r *Refresher) IsHealthy() bool {
	if r.maxErrors == 0 {
		return r.running.Load()
	}
	return r.running.Load() && int(r.consecutiveErrors.Load()) < r.maxErrors
}

// ConsecutiveErrors returns the current failed-cycle streak.
func (r *Refresher) ConsecutiveErrors() int32 {
	return r.consecutiveErrors.Load()
}

// RunOnce refreshes every registered task now, independent of the loop.
// Each task runs through the Service's retry budget; a failed task keeps
// its previous cache entry. The returned error joins all task failures.
func (r *Refresher) RunOnce(ctx context.Context) error {
	r.mu.Lock()
	tasks := make([]task, len(r.tasks))
	copy(tasks, r.tasks)
	r.mu.Unlock()

	var errs []error
	for _, tk := range tasks {
		v, err := breakwater.Do(ctx, r.svc, tk.fetch)
		if err != nil {
			r.logger.Warn("refresh fetch failed", "key", tk.key, "error", err)
			errs = append(errs, fmt.Errorf("refresh %q: %w", tk.key, err))
			continue
		}
		r.svc.SetCachedDataTTL(tk.key, v, tk.ttl)
	}
	return errors.Join(errs...)
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.running.Store(false)

	for {
		if err := r.RunOnce(ctx); err != nil {
			count := r.consecutiveErrors.Add(1)
			if r.maxErrors > 0 && int(count) >= r.maxErrors {
				r.logger.Error("refresh loop giving up",
					"consecutive_errors", count,
				)
				return
			}
		} else {
			r.consecutiveErrors.Store(0)
		}

		timer := time.NewTimer(r.nextInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("refresh loop stopped: context cancelled")
			return
		case <-r.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// nextInterval returns the base interval shifted by up to ±jitter.
func (r *Refresher) nextInterval() time.Duration {
	if r.jitter <= 0 {
		return r.interval
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(2*r.jitter)))
	if err != nil {
		return r.interval
	}
	d := r.interval + time.Duration(n.Int64()) - r.jitter
	if d <= 0 {
		d = r.interval
	}
	return d
}
