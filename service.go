package breakwater

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/breakwater-labs/breakwater/cache"
	"github.com/breakwater-labs/breakwater/provider"
	"github.com/breakwater-labs/breakwater/ratelimit"
	"github.com/breakwater-labs/breakwater/retry"
)

// Service gives provider integrations uniform access to caching, rate
// limiting, retries, and metrics. Concrete services embed or wrap one
// Service per upstream provider; the typed helpers Do and Fetch are
// package-level functions because methods cannot carry type parameters.
type Service struct {
	name    string
	logger  *slog.Logger
	cache   cache.Store
	window  *ratelimit.Window
	limits  *ratelimit.PolicySet
	retry   retry.Config
	sleeper retry.Sleeper
	metrics *Metrics
	flight  *singleflight.Group
}

// Config holds the dials for one Service.
type Config struct {
	// Cache configures the owned cache store.
	Cache cache.Config

	// Retry configures the attempt budget and backoff for Do and Fetch.
	Retry retry.Config

	// RateLimits maps rate-limit keys to their policies. Keys without a
	// policy are always allowed.
	RateLimits map[string]ratelimit.Policy
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Cache: cache.DefaultConfig(),
		Retry: retry.DefaultConfig(),
	}
}

// New creates a Service with default configuration.
func New(name string, opts ...Option) (*Service, error) {
	return NewFromConfig(name, DefaultConfig(), opts...)
}

// NewFromConfig creates a Service from an explicit Config.
func NewFromConfig(name string, cfg Config, opts ...Option) (*Service, error) {
	if name == "" {
		return nil, provider.NewValidationError("name", "must not be empty")
	}

	s := &Service{
		name:    name,
		retry:   cfg.Retry,
		limits:  ratelimit.NewPolicySet(cfg.RateLimits),
		metrics: &Metrics{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("service", name)

	if s.cache == nil {
		s.cache = cache.New(cfg.Cache)
	}
	if s.window == nil {
		s.window = ratelimit.NewWindow()
	}

	return s, nil
}

// Name returns the service name.
func (s *Service) Name() string { return s.name }

// Cache returns the owned cache store for advanced usage. The Service
// closes it; callers must not.
func (s *Service) Cache() cache.Store { return s.cache }

// CachedData returns the cached value for key and records a hit or miss.
func (s *Service) CachedData(key string) (any, bool) {
	v, ok := s.cache.Get(key)
	if ok {
		s.metrics.cacheHits.Add(1)
	} else {
		s.metrics.cacheMisses.Add(1)
	}
	return v, ok
}

// SetCachedData stores value under key with the cache's default TTL.
func (s *Service) SetCachedData(key string, value any) {
	s.cache.Set(key, value)
}

// SetCachedDataTTL stores value under key with an explicit TTL.
func (s *Service) SetCachedDataTTL(key string, value any, ttl time.Duration) {
	s.cache.SetTTL(key, value, ttl)
}

// ClearCache drops all cached entries.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// CheckRateLimit reports whether key may proceed under its configured
// policy, recording the request on admit. A denial increments the
// rate-limit metric; whether to fail or fall back is the caller's decision.
func (s *Service) CheckRateLimit(key string) bool {
	p := s.limits.Lookup(key)
	if s.window.Allow(key, p.Limit, p.Window) {
		return true
	}
	s.metrics.rateLimitExceeded.Add(1)
	s.logger.Debug("rate limit exceeded", "key", key, "limit", p.Limit, "window", p.Window)
	return false
}

// RateLimits returns the mutable policy set so callers can adjust limits at
// runtime.
func (s *Service) RateLimits() *ratelimit.PolicySet { return s.limits }

// HandleError counts err, logs it at a severity matching how surprising it
// is, and returns it unchanged. Known failure shapes (provider errors,
// validation, rate limiting, cancellation) log at Warn; anything else is
// unexpected and logs at Error. Control flow never depends on the
// distinction.
func (s *Service) HandleError(err error, operation string, attrs ...any) error {
	if err == nil {
		return nil
	}

	s.metrics.errors.Add(1)

	args := append([]any{"operation", operation, "error", err}, attrs...)
	if expectedError(err) {
		s.logger.Warn("operation failed", args...)
	} else {
		s.logger.Error("operation failed", args...)
	}
	return err
}

// Metrics returns a snapshot of the service counters.
func (s *Service) Metrics() MetricsSnapshot {
	return s.metrics.snapshot()
}

// ResetMetrics zeroes all counters.
func (s *Service) ResetMetrics() {
	s.metrics.reset()
}

// Close releases the cache and its sweeper.
func (s *Service) Close() error {
	s.cache.Close()
	return nil
}

// Do runs op through the service's retry budget. A success records the
// winning attempt's latency and the request count; a failure records the
// error count and returns the error exactly as retry.Do produced it.
func Do[T any](ctx context.Context, s *Service, op func(ctx context.Context) (T, error)) (T, error) {
	timed := func(ctx context.Context) (T, error) {
		start := time.Now()
		v, err := op(ctx)
		if err == nil {
			s.metrics.observeSuccess(time.Since(start))
		}
		return v, err
	}

	opts := []retry.Option{
		retry.OnRetry(func(attempt int, err error, delay time.Duration) {
			s.logger.Debug("retrying operation",
				"attempt", attempt,
				"error", err,
				"delay", delay,
			)
		}),
	}
	if s.sleeper != nil {
		opts = append(opts, retry.WithSleeper(s.sleeper))
	}

	v, err := retry.Do(ctx, s.retry, timed, opts...)
	if err != nil {
		s.metrics.errors.Add(1)
	}
	return v, err
}

// Fetch returns the cached value for key or runs op through Do and caches
// the result with ttl. Without single-flight, callers missing concurrently
// each run op; WithSingleFlight shares one in-flight fetch per key.
func Fetch[T any](ctx context.Context, s *Service, key string, ttl time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := s.CachedData(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
		// A value of another type under this key counts as a miss and is
		// overwritten by the fetch below.
		s.logger.Warn("cached value has unexpected type", "key", key)
	}

	if s.flight == nil {
		return fetchAndStore(ctx, s, key, ttl, op)
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		return fetchAndStore(ctx, s, key, ttl, op)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func fetchAndStore[T any](ctx context.Context, s *Service, key string, ttl time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	v, err := Do(ctx, s, op)
	if err != nil {
		return v, err
	}
	s.cache.SetTTL(key, v, ttl)
	return v, nil
}

// expectedError reports whether err is a failure shape this layer knows
// how to produce.
func expectedError(err error) bool {
	var perr *provider.Error
	if errors.As(err, &perr) {
		return true
	}
	var verr *provider.ValidationError
	if errors.As(err, &verr) {
		return true
	}
	return errors.Is(err, provider.ErrRateLimited) ||
		errors.Is(err, provider.ErrNoCredentials) ||
		errors.Is(err, provider.ErrCircuitOpen) ||
		errors.Is(err, provider.ErrResponseTooLarge) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
