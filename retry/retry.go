package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"time"

	"github.com/breakwater-labs/breakwater/provider"
)

// Config holds retry configuration.
type Config struct {
	// Attempts is the total attempt budget including the first call.
	// Values below 1 behave as 1.
	Attempts int

	// BaseDelay is the wait after the first failed attempt.
	BaseDelay time.Duration

	// Backoff doubles the wait after every failed attempt
	// (BaseDelay * 2^(n-1) after attempt n). When false every wait is a
	// flat BaseDelay.
	Backoff bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Attempts:  3,
		BaseDelay: time.Second,
		Backoff:   true,
	}
}

// Option configures a single Do call.
type Option func(*settings)

type settings struct {
	sleeper Sleeper
	onRetry func(attempt int, err error, delay time.Duration)
}

// WithSleeper sets the delay implementation. Defaults to the wall clock.
func WithSleeper(s Sleeper) Option {
	return func(o *settings) {
		if s != nil {
			o.sleeper = s
		}
	}
}

// OnRetry registers a callback invoked after each failed attempt that will
// be retried, before the delay. The callback observes only; it cannot
// change the outcome.
func OnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(o *settings) {
		o.onRetry = fn
	}
}

// Do runs op until it succeeds, the attempt budget is spent, or an attempt
// fails terminally. A success returns immediately. A terminal failure (see
// Retryable) returns that error at once, regardless of remaining budget.
// When the budget is exhausted the last attempt's error is returned exactly
// as op produced it, whether one or N attempts ran, so callers can inspect
// it without unwrapping.
//
// Only the inter-attempt delay honors ctx cancellation; an attempt that is
// already running is bounded by whatever timeout op itself carries.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var zero T

	s := settings{sleeper: realSleeper{}}
	for _, opt := range opts {
		opt(&s)
	}

	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !Retryable(err) {
			return zero, err
		}
		if attempt == attempts {
			break
		}

		delay := delayFor(cfg, attempt, err)
		if s.onRetry != nil {
			s.onRetry(attempt, err, delay)
		}
		if err := s.sleeper.Sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	return zero, lastErr
}

// Retryable classifies err structurally. Transport errors carry their
// status in *provider.Error and are judged by its Kind; network errors are
// transient; context cancellation, pre-transport sentinels, and validation
// failures are terminal. Unclassified errors default to transient so an
// unknown failure still gets its budget.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, provider.ErrCircuitOpen) ||
		errors.Is(err, provider.ErrRateLimited) ||
		errors.Is(err, provider.ErrNoCredentials) ||
		errors.Is(err, provider.ErrResponseTooLarge) {
		return false
	}

	var verr *provider.ValidationError
	if errors.As(err, &verr) {
		return false
	}

	var perr *provider.Error
	if errors.As(err, &perr) {
		return perr.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return true
}

// delayFor computes the wait after a failed attempt (1-based). A
// Retry-After carried by the provider error overrides the computed backoff.
func delayFor(cfg Config, attempt int, err error) time.Duration {
	var perr *provider.Error
	if errors.As(err, &perr) && perr.RetryAfter > 0 {
		return perr.RetryAfter
	}

	if !cfg.Backoff || attempt <= 1 {
		return cfg.BaseDelay
	}
	return time.Duration(float64(cfg.BaseDelay) * math.Pow(2, float64(attempt-1)))
}
