package breakwater

import (
	"log/slog"
	"time"

	"github.com/breakwater-labs/breakwater/cache"
	"github.com/breakwater-labs/breakwater/ratelimit"
	"github.com/breakwater-labs/breakwater/retry"
	"golang.org/x/sync/singleflight"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache replaces the owned cache store. The Service takes ownership and
// closes it on Close.
func WithCache(store cache.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.cache = store
		}
	}
}

// WithWindow replaces the owned rate-limit window, letting tests inject a
// fake clock or several services share one window.
func WithWindow(w *ratelimit.Window) Option {
	return func(s *Service) {
		if w != nil {
			s.window = w
		}
	}
}

// WithRateLimit installs a policy for one key on top of the Config's set.
func WithRateLimit(key string, limit int, window time.Duration) Option {
	return func(s *Service) {
		s.limits.Set(key, ratelimit.Policy{Limit: limit, Window: window})
	}
}

// WithRetry overrides the retry configuration.
func WithRetry(cfg retry.Config) Option {
	return func(s *Service) {
		s.retry = cfg
	}
}

// WithSleeper sets the retry delay implementation (useful for testing).
func WithSleeper(sleeper retry.Sleeper) Option {
	return func(s *Service) {
		s.sleeper = sleeper
	}
}

// WithSingleFlight deduplicates concurrent Fetch calls for the same key so
// they share one underlying operation. Off by default: duplicate fetches of
// freshly fetchable data are harmless, and sharing couples the waiters to
// the first caller's context.
func WithSingleFlight() Option {
	return func(s *Service) {
		s.flight = new(singleflight.Group)
	}
}
