package httpclient

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/breakwater-labs/breakwater"
	"github.com/breakwater-labs/breakwater/ratelimit"
)

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a custom logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client, replacing the hardened default
// transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithService replaces the owned Service so several clients can share one
// cache, rate window, and metrics. The Client takes ownership and closes it
// on Close.
func WithService(svc *breakwater.Service) Option {
	return func(c *Client) {
		if svc != nil {
			c.svc = svc
		}
	}
}

// WithBreakerSettings configures the circuit breaker.
func WithBreakerSettings(settings BreakerSettings) Option {
	return func(c *Client) {
		c.breakerSettings = settings
	}
}

// WithPacer installs a smooth pacer that waits before every send, for
// providers that prefer pacing over denial. Independent of the
// sliding-window rate gate, which denies instead of waiting.
func WithPacer(rps float64, burst int) Option {
	return func(c *Client) {
		c.pacer = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRatePolicy installs a sliding-window policy for one rate-limit key on
// top of the Config's set.
func WithRatePolicy(key string, limit int, window time.Duration) Option {
	return func(c *Client) {
		if c.config.RateLimits == nil {
			c.config.RateLimits = make(map[string]ratelimit.Policy)
		}
		c.config.RateLimits[key] = ratelimit.Policy{Limit: limit, Window: window}
	}
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	provider string
	rateKey  string
	headers  map[string]string
	timeout  time.Duration
}

// WithProviderAuth attaches the named provider's stored credentials to the
// request. The request fails with provider.ErrNoCredentials if none are
// stored.
func WithProviderAuth(name string) RequestOption {
	return func(o *requestOptions) {
		o.provider = name
	}
}

// WithRateKey gates the request on the sliding-window policy stored under
// key. A key without a policy is always allowed.
func WithRateKey(key string) RequestOption {
	return func(o *requestOptions) {
		o.rateKey = key
	}
}

// WithHeader sets a header for this request, overriding defaults and
// credential headers of the same name.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithRequestTimeout bounds this request, overriding the client-wide
// timeout when shorter.
func WithRequestTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.timeout = d
	}
}
