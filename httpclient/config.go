package httpclient

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/breakwater-labs/breakwater/ratelimit"
	"github.com/breakwater-labs/breakwater/retry"
)

// Config holds HTTP client configuration.
type Config struct {
	// UserAgent is sent with every request.
	UserAgent string `env:"BREAKWATER_USER_AGENT" envDefault:"breakwater/1.0"`

	// Timeouts
	RequestTimeout time.Duration `env:"BREAKWATER_REQUEST_TIMEOUT" envDefault:"30s"`
	ConnectTimeout time.Duration `env:"BREAKWATER_CONNECT_TIMEOUT" envDefault:"10s"`
	KeepAlive      time.Duration `env:"BREAKWATER_KEEP_ALIVE" envDefault:"30s"`
	IdleTimeout    time.Duration `env:"BREAKWATER_IDLE_TIMEOUT" envDefault:"90s"`

	// Connection pool
	MaxIdleConns        int `env:"BREAKWATER_MAX_IDLE_CONNS" envDefault:"100"`
	MaxIdleConnsPerHost int `env:"BREAKWATER_MAX_IDLE_CONNS_PER_HOST" envDefault:"10"`

	// MaxResponseBytes caps how much of a response body is read.
	MaxResponseBytes int64 `env:"BREAKWATER_MAX_RESPONSE_BYTES" envDefault:"10485760"`

	// Retry settings
	RetryAttempts  int           `env:"BREAKWATER_RETRY_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay time.Duration `env:"BREAKWATER_RETRY_BASE_DELAY" envDefault:"1s"`
	RetryBackoff   bool          `env:"BREAKWATER_RETRY_BACKOFF" envDefault:"true"`

	// Circuit breaker
	BreakerMaxRequests uint32        `env:"BREAKWATER_BREAKER_MAX_REQUESTS" envDefault:"5"`
	BreakerInterval    time.Duration `env:"BREAKWATER_BREAKER_INTERVAL" envDefault:"60s"`
	BreakerTimeout     time.Duration `env:"BREAKWATER_BREAKER_TIMEOUT" envDefault:"30s"`

	// DefaultHeaders are sent with every request, below per-call headers.
	DefaultHeaders map[string]string `env:"-"`

	// RateLimits maps rate-limit keys to their window policies. A request
	// carrying a key without a policy is always allowed.
	RateLimits map[string]ratelimit.Policy `env:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:           "breakwater/1.0",
		RequestTimeout:      30 * time.Second,
		ConnectTimeout:      10 * time.Second,
		KeepAlive:           30 * time.Second,
		IdleTimeout:         90 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxResponseBytes:    10 << 20,
		RetryAttempts:       3,
		RetryBaseDelay:      time.Second,
		RetryBackoff:        true,
		BreakerMaxRequests:  5,
		BreakerInterval:     60 * time.Second,
		BreakerTimeout:      30 * time.Second,
	}
}

// LoadConfig loads configuration from BREAKWATER_* environment variables,
// falling back to the defaults above.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("httpclient: parse environment: %w", err)
	}
	return cfg, nil
}

// retryConfig maps the flat env-loadable fields onto the retry package.
func (c Config) retryConfig() retry.Config {
	return retry.Config{
		Attempts:  c.RetryAttempts,
		BaseDelay: c.RetryBaseDelay,
		Backoff:   c.RetryBackoff,
	}
}

// createHTTPClient builds the hardened default transport.
func createHTTPClient(cfg Config) *http.Client {
	return &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   cfg.ConnectTimeout,
				KeepAlive: cfg.KeepAlive,
			}).DialContext,
			MaxIdleConns:          cfg.MaxIdleConns,
			MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:       cfg.IdleTimeout,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ForceAttemptHTTP2:     true,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
