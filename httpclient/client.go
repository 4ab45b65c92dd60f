package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/breakwater-labs/breakwater"
	"github.com/breakwater-labs/breakwater/internal/scrub"
	"github.com/breakwater-labs/breakwater/internal/validate"
	"github.com/breakwater-labs/breakwater/provider"
)

// BreakerSettings configures the circuit breaker around the send path.
type BreakerSettings struct {
	// MaxRequests is the maximum number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	// If 0, internal counts never reset in closed state.
	Interval time.Duration

	// Timeout is the duration of the open state before transitioning to half-open.
	Timeout time.Duration

	// ReadyToTrip determines if the breaker should trip based on failure counts.
	// If nil, uses the default (50% failure rate after 3 requests).
	ReadyToTrip func(counts gobreaker.Counts) bool
}

// DefaultBreakerSettings returns production-ready defaults.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.5
		},
	}
}

// Response is the outcome of a successful request: any response the
// provider produced with a status below 400. Error statuses surface as
// *provider.Error instead.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON decodes the response body into target.
func (r *Response) JSON(target any) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("httpclient: decode response: %w", err)
	}
	return nil
}

// Client is a credentialed HTTP client for upstream providers. Every
// request passes through the owned Service's rate limiter, retry budget,
// and metrics; credentials are stored per provider and attached by name.
type Client struct {
	config          Config
	svc             *breakwater.Service
	httpClient      *http.Client
	logger          *slog.Logger
	credMu          sync.RWMutex
	creds           map[string]provider.Credential
	breaker         *gobreaker.CircuitBreaker[*Response]
	breakerSettings BreakerSettings
	pacer           *rate.Limiter
}

// New creates a Client with default configuration. The name labels the
// owned Service in logs and metrics.
func New(name string, opts ...Option) (*Client, error) {
	return NewFromConfig(name, DefaultConfig(), opts...)
}

// NewFromConfig creates a Client from an explicit Config.
func NewFromConfig(name string, cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		config: cfg,
		creds:  make(map[string]provider.Credential),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.svc == nil {
		svc, err := breakwater.NewFromConfig(name, breakwater.Config{
			Retry: cfg.retryConfig(),
		}, breakwater.WithLogger(c.logger))
		if err != nil {
			return nil, err
		}
		c.svc = svc
	}
	for key, policy := range c.config.RateLimits {
		c.svc.RateLimits().Set(key, policy)
	}

	if c.httpClient == nil {
		c.httpClient = createHTTPClient(c.config)
	}

	if c.breakerSettings.ReadyToTrip == nil {
		c.breakerSettings = DefaultBreakerSettings()
	}

	c.breaker = gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:         name,
		MaxRequests:  c.breakerSettings.MaxRequests,
		Interval:     c.breakerSettings.Interval,
		Timeout:      c.breakerSettings.Timeout,
		ReadyToTrip:  c.breakerSettings.ReadyToTrip,
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return c, nil
}

// Service exposes the owned Service for cache access and metrics. The
// Client closes it; callers must not.
func (c *Client) Service() *breakwater.Service { return c.svc }

// Metrics returns a snapshot of the owned Service's counters.
func (c *Client) Metrics() breakwater.MetricsSnapshot { return c.svc.Metrics() }

// Close releases the owned Service and idle connections.
func (c *Client) Close() error {
	if t, ok := c.httpClient.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	return c.svc.Close()
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodGet, url, nil, opts...)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, url string, body []byte, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPost, url, body, opts...)
}

// GetJSON issues a GET request and decodes the response body into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any, opts ...RequestOption) error {
	resp, err := c.Get(ctx, url, opts...)
	if err != nil {
		return err
	}
	return resp.JSON(target)
}

// PostJSON marshals body, issues a POST request, and decodes the response
// into target. A nil target skips decoding.
func (c *Client) PostJSON(ctx context.Context, url string, body, target any, opts ...RequestOption) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("httpclient: encode request: %w", err)
	}
	resp, err := c.Post(ctx, url, data, opts...)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return resp.JSON(target)
}

// Request issues an HTTP request with the client's resilience pipeline:
// the rate gate runs first and denies with provider.ErrRateLimited before
// any transport attempt; the send is wrapped by the retry budget, which
// retries network errors, 429, and 5xx and fails fast on auth and
// validation rejections. After the budget is spent the last transport
// error is returned exactly as produced.
func (c *Client) Request(ctx context.Context, method, url string, body []byte, opts ...RequestOption) (*Response, error) {
	if err := validate.Method(method); err != nil {
		return nil, err
	}
	if err := validate.URL(url); err != nil {
		return nil, err
	}

	ro := requestOptions{}
	for _, opt := range opts {
		opt(&ro)
	}

	if ro.rateKey != "" && !c.svc.CheckRateLimit(ro.rateKey) {
		return nil, fmt.Errorf("%w: key %q", provider.ErrRateLimited, ro.rateKey)
	}

	// Resolve credentials before the first attempt so a missing provider
	// fails without touching the transport.
	var cred provider.Credential
	if ro.provider != "" {
		var err error
		if cred, err = c.Credentials(ro.provider); err != nil {
			return nil, err
		}
	}

	return breakwater.Do(ctx, c.svc, func(ctx context.Context) (*Response, error) {
		return c.send(ctx, method, url, body, ro, cred)
	})
}

func (c *Client) send(ctx context.Context, method, url string, body []byte, ro requestOptions, cred provider.Credential) (*Response, error) {
	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.breaker.Execute(func() (*Response, error) {
		return c.doRequest(ctx, method, url, body, ro, cred)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", provider.ErrCircuitOpen, err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) doRequest(ctx context.Context, method, url string, body []byte, ro requestOptions, cred provider.Credential) (*Response, error) {
	if ro.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ro.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	for k, v := range c.config.DefaultHeaders {
		req.Header.Set(k, v)
	}
	applyCredential(req, cred)
	for k, v := range ro.headers {
		req.Header.Set(k, v)
	}

	op := method + " " + req.URL.Path

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Go embeds the request URL, query string included, in transport
		// error text.
		err = scrub.SecretFromError(err, c.credentialSecrets()...)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, provider.NewNetworkError(ro.provider, op, err)
	}
	defer resp.Body.Close()

	// Read one byte past the cap to detect overflow without a false
	// positive on an exactly full body.
	limited := io.LimitReader(resp.Body, c.config.MaxResponseBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, provider.NewNetworkError(ro.provider, op, fmt.Errorf("read response: %w", err))
	}
	if int64(len(data)) > c.config.MaxResponseBytes {
		return nil, fmt.Errorf("%w: %s", provider.ErrResponseTooLarge, op)
	}

	if resp.StatusCode >= 400 {
		msg := scrub.String(errorMessage(data), c.credentialSecrets()...)
		if retryAfter := parseRetryAfter(resp); retryAfter > 0 {
			return nil, provider.NewErrorWithRetry(ro.provider, op, resp.StatusCode, msg, retryAfter)
		}
		return nil, provider.NewError(ro.provider, op, resp.StatusCode, msg)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}

// applyCredential attaches the credential per its declared carrier: a named
// header, a query parameter, or the Authorization bearer default.
func applyCredential(req *http.Request, cred provider.Credential) {
	for k, v := range cred.Headers {
		req.Header.Set(k, v)
	}

	if cred.APIKey.IsEmpty() {
		return
	}
	switch {
	case cred.HeaderName != "":
		req.Header.Set(cred.HeaderName, cred.APIKey.Value())
	case cred.QueryParam != "":
		q := req.URL.Query()
		q.Set(cred.QueryParam, cred.APIKey.Value())
		req.URL.RawQuery = q.Encode()
	default:
		req.Header.Set("Authorization", "Bearer "+cred.APIKey.Value())
	}
}

// errorMessage extracts a short description from an error response body.
const maxErrorMessageLen = 256

func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	msg := string(body)
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}
	return msg
}

// parseRetryAfter reads the Retry-After header as delay seconds or an
// HTTP-date.
func parseRetryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// isBreakerSuccess determines if an error should count as a circuit breaker
// failure. Only server errors (5xx) and network errors trip the breaker;
// 4xx including 429 are client-side pressure, not service degradation.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var perr *provider.Error
	if errors.As(err, &perr) {
		return perr.Status >= 400 && perr.Status < 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}
