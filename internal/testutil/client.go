package testutil

import (
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"

	"github.com/breakwater-labs/breakwater"
	"github.com/breakwater-labs/breakwater/httpclient"
	"github.com/breakwater-labs/breakwater/retry"
)

// CircuitBreakerNeverTrip returns settings where the breaker never opens.
// Use for retry tests that need to verify retry behavior without breaker
// interference.
func CircuitBreakerNeverTrip() httpclient.BreakerSettings {
	return httpclient.BreakerSettings{
		MaxRequests: 100,
		Interval:    0,
		Timeout:     time.Hour,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return false // Never trip
		},
	}
}

// CircuitBreakerAggressiveTrip returns settings for testing breaker behavior.
// Trips after just 2 consecutive failures.
func CircuitBreakerAggressiveTrip() httpclient.BreakerSettings {
	return httpclient.BreakerSettings{
		MaxRequests: 1,
		Interval:    0,
		Timeout:     2 * time.Second, // Long enough to stay open during test assertions
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	}
}

// NewRetryTestClient creates a client for testing retry behavior: the
// breaker never trips and retry waits are recorded by sleeper instead of
// sleeping.
func NewRetryTestClient(t *testing.T, attempts int, sleeper *FakeSleeper, opts ...httpclient.Option) *httpclient.Client {
	t.Helper()

	svcOpts := []breakwater.Option{
		breakwater.WithRetry(retry.Config{
			Attempts:  attempts,
			BaseDelay: 100 * time.Millisecond,
			Backoff:   true,
		}),
	}
	if sleeper != nil {
		svcOpts = append(svcOpts, breakwater.WithSleeper(sleeper))
	}

	svc, err := breakwater.New("test", svcOpts...)
	require.NoError(t, err)

	defaultOpts := []httpclient.Option{
		httpclient.WithService(svc),
		httpclient.WithBreakerSettings(CircuitBreakerNeverTrip()),
	}

	client, err := httpclient.New("test", append(defaultOpts, opts...)...)
	require.NoError(t, err)

	t.Cleanup(func() { client.Close() })
	return client
}

// NewBreakerTestClient creates a client for testing circuit breaker
// behavior. The breaker trips aggressively and retries are off so each
// call is exactly one attempt.
func NewBreakerTestClient(t *testing.T, opts ...httpclient.Option) *httpclient.Client {
	t.Helper()

	svc, err := breakwater.New("test",
		breakwater.WithRetry(retry.Config{Attempts: 1}),
	)
	require.NoError(t, err)

	defaultOpts := []httpclient.Option{
		httpclient.WithService(svc),
		httpclient.WithBreakerSettings(CircuitBreakerAggressiveTrip()),
	}

	client, err := httpclient.New("test", append(defaultOpts, opts...)...)
	require.NoError(t, err)

	t.Cleanup(func() { client.Close() })
	return client
}

// NewTestClient creates a standard test client: no retries, breaker never
// trips.
func NewTestClient(t *testing.T, opts ...httpclient.Option) *httpclient.Client {
	t.Helper()
	return NewRetryTestClient(t, 1, nil, opts...)
}
