package retry_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breakwater-labs/breakwater/internal/testutil"
	"github.com/breakwater-labs/breakwater/provider"
	"github.com/breakwater-labs/breakwater/retry"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	sleeper := &testutil.FakeSleeper{}
	calls := 0

	got, err := retry.Do(context.Background(), retry.Config{Attempts: 3, BaseDelay: time.Second},
		func(context.Context) (string, error) {
			calls++
			return "0x1234", nil
		},
		retry.WithSleeper(sleeper),
	)

	require.NoError(t, err)
	assert.Equal(t, "0x1234", got)
	assert.Equal(t, 1, calls)
	assert.Zero(t, sleeper.CallCount(), "a success must not delay")
}

func TestDo_RecoversAfterFailures(t *testing.T) {
	const attempts = 3
	sleeper := &testutil.FakeSleeper{}
	calls := 0

	got, err := retry.Do(context.Background(), retry.Config{Attempts: attempts, BaseDelay: 100 * time.Millisecond},
		func(context.Context) (int, error) {
			calls++
			if calls < attempts {
				return 0, provider.NewNetworkError("alchemy", "eth_getBalance", errors.New("connection reset"))
			}
			return 42, nil
		},
		retry.WithSleeper(sleeper),
	)

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, attempts, calls, "needs exactly the full budget")
}

func TestDo_ExhaustionReturnsLastErrorVerbatim(t *testing.T) {
	sleeper := &testutil.FakeSleeper{}
	boom := provider.NewError("infura", "eth_call", 503, "service unavailable")
	calls := 0

	_, err := retry.Do(context.Background(), retry.Config{Attempts: 4, BaseDelay: time.Millisecond},
		func(context.Context) (int, error) {
			calls++
			return 0, boom
		},
		retry.WithSleeper(sleeper),
	)

	assert.Equal(t, 4, calls)
	assert.Same(t, boom, err, "the final error must not be wrapped or replaced")
}

func TestDo_SingleAttemptErrorHasSameShape(t *testing.T) {
	boom := provider.NewError("infura", "eth_call", 502, "bad gateway")

	_, errOne := retry.Do(context.Background(), retry.Config{Attempts: 1},
		func(context.Context) (int, error) { return 0, boom },
		retry.WithSleeper(&testutil.FakeSleeper{}),
	)
	_, errMany := retry.Do(context.Background(), retry.Config{Attempts: 5, BaseDelay: time.Millisecond},
		func(context.Context) (int, error) { return 0, boom },
		retry.WithSleeper(&testutil.FakeSleeper{}),
	)

	assert.Same(t, errOne, errMany, "error shape is identical for one or N attempts")
}

func TestDo_TerminalErrorShortCircuits(t *testing.T) {
	sleeper := &testutil.FakeSleeper{}
	calls := 0

	_, err := retry.Do(context.Background(), retry.Config{Attempts: 10, BaseDelay: time.Second},
		func(context.Context) (int, error) {
			calls++
			return 0, provider.NewError("coingecko", "simple_price", 401, "bad api key")
		},
		retry.WithSleeper(sleeper),
	)

	require.Error(t, err)
	assert.Equal(t, 1, calls, "terminal failures get exactly one attempt")
	assert.Zero(t, sleeper.CallCount())

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 401, perr.Status)
}

func TestDo_ExponentialBackoffProgression(t *testing.T) {
	sleeper := &testutil.FakeSleeper{}

	_, err := retry.Do(context.Background(),
		retry.Config{Attempts: 3, BaseDelay: 100 * time.Millisecond, Backoff: true},
		func(context.Context) (int, error) {
			return 0, provider.NewNetworkError("rpc", "call", errors.New("timeout"))
		},
		retry.WithSleeper(sleeper),
	)

	require.Error(t, err)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, sleeper.Calls())
}

func TestDo_FlatDelayWithoutBackoff(t *testing.T) {
	sleeper := &testutil.FakeSleeper{}

	_, err := retry.Do(context.Background(),
		retry.Config{Attempts: 4, BaseDelay: 50 * time.Millisecond, Backoff: false},
		func(context.Context) (int, error) {
			return 0, provider.NewNetworkError("rpc", "call", errors.New("refused"))
		},
		retry.WithSleeper(sleeper),
	)

	require.Error(t, err)
	assert.Equal(t,
		[]time.Duration{50 * time.Millisecond, 50 * time.Millisecond, 50 * time.Millisecond},
		sleeper.Calls())
}

func TestDo_RetryAfterOverridesBackoff(t *testing.T) {
	sleeper := &testutil.FakeSleeper{}

	_, err := retry.Do(context.Background(),
		retry.Config{Attempts: 2, BaseDelay: 100 * time.Millisecond, Backoff: true},
		func(context.Context) (int, error) {
			return 0, provider.NewErrorWithRetry("coingecko", "simple_price", 429, "throttled", 5*time.Second)
		},
		retry.WithSleeper(sleeper),
	)

	require.Error(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second}, sleeper.Calls())
}

func TestDo_ZeroAttemptsBehavesAsOne(t *testing.T) {
	calls := 0

	_, err := retry.Do(context.Background(), retry.Config{Attempts: 0},
		func(context.Context) (int, error) {
			calls++
			return 0, provider.NewNetworkError("rpc", "call", errors.New("down"))
		},
		retry.WithSleeper(&testutil.FakeSleeper{}),
	)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledDelayStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := retry.Do(ctx, retry.Config{Attempts: 5, BaseDelay: time.Millisecond},
		func(context.Context) (int, error) {
			calls++
			cancel() // shutdown arrives while the delay is pending
			return 0, provider.NewNetworkError("rpc", "call", errors.New("down"))
		},
		retry.WithSleeper(&testutil.FakeSleeper{}),
	)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "the delay is abortable, the budget is abandoned")
}

func TestDo_OnRetryObservesAttempts(t *testing.T) {
	type observed struct {
		attempt int
		delay   time.Duration
	}
	var seen []observed

	_, err := retry.Do(context.Background(),
		retry.Config{Attempts: 3, BaseDelay: 100 * time.Millisecond, Backoff: true},
		func(context.Context) (int, error) {
			return 0, provider.NewNetworkError("rpc", "call", errors.New("down"))
		},
		retry.WithSleeper(&testutil.FakeSleeper{}),
		retry.OnRetry(func(attempt int, err error, delay time.Duration) {
			require.Error(t, err)
			seen = append(seen, observed{attempt, delay})
		}),
	)

	require.Error(t, err)
	assert.Equal(t, []observed{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
	}, seen)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil-ish plain error defaults transient", errors.New("http2: stream closed"), true},
		{"wrapped plain error", fmt.Errorf("fetch: %w", errors.New("conn reset")), true},
		{"network error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"status 500", provider.NewError("p", "op", 500, "internal"), true},
		{"status 503", provider.NewError("p", "op", 503, "unavailable"), true},
		{"status 429", provider.NewError("p", "op", 429, "throttled"), true},
		{"status 401", provider.NewError("p", "op", 401, "unauthorized"), false},
		{"status 403", provider.NewError("p", "op", 403, "forbidden"), false},
		{"status 404", provider.NewError("p", "op", 404, "not found"), false},
		{"status 400", provider.NewError("p", "op", 400, "bad request"), false},
		{"transport failure", provider.NewNetworkError("p", "op", errors.New("dns")), true},
		{"validation", provider.NewValidationError("address", "empty"), false},
		{"context canceled", context.Canceled, false},
		{"context deadline", context.DeadlineExceeded, false},
		{"circuit open", provider.ErrCircuitOpen, false},
		{"local rate limit", provider.ErrRateLimited, false},
		{"missing credentials", provider.ErrNoCredentials, false},
		{"oversized response", provider.ErrResponseTooLarge, false},
		{"wrapped circuit open", fmt.Errorf("send: %w", provider.ErrCircuitOpen), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retry.Retryable(tt.err))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := retry.DefaultConfig()
	assert.Equal(t, 3, cfg.Attempts)
	assert.Equal(t, time.Second, cfg.BaseDelay)
	assert.True(t, cfg.Backoff)
}
