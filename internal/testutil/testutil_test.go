package testutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breakwater-labs/breakwater/internal/testutil"
)

func TestMockServer_CapturesRequests(t *testing.T) {
	server := testutil.NewMockServer(t)

	resp, err := http.Get(server.BaseURL() + "/v1/price")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1, server.CaptureCount())

	cap := server.LastCapture()
	require.NotNil(t, cap)
	assert.Equal(t, "GET", cap.Method)
	assert.Equal(t, "/v1/price", cap.Path)
}

func TestMockServer_CustomHandler(t *testing.T) {
	server := testutil.NewMockServer(t)

	server.OnGet("/v1/price", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyPrice(w, testutil.TestSymbol, testutil.TestPrice)
	})

	resp, err := http.Get(server.BaseURL() + "/v1/price")
	require.NoError(t, err)
	defer resp.Body.Close()

	var quote map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&quote))
	assert.Equal(t, testutil.TestSymbol, quote["symbol"])
	assert.Equal(t, testutil.TestPrice, quote["price"])
}

func TestMockServer_DefaultSuccess(t *testing.T) {
	server := testutil.NewMockServer(t)

	// No handler registered - should return default success
	resp, err := http.Get(server.BaseURL() + "/unknown")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMockServer_Reset(t *testing.T) {
	server := testutil.NewMockServer(t)

	resp1, _ := http.Get(server.BaseURL() + "/test1")
	if resp1 != nil {
		resp1.Body.Close()
	}
	resp2, _ := http.Get(server.BaseURL() + "/test2")
	if resp2 != nil {
		resp2.Body.Close()
	}

	assert.Equal(t, 2, server.CaptureCount())

	server.Reset()

	assert.Equal(t, 0, server.CaptureCount())
}

func TestReplyRateLimited(t *testing.T) {
	server := testutil.NewMockServer(t)

	server.OnGet("/test", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyRateLimited(w, 5)
	})

	resp, err := http.Get(server.BaseURL() + "/test")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "5", resp.Header.Get("Retry-After"))

	var body testutil.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "too many requests", body.Error)
}

func TestReplyError(t *testing.T) {
	server := testutil.NewMockServer(t)

	server.OnGet("/test", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyError(w, 502, "bad gateway")
	})

	resp, err := http.Get(server.BaseURL() + "/test")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 502, resp.StatusCode)

	var body testutil.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "bad gateway", body.Error)
}

func TestFakeSleeper_RecordsCalls(t *testing.T) {
	sleeper := &testutil.FakeSleeper{}
	ctx := context.Background()

	err := sleeper.Sleep(ctx, 100*time.Millisecond)
	require.NoError(t, err)

	err = sleeper.Sleep(ctx, 200*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, 2, sleeper.CallCount())
	assert.Equal(t, 100*time.Millisecond, sleeper.CallAt(0))
	assert.Equal(t, 200*time.Millisecond, sleeper.CallAt(1))
	assert.Equal(t, 200*time.Millisecond, sleeper.LastCall())
	assert.Equal(t, 300*time.Millisecond, sleeper.TotalDuration())
}

func TestFakeSleeper_RespectsContextCancel(t *testing.T) {
	sleeper := &testutil.FakeSleeper{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := sleeper.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, sleeper.CallCount()) // Should not record cancelled sleep
}

func TestRealSleeper_RespectsContextCancel(t *testing.T) {
	sleeper := testutil.RealSleeper{}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := sleeper.Sleep(ctx, time.Hour)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, elapsed, 100*time.Millisecond) // Should exit quickly
}

func TestFakeClock_AdvanceAndSet(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := testutil.NewFakeClock(start)

	assert.Equal(t, start, clock.Now())

	clock.Advance(time.Minute)
	assert.Equal(t, start.Add(time.Minute), clock.Now())

	later := start.Add(time.Hour)
	clock.Set(later)
	assert.Equal(t, later, clock.Now())
}

func TestCapture_Assertions(t *testing.T) {
	server := testutil.NewMockServer(t)

	req, _ := http.NewRequest("GET", server.BaseURL()+"/v1/price?symbol=ETH", nil)
	req.Header.Set("X-API-Key", testutil.TestAPIKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	cap := server.LastCapture()
	require.NotNil(t, cap)

	cap.AssertMethod(t, "GET")
	cap.AssertPath(t, "/v1/price")
	cap.AssertHeader(t, "X-API-Key", testutil.TestAPIKey)
	cap.AssertQuery(t, "symbol", "ETH")
	assert.True(t, cap.HasQuery("symbol"))
	assert.Equal(t, "ETH", cap.GetQuery("symbol"))

	// Body assertions
	server.ResetCaptures()

	resp, _ = http.Post(
		server.BaseURL()+"/v1/orders",
		"application/json",
		jsonReader(map[string]any{"symbol": "ETH", "amount": float64(2)}),
	)
	resp.Body.Close()

	cap = server.LastCapture()
	cap.AssertContentType(t, "application/json")
	cap.AssertJSONField(t, "symbol", "ETH")
	cap.AssertJSONField(t, "amount", float64(2))
	cap.AssertJSONFieldExists(t, "symbol")
	cap.AssertJSONFieldAbsent(t, "side")
}

func TestFixtures(t *testing.T) {
	cred := testutil.TestCredential()
	assert.Equal(t, testutil.TestAPIKey, cred.APIKey.Value())
	assert.Equal(t, "X-API-Key", cred.HeaderName)

	bearer := testutil.TestBearerCredential()
	assert.Empty(t, bearer.HeaderName)
	assert.Empty(t, bearer.QueryParam)

	query := testutil.TestQueryCredential()
	assert.Equal(t, "apikey", query.QueryParam)

	quote := testutil.TestQuote()
	assert.Equal(t, testutil.TestSymbol, quote["symbol"])
}

// Helper to create JSON reader
func jsonReader(v any) *bytes.Buffer {
	data, _ := json.Marshal(v)
	return bytes.NewBuffer(data)
}
