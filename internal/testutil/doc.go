// Package testutil provides testing utilities for breakwater.
//
// This package is intended for internal testing only and should not be
// imported by external packages.
//
// # Mock Provider Server
//
// MockProviderServer stands in for an upstream data provider:
//
//	server := testutil.NewMockServer(t)
//	server.On("GET", "/v1/price", func(w http.ResponseWriter, r *http.Request) {
//	    testutil.ReplyPrice(w, "ETH", 2514.31)
//	})
//	// Use server.BaseURL() as the provider base URL
//
// # Request Capture
//
// All requests are automatically captured and can be inspected:
//
//	cap := server.LastCapture()
//	cap.AssertMethod(t, "GET")
//	cap.AssertHeader(t, "X-API-Key", testutil.TestAPIKey)
//
// # Fake Time
//
// FakeSleeper records retry waits without actually sleeping; FakeClock is a
// manually advanced time source for TTL and rate-window tests:
//
//	sleeper := &testutil.FakeSleeper{}
//	assert.Equal(t, 2*time.Second, sleeper.LastCall())
//
//	clock := testutil.NewFakeClock(time.Now())
//	clock.Advance(time.Minute)
//
// # Test Fixtures
//
// Common test data is available:
//
//	testutil.TestProvider     // Provider name
//	testutil.TestAPIKey       // API key value
//	testutil.TestCredential() // Header-carried credential fixture
package testutil
