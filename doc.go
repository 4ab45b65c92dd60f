// Package breakwater is a resilience layer for services that query
// unreliable, rate-limited data providers such as RPC nodes, price oracles,
// and lending-protocol APIs.
//
// Every outbound call passes through the same three capabilities: an
// eviction-aware cache, a per-key sliding-window rate limiter, and a
// bounded-attempt retry executor with structured error classification. A
// Service composes them with aggregate metrics; the httpclient subpackage
// specializes the composition for credentialed outbound HTTP.
//
// # Quick Start
//
//	svc, err := breakwater.New("pricefeed",
//	    breakwater.WithRateLimit("oracle:prices", 10, time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	price, err := breakwater.Fetch(ctx, svc, "price:ETH", 30*time.Second,
//	    func(ctx context.Context) (float64, error) {
//	        return oracle.SpotPrice(ctx, "ETH")
//	    })
//
// # Individual Capabilities
//
// Each leaf is usable on its own:
//
//	import "github.com/breakwater-labs/breakwater/cache"
//	store := cache.New(cache.DefaultConfig())
//
//	import "github.com/breakwater-labs/breakwater/ratelimit"
//	window := ratelimit.NewWindow()
//
//	import "github.com/breakwater-labs/breakwater/retry"
//	out, err := retry.Do(ctx, retry.DefaultConfig(), op)
//
// # Outbound HTTP
//
// The httpclient subpackage adds per-provider credential storage,
// endpoint-keyed rate limiting, and status-based retry classification:
//
//	import "github.com/breakwater-labs/breakwater/httpclient"
//	client, _ := httpclient.New("coingecko")
//	client.SetCredentials("coingecko", provider.Credential{APIKey: key})
//
// # Features
//
//   - Strict LRU cache with per-entry TTL, entry-count and memory ceilings
//   - Per-key sliding-window rate limiting with check-only probes
//   - Retry with exponential backoff, Retry-After awareness, and terminal
//     short-circuit
//   - Circuit breaker with sony/gobreaker
//   - Credential isolation and secret auto-redaction in logs and errors
//   - Structured logging with slog
//   - TLS 1.2+ enforcement
package breakwater
