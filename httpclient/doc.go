// Package httpclient provides a credentialed HTTP client for upstream data
// providers, built on the breakwater resilience capabilities: per-provider
// credential storage with copy-in/copy-out isolation, endpoint-keyed
// sliding-window rate limiting, retry with structured status classification,
// and an optional circuit breaker and smooth pacer around the send path.
package httpclient
