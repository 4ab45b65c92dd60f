// breakwater-probe issues a burst of requests against a provider endpoint
// through the full resilience pipeline and prints the resulting metrics.
// Useful for smoke-testing credentials, rate policies, and retry behavior
// against a real or mock provider.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/breakwater-labs/breakwater/httpclient"
	"github.com/breakwater-labs/breakwater/provider"
	"github.com/breakwater-labs/breakwater/ratelimit"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "breakwater-probe:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real env vars win.
	_ = loadDotEnv(".env")

	cfg, err := loadProbeConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	clientCfg, err := httpclient.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.RateLimit > 0 {
		clientCfg.RateLimits = map[string]ratelimit.Policy{
			rateKey: {Limit: cfg.RateLimit, Window: cfg.RateWindow},
		}
	}

	client, err := httpclient.NewFromConfig("probe", clientCfg, httpclient.WithLogger(logger))
	if err != nil {
		return err
	}
	defer client.Close()

	var reqOpts []httpclient.RequestOption
	if cfg.APIKey != "" {
		cred := provider.Credential{
			APIKey:     provider.Secret(cfg.APIKey),
			HeaderName: cfg.APIKeyHeader,
		}
		if err := client.SetCredentials(cfg.Provider, cred); err != nil {
			return err
		}
		reqOpts = append(reqOpts, httpclient.WithProviderAuth(cfg.Provider))
	}
	if cfg.RateLimit > 0 {
		reqOpts = append(reqOpts, httpclient.WithRateKey(rateKey))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("probing", "url", cfg.TargetURL, "requests", cfg.Requests)

	for i := 0; i < cfg.Requests; i++ {
		start := time.Now()
		resp, err := client.Get(ctx, cfg.TargetURL, reqOpts...)
		switch {
		case err != nil:
			logger.Warn("request failed", "n", i+1, "error", err)
		default:
			logger.Info("request ok",
				"n", i+1,
				"status", resp.Status,
				"bytes", len(resp.Body),
				"elapsed", time.Since(start),
			)
		}

		if ctx.Err() != nil {
			break
		}
		if cfg.Interval > 0 && i+1 < cfg.Requests {
			select {
			case <-ctx.Done():
			case <-time.After(cfg.Interval):
			}
		}
	}

	return printMetrics(client)
}

func printMetrics(client *httpclient.Client) error {
	m := client.Metrics()
	out := map[string]any{
		"requests":            m.Requests,
		"errors":              m.Errors,
		"cache_hits":          m.CacheHits,
		"cache_misses":        m.CacheMisses,
		"rate_limit_exceeded": m.RateLimitExceeded,
		"average_latency_ms":  m.AverageLatency().Milliseconds(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
