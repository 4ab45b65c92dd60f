package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// rateKey is the single rate-limit key the probe gates its requests on.
const rateKey = "probe:target"

// probeConfig holds probe settings, loaded from PROBE_* environment
// variables. Client-level settings (timeouts, retry budget, breaker) come
// from the BREAKWATER_* variables read by httpclient.LoadConfig.
type probeConfig struct {
	TargetURL    string        `env:"PROBE_TARGET_URL"`
	Requests     int           `env:"PROBE_REQUESTS" envDefault:"10"`
	Interval     time.Duration `env:"PROBE_INTERVAL" envDefault:"100ms"`
	Provider     string        `env:"PROBE_PROVIDER" envDefault:"probe"`
	APIKey       string        `env:"PROBE_API_KEY"`
	APIKeyHeader string        `env:"PROBE_API_KEY_HEADER"`
	RateLimit    int           `env:"PROBE_RATE_LIMIT"`
	RateWindow   time.Duration `env:"PROBE_RATE_WINDOW" envDefault:"1s"`
	LogLevel     string        `env:"PROBE_LOG_LEVEL" envDefault:"info"`
}

func loadProbeConfig() (probeConfig, error) {
	var cfg probeConfig
	if err := env.Parse(&cfg); err != nil {
		return probeConfig{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.TargetURL == "" {
		return probeConfig{}, fmt.Errorf("PROBE_TARGET_URL required")
	}
	if cfg.Requests <= 0 {
		return probeConfig{}, fmt.Errorf("PROBE_REQUESTS must be positive")
	}
	return cfg, nil
}
