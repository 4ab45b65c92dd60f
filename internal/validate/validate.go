// Package validate provides input validation helpers. All failures are
// *provider.ValidationError so callers and the retry layer treat them
// uniformly as terminal.
package validate

import (
	"strings"

	"github.com/breakwater-labs/breakwater/provider"
)

// Key validates a cache or rate-limit key.
func Key(key string) error {
	if key == "" {
		return provider.NewValidationError("key", "cannot be empty")
	}
	return nil
}

// Provider validates a provider name.
func Provider(name string) error {
	if name == "" {
		return provider.NewValidationError("provider", "cannot be empty")
	}
	if strings.ContainsAny(name, " \t\n") {
		return provider.NewValidationError("provider", "cannot contain whitespace")
	}
	return nil
}

// URL validates an outbound request URL.
func URL(raw string) error {
	if raw == "" {
		return provider.NewValidationError("url", "cannot be empty")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return provider.NewValidationError("url", "must start with http:// or https://")
	}
	return nil
}

// Method validates an HTTP method.
func Method(method string) error {
	if method == "" {
		return provider.NewValidationError("method", "cannot be empty")
	}
	return nil
}

// Positive validates that a value is positive.
func Positive(field string, value int) error {
	if value <= 0 {
		return provider.NewValidationError(field, "must be positive")
	}
	return nil
}

// NonNegative validates that a value is non-negative.
func NonNegative(field string, value int) error {
	if value < 0 {
		return provider.NewValidationError(field, "cannot be negative")
	}
	return nil
}
