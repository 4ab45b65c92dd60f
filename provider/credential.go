package provider

import (
	"log/slog"
	"maps"
)

// Secret wraps a credential value to prevent accidental logging.
// Implements fmt.Stringer, fmt.GoStringer, slog.LogValuer, and encoding.TextMarshaler.
type Secret string

// Value returns the actual secret value.
// Only use this when building an outbound request.
func (s Secret) Value() string { return string(s) }

// String returns a redacted placeholder (fmt.Stringer).
func (s Secret) String() string { return "[REDACTED]" }

// GoString returns redacted for %#v (fmt.GoStringer).
func (s Secret) GoString() string { return `provider.Secret("[REDACTED]")` }

// LogValue returns a redacted value for slog (slog.LogValuer).
func (s Secret) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}

// MarshalText returns redacted bytes (encoding.TextMarshaler).
// Prevents accidental JSON/YAML serialization of the secret.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// IsEmpty returns true if the secret is empty.
func (s Secret) IsEmpty() bool { return s == "" }

// Credential holds what a provider needs to authenticate our requests.
// The credential store hands out clones only, so callers can never
// alias-mutate a stored credential. See Clone.
type Credential struct {
	// APIKey is the provider-issued key or token.
	APIKey Secret

	// HeaderName carries the key in a request header when set,
	// e.g. "X-API-Key". Empty means "Authorization: Bearer <key>".
	HeaderName string

	// QueryParam carries the key as a URL query parameter when set,
	// e.g. "apikey". Takes effect only when HeaderName is empty.
	QueryParam string

	// Headers are extra provider-specific headers sent with every request.
	Headers map[string]string
}

// Clone returns a structural copy sharing no mutable state with c.
func (c Credential) Clone() Credential {
	out := c
	if c.Headers != nil {
		out.Headers = maps.Clone(c.Headers)
	}
	return out
}

// IsZero reports whether the credential carries nothing.
func (c Credential) IsZero() bool {
	return c.APIKey.IsEmpty() && c.HeaderName == "" && c.QueryParam == "" && len(c.Headers) == 0
}
