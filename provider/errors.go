package provider

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors - use with errors.Is()
var (
	// Client-side errors, raised before any transport attempt.
	ErrRateLimited   = errors.New("breakwater: rate limit exceeded")
	ErrNoCredentials = errors.New("breakwater: no credentials stored for provider")
	ErrCircuitOpen   = errors.New("breakwater: circuit breaker open")

	// Transport-side errors.
	ErrResponseTooLarge = errors.New("breakwater: response too large")

	// Upstream status classes. Error values produced from a response
	// status unwrap to one of these.
	ErrUnauthorized = errors.New("breakwater: unauthorized")
	ErrForbidden    = errors.New("breakwater: forbidden")
	ErrNotFound     = errors.New("breakwater: not found")
	ErrThrottled    = errors.New("breakwater: provider throttled request")
	ErrUnavailable  = errors.New("breakwater: provider unavailable")
)

// Kind classifies an upstream failure. The retry layer decides on Kind,
// never on message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork        // connection failure, reset, transport timeout
	KindThrottled      // provider returned 429
	KindUnavailable    // provider returned 5xx
	KindAuth           // provider rejected credentials (401, 403)
	KindBadRequest     // provider rejected the request shape (other 4xx)
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindThrottled:
		return "throttled"
	case KindUnavailable:
		return "unavailable"
	case KindAuth:
		return "auth"
	case KindBadRequest:
		return "bad_request"
	default:
		return "unknown"
	}
}

// KindFromStatus maps an HTTP status code to a failure kind.
// A zero status means the request never produced a response.
func KindFromStatus(status int) Kind {
	switch {
	case status == 0:
		return KindNetwork
	case status == 429:
		return KindThrottled
	case status >= 500:
		return KindUnavailable
	case status == 401 || status == 403:
		return KindAuth
	case status >= 400:
		return KindBadRequest
	default:
		return KindUnknown
	}
}

// Error represents a failed call to an upstream provider.
// Use errors.As() to extract details, errors.Is() to match sentinels.
type Error struct {
	Provider   string        // provider name, e.g. "coingecko"
	Op         string        // operation that failed, e.g. "GET /simple/price"
	Status     int           // HTTP status, 0 when no response arrived
	Kind       Kind          // classification used by the retry layer
	Message    string        // upstream description, scrubbed of secrets
	RetryAfter time.Duration // provider-requested wait, 0 when absent
	cause      error         // underlying sentinel or transport error
}

func (e *Error) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("breakwater: %s %s failed: %s (status=%d, retry_after=%s)",
			e.Provider, e.Op, e.Message, e.Status, e.RetryAfter)
	}
	return fmt.Sprintf("breakwater: %s %s failed: %s (status=%d)", e.Provider, e.Op, e.Message, e.Status)
}

// Unwrap returns the underlying sentinel or cause for errors.Is() support.
func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether the failure is transient and may succeed on retry.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindThrottled, KindUnavailable:
		return true
	case KindAuth, KindBadRequest:
		return false
	}
	return e.Status == 0 || e.Status == 429 || (e.Status >= 500 && e.Status <= 504)
}

// NewError creates an Error classified from the HTTP status.
func NewError(name, op string, status int, message string) *Error {
	return &Error{
		Provider: name,
		Op:       op,
		Status:   status,
		Kind:     KindFromStatus(status),
		Message:  message,
		cause:    sentinelForStatus(status),
	}
}

// NewErrorWithRetry creates an Error carrying a provider-requested wait.
func NewErrorWithRetry(name, op string, status int, message string, retryAfter time.Duration) *Error {
	e := NewError(name, op, status, message)
	e.RetryAfter = retryAfter
	return e
}

// NewNetworkError creates an Error for a request that produced no response.
// The cause is preserved so errors.Is/As reach the transport error.
func NewNetworkError(name, op string, cause error) *Error {
	return &Error{
		Provider: name,
		Op:       op,
		Kind:     KindNetwork,
		Message:  cause.Error(),
		cause:    cause,
	}
}

func sentinelForStatus(status int) error {
	switch {
	case status == 401:
		return ErrUnauthorized
	case status == 403:
		return ErrForbidden
	case status == 404:
		return ErrNotFound
	case status == 429:
		return ErrThrottled
	case status >= 500:
		return ErrUnavailable
	}
	return nil
}

// ValidationError represents a rejected input: malformed key, provider
// name, or credential. Validation failures are never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("breakwater: validation: %s - %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
