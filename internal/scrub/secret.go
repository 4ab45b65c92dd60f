// Package scrub provides security helpers for removing sensitive data from errors.
package scrub

import (
	"strings"

	"github.com/breakwater-labs/breakwater/provider"
)

// SecretFromError removes credential material from error messages.
// Go's http.Client.Do() includes the request URL (which may carry an API key
// as a query parameter) in error strings.
// Preserves the error chain for errors.Is/As via Unwrap().
func SecretFromError(err error, secrets ...provider.Secret) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	scrubbed := msg
	for _, s := range secrets {
		val := s.Value()
		if val == "" {
			continue
		}
		scrubbed = strings.ReplaceAll(scrubbed, val, "[REDACTED]")
	}
	if scrubbed == msg {
		return err
	}
	return &scrubbedError{msg: scrubbed, err: err}
}

// String removes credential material from an arbitrary string, for log fields
// that embed URLs.
func String(s string, secrets ...provider.Secret) string {
	for _, sec := range secrets {
		val := sec.Value()
		if val == "" {
			continue
		}
		s = strings.ReplaceAll(s, val, "[REDACTED]")
	}
	return s
}

type scrubbedError struct {
	msg string
	err error
}

func (e *scrubbedError) Error() string { return e.msg }
func (e *scrubbedError) Unwrap() error { return e.err }
