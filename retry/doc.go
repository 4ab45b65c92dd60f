// Package retry runs operations with a bounded attempt budget and
// exponential or flat backoff, short-circuiting on errors that are
// structurally terminal. Classification reads the status and kind fields of
// provider errors, never message text.
package retry
