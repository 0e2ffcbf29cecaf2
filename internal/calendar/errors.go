package calendar

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth indicates expired or revoked credentials for one user. That
	// user is skipped; the rest of the fan-out continues.
	ErrAuth = errors.New("calendar: credentials expired or revoked")

	// ErrEventNotFound indicates the remote event no longer exists.
	ErrEventNotFound = errors.New("calendar: remote event not found")

	// ErrNotConnected indicates the user has no calendar connection.
	ErrNotConnected = errors.New("calendar: user has no calendar connection")

	// ErrReferenceNotFound indicates no stored event reference for the
	// (appointment, user) pair.
	ErrReferenceNotFound = errors.New("calendar: event reference not found")
)

// ValidationError reports a malformed appointment payload. It surfaces to the
// caller as HTTP 400 before any remote call is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("calendar: invalid %s: %s", e.Field, e.Reason)
}

// IsRetryable reports whether a remote failure is worth another attempt.
// Auth failures and missing events have well-defined handling paths and are
// never retried; everything else (rate limits, network, timeouts) is treated
// as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuth) || errors.Is(err, ErrEventNotFound) {
		return false
	}
	var ve *ValidationError
	return !errors.As(err, &ve)
}
