// Package permit implements the core of the travel-permit system: the
// correlative issuer, the permit lifecycle manager and the identity
// propagation engine.  It talks to persistence only through the Store
// interface so that the same rules run against MySQL in production and
// against the in-memory store in tests.
package permit

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when the referenced permit or correlative does
// not exist.  Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("permit not found")

// ErrDuplicateCorrelative is returned when a (year, sequence number) pair
// is already taken.  The issuer's serialization makes this unreachable in
// practice; the unique key on (year, sequence_number) still enforces it.
var ErrDuplicateCorrelative = errors.New("correlative already exists")

// ErrAlreadyVoided is returned by Void when the permit is already voided.
var ErrAlreadyVoided = errors.New("permit already voided")

// ErrVoidedImmutable is returned when an edit or regeneration is attempted
// against a voided permit.  Voided records are permanently read-only for
// content operations; only identity propagation may still touch them.
var ErrVoidedImmutable = errors.New("voided permit is read-only")

// ErrRetryableStorage signals transient storage contention (lock wait
// timeout, deadlock, cancelled context).  Callers may retry with backoff;
// handlers surface it as HTTP 503 with a "try again" message.
var ErrRetryableStorage = errors.New("storage busy, try again")

// ErrMarkerNotFound is returned when unhiding an identity that has no
// suppression marker.
var ErrMarkerNotFound = errors.New("suppressed identity not found")

// ValidationError carries the full list of user-facing reasons a request
// was rejected.  Validation fails closed: all reasons are collected before
// any write occurs.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

// AsValidation unwraps err into a *ValidationError when possible.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
