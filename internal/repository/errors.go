// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrConflict signals that a conditional update
// lost a race or found the row in an unexpected state.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a conditional update affected zero rows:
// either the row was never in the required state or a concurrent request
// transitioned it first. Conflicts are expected, recoverable outcomes,
// never server errors.
var ErrConflict = errors.New("conflict")

// ErrInvalidToken is the single signal for every link-token failure:
// unknown hash, wrong purpose, wrong lesson, expired, already used, or
// lesson in an incompatible status. Collapsing these avoids leaking
// which check failed.
var ErrInvalidToken = errors.New("invalid token")

// ErrNoPrice is returned when no active price-list entry matches the
// requested tutor, lesson type and duration combination.
var ErrNoPrice = errors.New("no matching price")
