/*
errors.go - Error taxonomy for ledger operations

PURPOSE:
  Every failure a caller can see falls into one of four buckets, and the
  API layer maps each bucket to an HTTP status:

    Validation    (bad input, unknown tenor, empty reason)    -> 400
    Authorization (wrong role, order not assigned to caller)  -> 403
    Not found     (order/product missing)                     -> 404
    State conflict (already Lunas, concurrent modification)   -> 409

  Collaborator failures (holiday lookup) are NOT in the taxonomy: they are
  recovered locally with an empty holiday set and logged, never surfaced.

USAGE:
  Sentinels are matched with errors.Is; structured errors add context and
  Unwrap to their sentinel.
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrOrderNotFound is returned when the referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrNotAssigned is returned when a collector acts on an order that is
	// not assigned to them. Authorization failure, distinct from validation.
	ErrNotAssigned = errors.New("order not assigned to this collector")

	// ErrForbidden is returned when the caller's role may not perform the
	// operation at all.
	ErrForbidden = errors.New("role not permitted")

	// ErrAlreadyPaidOff is returned by RecordPayment when the ledger is
	// already full. No mutation is applied; this is a state conflict, not
	// an error in the books.
	ErrAlreadyPaidOff = errors.New("order already paid in full")

	// ErrConcurrentModification is returned when the conditional save
	// detects that another request mutated the order first. Safe to retry
	// after re-reading.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrEmptyReason is returned when a visit note carries no reason.
	ErrEmptyReason = errors.New("visit reason must not be empty")

	// ErrInvalidTransition is returned for a status change the lifecycle
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrIncompleteCollector is returned when a collector assignment is
	// missing the uid or the display name. Both are set together or not
	// at all.
	ErrIncompleteCollector = errors.New("collector uid and name are both required")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// TransitionError reports a rejected lifecycle change with both states.
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// TAXONOMY HELPERS
// =============================================================================

// IsRetryable reports whether the operation might succeed if retried
// against re-read state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsAuthorization reports whether the failure is about who the caller is,
// not what they sent.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNotAssigned) || errors.Is(err, ErrForbidden)
}

// IsConflict reports a state conflict: the request was well-formed and
// authorized but the order's current state rejects it.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyPaidOff) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrConcurrentModification)
}

// IsNotFound reports a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}
