package pipeline

import "errors"

// Sentinel errors for pipeline-fatal conditions (spec.md §7 "Fatal
// errors"). Transient conditions (NOT_FOUND, load failure, lock
// contention) are never surfaced as errors — they are swallowed per RP,
// as spec.md §7 "Propagation" requires.
var (
	// ErrInvariantBreach signals a broken structural invariant (e.g. a
	// comparator asked to order a malformed sort value).
	ErrInvariantBreach = errors.New("pipeline: invariant breach")
	// ErrAllocationFailed signals the pipeline could not grow an internal
	// buffer or heap.
	ErrAllocationFailed = errors.New("pipeline: allocation failed")
)

// Error wraps a fatal error with the RP that produced it, for the
// handle's err slot and for log fields. Modeled on the teacher SDK's
// internal/db.Error{Op, Err}.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
