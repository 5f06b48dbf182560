package blockview

import "fmt"

// Error is a sentinel error kind raised by this package. All of them are
// ordinary results, never panics; the one exception is a handful of
// programmer-error invariants (a view built with a non-positive dimension)
// which panic because no caller can recover from them meaningfully.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrOutOfBounds is returned when a coordinate falls outside a view's
	// bounding box.
	ErrOutOfBounds Error = "blockview: position out of bounds"
	// ErrNoSuchBlock is returned by a dig or override operation on a cell
	// that carries no override.
	ErrNoSuchBlock Error = "blockview: no override at position"
	// ErrCapacityExhausted is returned when a BlockDataRegistry has interned
	// its maximum number of distinct serialisations.
	ErrCapacityExhausted Error = "blockview: registry id space exhausted"
	// ErrIsPlaceholder is returned when a placeholder view is registered or
	// given an audience.
	ErrIsPlaceholder Error = "blockview: view is a placeholder"
	// ErrDuplicateView is returned on a view id collision during
	// registration.
	ErrDuplicateView Error = "blockview: view id already registered"
	// ErrUnauthorized is returned when a dig completion/cancellation is
	// attempted by a player other than the session's last damager.
	ErrUnauthorized Error = "blockview: caller does not own the active dig session"
	// ErrCancelled is returned when an event subscriber vetoes the action
	// that would have produced it.
	ErrCancelled Error = "blockview: action cancelled by an event subscriber"
)

// withPos wraps a base Error with positional context. It still satisfies
// errors.Is against the base sentinel via %w.
func withPos(base Error, pos BlockPosition) error {
	return fmt.Errorf("%w: %s", base, pos)
}
