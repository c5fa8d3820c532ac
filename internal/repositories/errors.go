package repositories

import "errors"

// Sentinel errors shared by all repository implementations. Callers
// match with errors.Is; the concrete message still carries the entity
// and id for logging.
var (
	// ErrNotFound is returned when the requested row does not exist or
	// is not visible to the requesting user.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write lost a race, e.g. a second
	// checkout finding the cart already emptied.
	ErrConflict = errors.New("conflicting concurrent update")
)
