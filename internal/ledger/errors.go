package ledger

import "errors"

var (
	// ErrNotFound is returned when a job or application id was never issued.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when applying to a closed listing.
	ErrInvalidState = errors.New("invalid state")
)
