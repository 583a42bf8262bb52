package calls

import "errors"

var (
	// ErrCallNotFound is returned when no call matches the lookup.
	ErrCallNotFound = errors.New("calls: call not found")
	// ErrCallFinalized is returned when an update targets a terminal call.
	ErrCallFinalized = errors.New("calls: call already finalized")
)
