package interactions

import "errors"

var (
	// ErrNotFound is returned when an interaction id does not exist.
	ErrNotFound = errors.New("interaction not found")
	// ErrInvalidTransition is returned when a lifecycle rule is violated,
	// e.g. activating an interaction that has already ended. Interactions
	// progress one way: draft, active, ended.
	ErrInvalidTransition = errors.New("invalid interaction transition")
	// ErrDone is returned by Advance when a webinar has no drafts left and
	// nothing active to end.
	ErrDone = errors.New("no interactions left to advance to")
)
