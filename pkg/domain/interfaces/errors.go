package interfaces

import "errors"

// Sentinel errors shared by all repository backends
var (
	// ErrNotFound means the requested entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrStatusConflict means a compare-and-set status update lost the race:
	// the case's stored status no longer matches the expected one.
	ErrStatusConflict = errors.New("case status conflict")
)
