package progress

import "errors"

// Sentinel errors for the progress store.
var (
	// ErrCorruptRecord is returned when a persisted progress record cannot be
	// decoded. The record is left untouched; it is never reset silently.
	ErrCorruptRecord = errors.New("corrupt progress record")
)
