package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	// ErrNotFound is returned where a missing campaign is a caller error,
	// such as exporting or resuming a deleted campaign. Get itself returns
	// (nil, nil).
	ErrNotFound = errors.New("campaign not found")
	// ErrInvalid wraps Create input validation failures.
	ErrInvalid = errors.New("invalid campaign")
	// ErrCorruptList is returned when the stored campaign list cannot be
	// decoded.
	ErrCorruptList = errors.New("corrupt campaign list")
)
