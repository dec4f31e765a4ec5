package errs

import "errors"

// Sentinel errors mapped to HTTP codes (or drop-with-warning) in handlers.
var (
	ErrUnknownSheet   = errors.New("unknown sheet")
	ErrInvalidProfile = errors.New("name and role required")
)
