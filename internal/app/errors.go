package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateOverride   = errors.New("override already exists for that date and engineer")
	ErrRotationUnavailable = errors.New("rotation configuration unavailable")
)
