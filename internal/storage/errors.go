package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrInvalidRow indicates a row failed validation before insert.
	ErrInvalidRow = errors.New("storage: invalid row")
)
