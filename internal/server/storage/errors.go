package storage

import "errors"

// Common storage errors
var (
	// ErrEntityNotFound indicates that the entity does not exist
	ErrEntityNotFound = errors.New("entity not found")

	// ErrInvalidFilter indicates that a filter key cannot be used in a query
	ErrInvalidFilter = errors.New("invalid filter")
)
