package storage

import "errors"

// Common client storage errors
var (
	// ErrCacheNotFound indicates that no cache record exists for the entity type
	ErrCacheNotFound = errors.New("cache record not found")

	// ErrTokenNotFound indicates that no access token is stored
	ErrTokenNotFound = errors.New("access token not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
