package storage

import (
	"context"

	"github.com/iudanet/tripsync/pkg/api"
)

//go:generate moq -out metadata_mock.go . MetadataStorage

// MetadataStorage defines interface for storing client metadata
type MetadataStorage interface {
	// SaveLastPollTimestamp saves the unix millis of the last successful poll of the entity type
	SaveLastPollTimestamp(ctx context.Context, entityType api.EntityType, timestamp int64) error

	// GetLastPollTimestamp retrieves the timestamp of the last successful poll
	// Returns 0 if the entity type was never polled
	GetLastPollTimestamp(ctx context.Context, entityType api.EntityType) (int64, error)
}
