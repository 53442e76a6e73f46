package storage

import (
	"context"

	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

//go:generate moq -out cache_mock.go . CacheStorage

// CacheStorage defines interface for the persisted per-type snapshot cache
// Records are shared by every engine instance opened on the same database
type CacheStorage interface {
	// SaveCache stores the snapshot for the entity type, overwriting any previous one
	SaveCache(ctx context.Context, entityType api.EntityType, record *CacheRecord) error

	// GetCache retrieves the snapshot for the entity type
	// Returns ErrCacheNotFound if nothing was cached yet
	GetCache(ctx context.Context, entityType api.EntityType) (*CacheRecord, error)

	// DeleteCache removes the snapshot for the entity type
	DeleteCache(ctx context.Context, entityType api.EntityType) error

	// ClearCache removes every cached snapshot
	ClearCache(ctx context.Context) error

	// ListCached returns entity types that currently have a snapshot
	ListCached(ctx context.Context) ([]api.EntityType, error)
}

// CacheRecord is the persisted snapshot of one entity type
// Timestamp is the capture time in unix milliseconds
type CacheRecord struct {
	Data      []models.Entity `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// CacheKey returns the durable key of an entity type snapshot
func CacheKey(entityType api.EntityType) string {
	return "state_" + string(entityType)
}
