package storage

import (
	"context"

	"github.com/iudanet/tripsync/internal/models"
)

// EntityStorage defines persistence for catalog entities
// Entities are grouped by type; every type is an independent collection.
type EntityStorage interface {
	// List returns entities of the type, newest first
	// Filters match top-level fields by string equality
	// Returns empty slice if nothing matches
	List(ctx context.Context, entityType string, filters map[string]string) ([]models.Entity, error)

	// Get retrieves a single entity
	// Returns ErrEntityNotFound if entity doesn't exist
	Get(ctx context.Context, entityType, id string) (models.Entity, error)

	// Create assigns id, created_at and updated_at and stores the entity
	Create(ctx context.Context, entityType string, data models.Entity) (models.Entity, error)

	// Update merges the patch into the stored entity and bumps updated_at
	// Returns ErrEntityNotFound if entity doesn't exist
	Update(ctx context.Context, entityType, id string, patch models.Entity) (models.Entity, error)

	// Delete removes the entity
	// Returns ErrEntityNotFound if entity doesn't exist
	Delete(ctx context.Context, entityType, id string) error
}
