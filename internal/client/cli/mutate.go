package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/tripsync/internal/validation"
	"github.com/iudanet/tripsync/pkg/api"
)

func (c *Cli) runCreate(ctx context.Context, entityType api.EntityType, raw string) error {
	data, err := parseEntityData(raw)
	if err != nil {
		return err
	}

	created, err := c.engine.Store.Create(ctx, entityType, data)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", entityType, err)
	}

	c.io.Println(fmt.Sprintf("✓ Created %s/%s", entityType, created.ID()))
	return nil
}

func (c *Cli) runUpdate(ctx context.Context, entityType api.EntityType, id string, raw string) error {
	if err := validation.ValidateEntityID(id); err != nil {
		return fmt.Errorf("invalid entity id: %w", err)
	}
	patch, err := parseEntityData(raw)
	if err != nil {
		return err
	}

	updated, err := c.engine.Store.Update(ctx, entityType, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", entityType, id, err)
	}

	c.io.Println(fmt.Sprintf("✓ Updated %s/%s", entityType, updated.ID()))
	return nil
}

func (c *Cli) runDelete(ctx context.Context, entityType api.EntityType, id string) error {
	if err := validation.ValidateEntityID(id); err != nil {
		return fmt.Errorf("invalid entity id: %w", err)
	}

	if err := c.engine.Store.Delete(ctx, entityType, id); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", entityType, id, err)
	}

	c.io.Println(fmt.Sprintf("✓ Deleted %s/%s", entityType, id))
	return nil
}

func (c *Cli) runCacheClear(ctx context.Context) error {
	if err := c.engine.Store.ClearCache(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	c.io.Println("✓ Cache cleared")
	return nil
}
