package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iudanet/tripsync/internal/client/state"
	"github.com/iudanet/tripsync/pkg/api"
)

type listOptions struct {
	filters map[string]string
	refresh bool
	asJSON  bool
}

func (c *Cli) runList(ctx context.Context, entityType api.EntityType, opts listOptions) error {
	items, err := c.engine.Store.Fetch(ctx, entityType, state.FetchOptions{
		Filters:      opts.filters,
		ForceRefresh: opts.refresh,
	})
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", entityType, err)
	}

	if opts.asJSON {
		raw, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", entityType, err)
		}
		c.io.Println(string(raw))
		return nil
	}

	c.io.Println(fmt.Sprintf("=== %s (%d) ===", entityType, len(items)))
	c.io.Println()

	if len(items) == 0 {
		c.io.Println(fmt.Sprintf("No %s found.", entityType))
		return nil
	}

	for _, item := range items {
		c.io.Printf("%-24s %s\n", item.ID(), summary(item))
	}

	st := c.engine.Store.State(entityType)
	if st.LastUpdated != nil {
		c.io.Println()
		c.io.Printf("Last updated: %s\n", formatAge(c.now().Sub(*st.LastUpdated)))
	}
	return nil
}
