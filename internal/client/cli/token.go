package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/tripsync/internal/client/auth"
)

// runTokenSet сохраняет токен; без аргумента токен читается без эха
func (c *Cli) runTokenSet(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		input, err := c.io.ReadPassword("Access token: ")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = input
	}

	data, err := c.tokens.SetToken(ctx, token)
	if err != nil {
		return err
	}

	c.io.Println("✓ Token saved")
	if data.Subject != "" {
		c.io.Printf("Subject: %s\n", data.Subject)
	}
	if expiresAt, ok := auth.ExpiresAt(data); ok {
		c.io.Printf("Expires: %s\n", expiresAt.Format(time.RFC3339))
	}
	return nil
}

func (c *Cli) runTokenClear(ctx context.Context) error {
	if err := c.tokens.Clear(ctx); err != nil {
		return err
	}
	c.io.Println("✓ Token removed")
	return nil
}
