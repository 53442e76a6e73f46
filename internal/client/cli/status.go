package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/tripsync/internal/client/auth"
	"github.com/iudanet/tripsync/internal/client/storage"
	"github.com/iudanet/tripsync/pkg/api"
)

func (c *Cli) runStatus(ctx context.Context) error {
	if err := c.printTokenStatus(ctx); err != nil {
		return err
	}

	c.io.Println()
	if err := c.printCacheStatus(ctx); err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("=== Cross-instance Channel ===")
	if c.engine.Relay.Available() {
		c.io.Printf("Instance: %s\n", c.engine.Relay.Origin())
	} else {
		c.io.Println("Channel: disabled")
	}
	return nil
}

func (c *Cli) printTokenStatus(ctx context.Context) error {
	c.io.Println("=== Token ===")

	data, err := c.tokens.Info(ctx)
	if errors.Is(err, storage.ErrTokenNotFound) {
		c.io.Println("Status: Not set")
		c.io.Println("Run 'tripsync token set' to store an access token.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}

	c.io.Println("Status: Set")
	if data.Subject != "" {
		c.io.Printf("Subject: %s\n", data.Subject)
	}

	expiresAt, ok := auth.ExpiresAt(data)
	if !ok {
		c.io.Println("Expires: unknown")
		return nil
	}
	c.io.Printf("Expires: %s\n", expiresAt.Format(time.RFC3339))
	if remaining := expiresAt.Sub(c.now()); remaining > 0 {
		c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("⚠️  Token has expired. Run 'tripsync token set' with a new one.")
	}
	return nil
}

func (c *Cli) printCacheStatus(ctx context.Context) error {
	c.io.Println("=== Cache ===")

	cached, err := c.cache.ListCached(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cache: %w", err)
	}
	present := make(map[api.EntityType]bool, len(cached))
	for _, et := range cached {
		present[et] = true
	}

	now := c.now()
	for _, et := range c.engine.Store.Types() {
		c.io.Printf("%s:\n", et)

		if !present[et] {
			c.io.Println("  cache: empty")
		} else if err := c.printCacheRecord(ctx, et, now); err != nil {
			return err
		}

		lastPoll, err := c.metadata.GetLastPollTimestamp(ctx, et)
		if err != nil {
			// Не прерываем вывод из-за ошибки чтения метаданных
			c.io.Printf("  last poll: unavailable (%v)\n", err)
			continue
		}
		if lastPoll == 0 {
			c.io.Println("  last poll: never")
		} else {
			c.io.Printf("  last poll: %s\n", formatAge(now.Sub(time.UnixMilli(lastPoll))))
		}
	}
	return nil
}

func (c *Cli) printCacheRecord(ctx context.Context, et api.EntityType, now time.Time) error {
	rec, err := c.cache.GetCache(ctx, et)
	if err != nil {
		if errors.Is(err, storage.ErrCacheNotFound) {
			c.io.Println("  cache: empty")
			return nil
		}
		return fmt.Errorf("failed to read %s cache: %w", et, err)
	}

	age := now.Sub(time.UnixMilli(rec.Timestamp))
	freshness := "fresh"
	if age >= c.engine.Store.TTL(et) {
		freshness = "expired"
	}
	c.io.Printf("  cache: %d item(s), saved %s (%s, ttl %s)\n", len(rec.Data), formatAge(age), freshness, c.engine.Store.TTL(et))
	return nil
}
