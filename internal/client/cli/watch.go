package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/iudanet/tripsync/internal/client/realtime"
	"github.com/iudanet/tripsync/internal/client/state"
	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

type watchOptions struct {
	// types пустой список означает все типы
	types []api.EntityType
	once  bool
}

// runWatch печатает уведомления store и смену статуса связи
// С once выполняет по одному циклу опроса каждого типа и выходит,
// иначе запускает движок до отмены ctx.
func (c *Cli) runWatch(ctx context.Context, opts watchOptions) error {
	types := opts.types
	if len(types) == 0 {
		types = c.engine.Store.Types()
	}
	wanted := make(map[api.EntityType]bool, len(types))
	for _, et := range types {
		wanted[et] = true
	}

	var mu sync.Mutex
	unsubscribe := c.engine.Store.SubscribeAll(func(et api.EntityType, op state.Operation, payload any) {
		if !wanted[et] {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		c.io.Printf("[%s] %-14s %-16s %s\n", c.now().Format("15:04:05"), et, op, describePayload(payload))
	})
	defer unsubscribe()

	c.engine.Poller.OnStatus(func(ev realtime.StatusEvent) {
		if !wanted[ev.EntityType] {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if ev.Status == realtime.StatusDisconnected {
			c.io.Printf("[%s] %-14s %-16s after %d failure(s): %v\n", ev.At.Format("15:04:05"), ev.EntityType, ev.Status, ev.Failures, ev.Err)
			return
		}
		c.io.Printf("[%s] %-14s %s\n", ev.At.Format("15:04:05"), ev.EntityType, ev.Status)
	})

	if opts.once {
		for _, et := range types {
			if err := c.engine.Poller.PollNow(ctx, et); err != nil {
				return err
			}
		}
		return nil
	}

	if err := c.engine.Start(ctx); err != nil {
		return err
	}
	defer c.engine.Stop()

	c.io.Println("Watching for changes. Press Ctrl+C to stop.")
	<-ctx.Done()
	return nil
}

// describePayload короткое описание payload уведомления
func describePayload(payload any) string {
	switch p := payload.(type) {
	case []models.Entity:
		return fmt.Sprintf("%d item(s)", len(p))
	case models.Entity:
		return "id=" + p.ID()
	case state.FetchErrorPayload:
		return "error: " + p.Message
	case state.CreateCompletePayload:
		return fmt.Sprintf("id=%s (was %s)", p.Entity.ID(), p.TempID)
	case state.CreateErrorPayload:
		return fmt.Sprintf("id=%s error: %v", p.TempID, p.Err)
	case state.UpdateErrorPayload:
		return fmt.Sprintf("id=%s error: %v", p.ID, p.Err)
	case state.DeletePayload:
		return "id=" + p.ID
	case state.DeleteErrorPayload:
		return fmt.Sprintf("id=%s error: %v", p.ID, p.Err)
	default:
		return ""
	}
}
