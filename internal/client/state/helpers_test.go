package state

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	clientapi "github.com/iudanet/tripsync/internal/client/api"
	"github.com/iudanet/tripsync/internal/client/storage/boltdb"
	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock управляемые часы для проверок TTL
type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newTestStorage(t *testing.T) *boltdb.Storage {
	t.Helper()
	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "state_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func newTestStore(t *testing.T, apiMock *clientapi.ClientAPIMock, clock *fakeClock) *Store {
	t.Helper()
	if clock == nil {
		clock = newFakeClock()
	}
	return New(apiMock, newTestStorage(t), newTestLogger(), Options{Clock: clock.Now})
}

// seed заполняет items без уведомлений и API
func seed(s *Store, entityType api.EntityType, items ...models.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateLocked(entityType).items = models.CloneAll(items)
}

type event struct {
	payload any
	op      Operation
	items   []models.Entity
}

// recorder собирает уведомления одного типа
type recorder struct {
	events []event
	mu     sync.Mutex
}

func (r *recorder) listener() Listener {
	return func(op Operation, payload any, items []models.Entity) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, event{op: op, payload: payload, items: items})
	}
}

func (r *recorder) ops() []Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Operation, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.op)
	}
	return out
}

func (r *recorder) all() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event, len(r.events))
	copy(out, r.events)
	return out
}

// publishedChange одна публикация в relay
type publishedChange struct {
	data       any
	entityType api.EntityType
	change     api.ChangeType
}

type fakePublisher struct {
	changes []publishedChange
	mu      sync.Mutex
}

func (p *fakePublisher) PublishChange(ctx context.Context, entityType api.EntityType, change api.ChangeType, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, publishedChange{entityType: entityType, change: change, data: data})
}

func (p *fakePublisher) all() []publishedChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishedChange, len(p.changes))
	copy(out, p.changes)
	return out
}

func ids(items []models.Entity) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID())
	}
	return out
}

func assertUniqueIDs(t *testing.T, items []models.Entity) {
	t.Helper()
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		id := item.ID()
		if seen[id] {
			t.Errorf("duplicate id %q in %v", id, ids(items))
		}
		seen[id] = true
	}
}
