package state

import (
	"context"

	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

// Collection типизированный доступ к одному entity type
type Collection struct {
	store      *Store
	entityType api.EntityType
}

// Collection возвращает доступ к entity type
func (s *Store) Collection(entityType api.EntityType) *Collection {
	return &Collection{store: s, entityType: entityType}
}

func (s *Store) Destinations() *Collection { return s.Collection(api.EntityDestinations) }
func (s *Store) Activities() *Collection   { return s.Collection(api.EntityActivities) }
func (s *Store) Packages() *Collection     { return s.Collection(api.EntityPackages) }
func (s *Store) Bookings() *Collection     { return s.Collection(api.EntityBookings) }

// Type возвращает entity type коллекции
func (c *Collection) Type() api.EntityType {
	return c.entityType
}

// Items возвращает копию items
func (c *Collection) Items() []models.Entity {
	return c.store.Items(c.entityType)
}

// Find ищет entity по id
func (c *Collection) Find(id string) (models.Entity, bool) {
	return c.store.Find(c.entityType, id)
}

// State возвращает копию состояния
func (c *Collection) State() EntityState {
	return c.store.State(c.entityType)
}

func (c *Collection) Fetch(ctx context.Context, opts FetchOptions) ([]models.Entity, error) {
	return c.store.Fetch(ctx, c.entityType, opts)
}

func (c *Collection) Create(ctx context.Context, data models.Entity) (models.Entity, error) {
	return c.store.Create(ctx, c.entityType, data)
}

func (c *Collection) Update(ctx context.Context, id string, patch models.Entity) (models.Entity, error) {
	return c.store.Update(ctx, c.entityType, id, patch)
}

func (c *Collection) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.entityType, id)
}

// Subscribe подписывает на уведомления коллекции
func (c *Collection) Subscribe(fn Listener) func() {
	return c.store.Subscribe(c.entityType, fn)
}
