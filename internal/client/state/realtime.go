package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

// ApplyRemote применяет изменение, полученное от другого экземпляра
// INSERT, UPDATE и DELETE несут одну entity, SNAPSHOT полный список.
// Возвращает true, если состояние изменилось; если нет, уведомлений не будет.
func (s *Store) ApplyRemote(ctx context.Context, entityType api.EntityType, change api.ChangeType, data json.RawMessage) (bool, error) {
	if err := validateType(entityType); err != nil {
		return false, err
	}

	switch change {
	case api.ChangeSnapshot:
		items, err := models.DecodeEntities(data)
		if err != nil {
			return false, fmt.Errorf("failed to decode snapshot: %w", err)
		}
		return s.ApplySnapshot(ctx, entityType, items), nil
	case api.ChangeInsert, api.ChangeUpdate, api.ChangeDelete:
		entity, err := models.DecodeEntity(data)
		if err != nil {
			return false, fmt.Errorf("failed to decode %s change: %w", change, err)
		}
		if entity.ID() == "" {
			return false, fmt.Errorf("%s change without id", change)
		}
		switch change {
		case api.ChangeInsert:
			return s.RemoteCreate(entityType, entity), nil
		case api.ChangeUpdate:
			return s.RemoteUpdate(entityType, entity), nil
		default:
			return s.RemoteDelete(entityType, entity.ID()), nil
		}
	default:
		return false, fmt.Errorf("unknown change type %q", change)
	}
}

// RemoteCreate добавляет entity в начало items (REALTIME_CREATE)
// Если id уже есть, entity заменяется, но только более новой версией
func (s *Store) RemoteCreate(entityType api.EntityType, entity models.Entity) bool {
	return s.upsertRemote(entityType, entity, OpRealtimeCreate)
}

// RemoteUpdate заменяет entity по id (REALTIME_UPDATE)
// Входящая версия старше локальной по updated_at игнорируется
func (s *Store) RemoteUpdate(entityType api.EntityType, entity models.Entity) bool {
	return s.upsertRemote(entityType, entity, OpRealtimeUpdate)
}

func (s *Store) upsertRemote(entityType api.EntityType, entity models.Entity, op Operation) bool {
	entity = entity.Clone()
	id := entity.ID()

	s.mu.Lock()
	st := s.stateLocked(entityType)
	idx := models.IndexOf(st.items, id)
	if idx >= 0 {
		current := st.items[idx]
		if current.Equal(entity) || current.IsNewerThan(entity) {
			s.mu.Unlock()
			return false
		}
		st.items = append([]models.Entity(nil), st.items...)
		st.items[idx] = entity
	} else {
		st.items = prepend(st.items, entity)
	}
	s.enqueueLocked(entityType, op, entity.Clone())
	s.mu.Unlock()
	s.drain()

	s.logger.Debug("Applied remote change", "entity_type", entityType, "operation", op, "id", id)
	return true
}

// RemoteDelete удаляет entity по id (REALTIME_DELETE)
func (s *Store) RemoteDelete(entityType api.EntityType, id string) bool {
	s.mu.Lock()
	st := s.stateLocked(entityType)
	idx := models.IndexOf(st.items, id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	removed := st.items[idx]
	st.items = removeAt(st.items, idx)
	s.enqueueLocked(entityType, OpRealtimeDelete, DeletePayload{ID: id, Entity: removed.Clone()})
	s.mu.Unlock()
	s.drain()

	s.logger.Debug("Applied remote change", "entity_type", entityType, "operation", OpRealtimeDelete, "id", id)
	return true
}

// ApplySnapshot заменяет items полным снапшотом и уведомляет UPDATE
// Если снапшот совпадает с текущими items, ничего не происходит.
func (s *Store) ApplySnapshot(ctx context.Context, entityType api.EntityType, items []models.Entity) bool {
	return s.replaceAll(ctx, entityType, items, OpUpdate, false)
}

// ApplyInitial заменяет items первым снапшотом поллера и всегда уведомляет FETCH
func (s *Store) ApplyInitial(ctx context.Context, entityType api.EntityType, items []models.Entity) {
	s.replaceAll(ctx, entityType, items, OpFetch, true)
}

func (s *Store) replaceAll(ctx context.Context, entityType api.EntityType, items []models.Entity, op Operation, force bool) bool {
	items, dropped := dedupe(models.CloneAll(items))
	if dropped > 0 {
		s.logger.Warn("Dropped duplicate entities from snapshot", "entity_type", entityType, "count", dropped)
	}

	now := s.now()

	s.mu.Lock()
	st := s.stateLocked(entityType)
	if !force && sameItems(st.items, items) {
		s.mu.Unlock()
		return false
	}
	st.items = items
	st.lastUpdated = &now
	st.filtered = false
	s.enqueueLocked(entityType, op, models.CloneAll(items))
	s.mu.Unlock()
	s.drain()

	s.saveCache(ctx, entityType, items, now.UnixMilli())
	return true
}

// LastUpdated возвращает время последнего обновления типа
func (s *Store) LastUpdated(entityType api.EntityType) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateLocked(entityType)
	if st.lastUpdated == nil {
		return time.Time{}, false
	}
	return *st.lastUpdated, true
}

func sameItems(a, b []models.Entity) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
