package state

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

// TempIDPrefix префикс временных id оптимистично созданных entities
const TempIDPrefix = "temp_"

// IsTempID сообщает, что id временный и сервер его еще не подтвердил
func IsTempID(id string) bool {
	return len(id) > len(TempIDPrefix) && id[:len(TempIDPrefix)] == TempIDPrefix
}

func (s *Store) addPendingLocked(op *PendingOp) {
	s.pending[op.TempID] = op
}

func (s *Store) removePendingLocked(op *PendingOp) {
	delete(s.pending, op.TempID)
}

// Create оптимистично создает entity
// Сразу добавляет {...data, id: temp_<uuid>, created_at: now} в начало items (CREATE),
// затем вызывает API. Успех заменяет временную entity серверной (CREATE_COMPLETE),
// ошибка удаляет ее (CREATE_ERROR) и возвращается как *MutationError.
func (s *Store) Create(ctx context.Context, entityType api.EntityType, data models.Entity) (models.Entity, error) {
	if err := validateType(entityType); err != nil {
		return nil, &MutationError{Kind: KindCreate, EntityType: entityType, Err: err}
	}

	now := s.now()
	tempID := TempIDPrefix + uuid.NewString()

	optimistic := data.Clone()
	if optimistic == nil {
		optimistic = models.Entity{}
	}
	optimistic[models.FieldID] = tempID
	optimistic[models.FieldCreatedAt] = models.FormatTime(now)

	op := &PendingOp{
		TempID:     tempID,
		EntityID:   tempID,
		EntityType: entityType,
		Kind:       KindCreate,
		Timestamp:  now,
	}

	s.mu.Lock()
	st := s.stateLocked(entityType)
	st.items = prepend(st.items, optimistic)
	s.addPendingLocked(op)
	s.enqueueLocked(entityType, OpCreate, optimistic.Clone())
	s.mu.Unlock()
	s.drain()

	// мутацию нельзя отменить: отмена контекста вызывающего не прерывает запрос
	created, err := s.apiClient.Create(context.WithoutCancel(ctx), entityType, data)
	if err == nil && created.ID() == "" {
		err = fmt.Errorf("server returned entity without id")
	}

	s.mu.Lock()
	s.removePendingLocked(op)
	st = s.stateLocked(entityType)

	if err != nil {
		if idx := models.IndexOf(st.items, tempID); idx >= 0 {
			st.items = removeAt(st.items, idx)
		}
		s.enqueueLocked(entityType, OpCreateError, CreateErrorPayload{TempID: tempID, Err: err})
		s.mu.Unlock()
		s.drain()

		s.logger.Warn("Create failed, rolled back", "entity_type", entityType, "temp_id", tempID, "error", err)
		return nil, &MutationError{Kind: KindCreate, EntityType: entityType, ID: tempID, Err: err}
	}

	serverID := created.ID()
	// поллинг мог уже принести серверную версию
	st.items = removeID(st.items, serverID, -1)
	if idx := models.IndexOf(st.items, tempID); idx >= 0 {
		st.items[idx] = created
	} else {
		st.items = prepend(st.items, created)
	}
	s.enqueueLocked(entityType, OpCreateComplete, CreateCompletePayload{TempID: tempID, Entity: created.Clone()})
	s.mu.Unlock()
	s.drain()

	s.logger.Debug("Create reconciled", "entity_type", entityType, "temp_id", tempID, "id", serverID)

	s.refreshCache(ctx, entityType)
	s.publish(ctx, entityType, api.ChangeInsert, created.Clone())
	return created.Clone(), nil
}

// mutationResult итог удаленной части мутации
type mutationResult struct {
	entity models.Entity
	err    error
}

// Update оптимистично обновляет entity
// Применяет {...current, ...patch, updated_at: now} на месте (UPDATE) и вызывает API.
// Успех заменяет entity серверной версией (UPDATE_COMPLETE), ошибка
// восстанавливает копию (UPDATE_ERROR). Мутации одного id выполняются по очереди.
//
// Ключ id держит горутина запроса, а уведомления доставляет вызывающая,
// поэтому подписчик может мутировать тот же id из callback: такая мутация
// дождется завершения текущей.
func (s *Store) Update(ctx context.Context, entityType api.EntityType, id string, patch models.Entity) (models.Entity, error) {
	if err := validateType(entityType); err != nil {
		return nil, &MutationError{Kind: KindUpdate, EntityType: entityType, ID: id, Err: err}
	}

	unlock := s.locks.Lock(mutationKey(string(entityType), id))

	now := s.now()

	s.mu.Lock()
	st := s.stateLocked(entityType)
	idx := models.IndexOf(st.items, id)
	if idx < 0 {
		s.mu.Unlock()
		unlock()
		return nil, &MutationError{Kind: KindUpdate, EntityType: entityType, ID: id, Err: ErrNotFound}
	}

	current := st.items[idx]
	backup := current.Clone()

	optimistic := current.Merge(patch)
	optimistic[models.FieldID] = current[models.FieldID]
	optimistic[models.FieldUpdatedAt] = models.FormatTime(now)

	op := &PendingOp{
		TempID:     uuid.NewString(),
		EntityID:   id,
		EntityType: entityType,
		Kind:       KindUpdate,
		Backup:     backup.Clone(),
		Timestamp:  now,
	}

	st.items = append([]models.Entity(nil), st.items...)
	st.items[idx] = optimistic
	s.addPendingLocked(op)
	s.enqueueLocked(entityType, OpUpdate, optimistic.Clone())
	s.mu.Unlock()

	done := make(chan mutationResult, 1)
	go func() {
		defer unlock()
		updated, err := s.apiClient.Update(context.WithoutCancel(ctx), entityType, id, patch)
		done <- s.settleUpdate(ctx, op, backup, updated, err)
	}()

	s.drain()
	res := <-done
	s.drain()

	if res.err != nil {
		s.logger.Warn("Update failed, rolled back", "entity_type", entityType, "id", id, "error", res.err)
		return nil, &MutationError{Kind: KindUpdate, EntityType: entityType, ID: id, Err: res.err}
	}

	s.logger.Debug("Update reconciled", "entity_type", entityType, "id", id)

	s.publish(ctx, entityType, api.ChangeUpdate, res.entity.Clone())
	return res.entity.Clone(), nil
}

// settleUpdate применяет ответ API к items; вызывается под ключом id
func (s *Store) settleUpdate(ctx context.Context, op *PendingOp, backup, updated models.Entity, err error) mutationResult {
	entityType, id := op.EntityType, op.EntityID

	s.mu.Lock()
	s.removePendingLocked(op)
	st := s.stateLocked(entityType)

	if err != nil {
		// entity могла быть удалена из items удаленным изменением, тогда не воскрешаем ее
		if idx := models.IndexOf(st.items, id); idx >= 0 {
			st.items = append([]models.Entity(nil), st.items...)
			st.items[idx] = backup.Clone()
		}
		s.enqueueLocked(entityType, OpUpdateError, UpdateErrorPayload{ID: id, Err: err, PreviousData: backup.Clone()})
		s.mu.Unlock()
		return mutationResult{err: err}
	}

	if updated.ID() == "" {
		updated = updated.Clone()
		updated[models.FieldID] = backup[models.FieldID]
	}

	if idx := models.IndexOf(st.items, id); idx >= 0 {
		st.items = append([]models.Entity(nil), st.items...)
		st.items[idx] = updated
		st.items = removeID(st.items, updated.ID(), idx)
	} else {
		st.items = prepend(removeID(st.items, updated.ID(), -1), updated)
	}
	s.enqueueLocked(entityType, OpUpdateComplete, updated.Clone())
	s.mu.Unlock()

	s.refreshCache(ctx, entityType)
	return mutationResult{entity: updated}
}

// Delete оптимистично удаляет entity
// Сразу убирает ее из items (DELETE) и вызывает API. Успех дает DELETE_COMPLETE,
// ошибка возвращает entity на исходную позицию (DELETE_ERROR).
// Ключ id держится так же, как в Update.
func (s *Store) Delete(ctx context.Context, entityType api.EntityType, id string) error {
	if err := validateType(entityType); err != nil {
		return &MutationError{Kind: KindDelete, EntityType: entityType, ID: id, Err: err}
	}

	unlock := s.locks.Lock(mutationKey(string(entityType), id))

	now := s.now()

	s.mu.Lock()
	st := s.stateLocked(entityType)
	idx := models.IndexOf(st.items, id)
	if idx < 0 {
		s.mu.Unlock()
		unlock()
		return &MutationError{Kind: KindDelete, EntityType: entityType, ID: id, Err: ErrNotFound}
	}

	removed := st.items[idx]
	op := &PendingOp{
		TempID:     uuid.NewString(),
		EntityID:   id,
		EntityType: entityType,
		Kind:       KindDelete,
		Backup:     removed.Clone(),
		Timestamp:  now,
	}

	st.items = removeAt(st.items, idx)
	s.addPendingLocked(op)
	s.enqueueLocked(entityType, OpDelete, DeletePayload{ID: id, Entity: removed.Clone()})
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer unlock()
		err := s.apiClient.Delete(context.WithoutCancel(ctx), entityType, id)
		done <- s.settleDelete(ctx, op, idx, removed, err)
	}()

	s.drain()
	err := <-done
	s.drain()

	if err != nil {
		s.logger.Warn("Delete failed, rolled back", "entity_type", entityType, "id", id, "error", err)
		return &MutationError{Kind: KindDelete, EntityType: entityType, ID: id, Err: err}
	}

	s.logger.Debug("Delete confirmed", "entity_type", entityType, "id", id)

	s.publish(ctx, entityType, api.ChangeDelete, models.Entity{models.FieldID: removed[models.FieldID]})
	return nil
}

// settleDelete применяет ответ API к items; вызывается под ключом id
func (s *Store) settleDelete(ctx context.Context, op *PendingOp, idx int, removed models.Entity, err error) error {
	entityType, id := op.EntityType, op.EntityID

	s.mu.Lock()
	s.removePendingLocked(op)
	st := s.stateLocked(entityType)

	if err != nil {
		// id мог вернуться удаленным изменением, дубликат не вставляем
		if models.IndexOf(st.items, id) < 0 {
			st.items = insertAt(st.items, idx, removed.Clone())
		}
		s.enqueueLocked(entityType, OpDeleteError, DeleteErrorPayload{ID: id, Err: err, RestoredData: removed.Clone()})
		s.mu.Unlock()
		return err
	}

	s.enqueueLocked(entityType, OpDeleteComplete, DeletePayload{ID: id, Entity: removed.Clone()})
	s.mu.Unlock()

	s.refreshCache(ctx, entityType)
	return nil
}
