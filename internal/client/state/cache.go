package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iudanet/tripsync/internal/client/storage"
	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

// FetchOptions параметры Fetch
type FetchOptions struct {
	// Filters передаются как query параметры; фильтрованный запрос
	// всегда идет в сеть и не пишется в кэш
	Filters map[string]string
	// ForceRefresh игнорирует валидный кэш
	ForceRefresh bool
}

// cacheValid проверяет свежесть записи: now - timestamp < ttl (строго)
func (s *Store) cacheValid(entityType api.EntityType, rec *storage.CacheRecord) bool {
	age := s.now().UnixMilli() - rec.Timestamp
	return age < s.TTL(entityType).Milliseconds()
}

// validCache возвращает запись кэша, если она есть и не истекла
func (s *Store) validCache(ctx context.Context, entityType api.EntityType) *storage.CacheRecord {
	if s.cache == nil {
		return nil
	}

	rec, err := s.cache.GetCache(ctx, entityType)
	if err != nil {
		if !errors.Is(err, storage.ErrCacheNotFound) {
			s.logger.Warn("Failed to read cache", "entity_type", entityType, "error", err)
		}
		return nil
	}

	if !s.cacheValid(entityType, rec) {
		s.logger.Debug("Cache expired", "entity_type", entityType, "timestamp", rec.Timestamp)
		return nil
	}
	return rec
}

// Load поднимает items и lastUpdated из кэша, если запись не истекла
// Возвращает true, если состояние было восстановлено
func (s *Store) Load(ctx context.Context, entityType api.EntityType) (bool, error) {
	if err := validateType(entityType); err != nil {
		return false, err
	}

	rec := s.validCache(ctx, entityType)
	if rec == nil {
		return false, nil
	}

	items, dropped := dedupe(models.CloneAll(rec.Data))
	if dropped > 0 {
		s.logger.Warn("Dropped duplicate entities from cache", "entity_type", entityType, "count", dropped)
	}
	ts := time.UnixMilli(rec.Timestamp)

	s.mu.Lock()
	st := s.stateLocked(entityType)
	items = s.overlayPendingLocked(entityType, st.items, items)
	st.items = items
	st.lastUpdated = &ts
	st.filtered = false
	s.mu.Unlock()

	s.logger.Debug("Loaded from cache", "entity_type", entityType, "count", len(items))
	return true, nil
}

// LoadAll вызывает Load для каждого типа Store
func (s *Store) LoadAll(ctx context.Context) (int, error) {
	loaded := 0
	for _, et := range s.types {
		ok, err := s.Load(ctx, et)
		if err != nil {
			return loaded, err
		}
		if ok {
			loaded++
		}
	}
	return loaded, nil
}

// Fetch загружает items типа
// Без фильтров и без ForceRefresh валидный кэш отдается без сетевого запроса (CACHE_HIT).
// Иначе выполняется GET; успех заменяет items (FETCH), ошибка пишется в
// EntityState.Error (ERROR) и items не трогает. Ошибка возвращается
// только для информации: состояние и уведомление уже ее содержат.
func (s *Store) Fetch(ctx context.Context, entityType api.EntityType, opts FetchOptions) ([]models.Entity, error) {
	if err := validateType(entityType); err != nil {
		return nil, &FetchError{EntityType: entityType, Err: err}
	}

	if !opts.ForceRefresh && len(opts.Filters) == 0 {
		if rec := s.validCache(ctx, entityType); rec != nil {
			return s.applyCacheHit(entityType, rec), nil
		}
	}

	key := flightKey(entityType, opts.Filters)
	v, err, shared := s.flight.Do(key, func() (any, error) {
		return s.fetchRemote(ctx, entityType, opts.Filters)
	})
	if shared {
		s.logger.Debug("Fetch shared with concurrent caller", "entity_type", entityType)
	}
	if err != nil {
		return nil, err
	}
	return models.CloneAll(v.([]models.Entity)), nil
}

func (s *Store) applyCacheHit(entityType api.EntityType, rec *storage.CacheRecord) []models.Entity {
	items, _ := dedupe(models.CloneAll(rec.Data))
	ts := time.UnixMilli(rec.Timestamp)

	s.mu.Lock()
	st := s.stateLocked(entityType)
	items = s.overlayPendingLocked(entityType, st.items, items)
	st.items = items
	st.lastUpdated = &ts
	st.filtered = false
	s.enqueueLocked(entityType, OpCacheHit, models.CloneAll(items))
	s.mu.Unlock()
	s.drain()

	s.logger.Debug("Cache hit", "entity_type", entityType, "count", len(items))
	return models.CloneAll(items)
}

// overlayPendingLocked переносит в снапшот кэша entities мутаций в полете:
// временные create остаются в начале, update сохраняют оптимистичную
// версию, удаляемые id не возвращаются
func (s *Store) overlayPendingLocked(entityType api.EntityType, current, cached []models.Entity) []models.Entity {
	kinds := make(map[string]MutationKind)
	for _, op := range s.pending {
		if op.EntityType == entityType {
			kinds[op.EntityID] = op.Kind
		}
	}
	if len(kinds) == 0 {
		return cached
	}

	inFlight := make(map[string]models.Entity)
	for _, item := range current {
		if _, ok := kinds[item.ID()]; ok {
			inFlight[item.ID()] = item
		}
	}

	out := make([]models.Entity, 0, len(cached)+len(inFlight))
	seen := make(map[string]bool, len(cached))
	for _, item := range cached {
		seen[item.ID()] = true
	}
	// оптимистичные entities, которых нет в кэше, идут первыми в текущем порядке
	for _, item := range current {
		id := item.ID()
		if kinds[id] == KindCreate || (kinds[id] == KindUpdate && !seen[id]) {
			out = append(out, item)
		}
	}
	for _, item := range cached {
		id := item.ID()
		switch kinds[id] {
		case KindDelete, KindCreate:
			continue
		case KindUpdate:
			if pending, ok := inFlight[id]; ok {
				item = pending
			}
		}
		out = append(out, item)
	}
	return out
}

func (s *Store) fetchRemote(ctx context.Context, entityType api.EntityType, filters map[string]string) ([]models.Entity, error) {
	s.mu.Lock()
	st := s.stateLocked(entityType)
	st.inflight++
	st.err = ""
	s.mu.Unlock()

	s.logger.Debug("Fetching", "entity_type", entityType, "filters", filters)
	fetched, err := s.apiClient.List(ctx, entityType, filters)

	s.mu.Lock()
	st = s.stateLocked(entityType)
	st.inflight--

	if err != nil {
		fetchErr := &FetchError{EntityType: entityType, Err: err}
		st.err = fetchErr.Error()
		s.enqueueLocked(entityType, OpError, FetchErrorPayload{Err: fetchErr, Message: fetchErr.Error()})
		s.mu.Unlock()
		s.drain()

		s.logger.Warn("Fetch failed", "entity_type", entityType, "error", err)
		return nil, fetchErr
	}

	items, dropped := dedupe(fetched)
	now := s.now()
	st.items = items
	st.lastUpdated = &now
	st.filtered = len(filters) > 0
	s.enqueueLocked(entityType, OpFetch, models.CloneAll(items))
	s.mu.Unlock()
	s.drain()

	if dropped > 0 {
		s.logger.Warn("Dropped duplicate entities from response", "entity_type", entityType, "count", dropped)
	}

	if len(filters) == 0 {
		s.saveCache(ctx, entityType, items, now.UnixMilli())
	}

	return items, nil
}

// saveCache пишет снапшот в кэш; ошибка записи не ломает fetch
func (s *Store) saveCache(ctx context.Context, entityType api.EntityType, items []models.Entity, timestamp int64) {
	if s.cache == nil {
		return
	}
	rec := &storage.CacheRecord{Data: models.CloneAll(items), Timestamp: timestamp}
	if err := s.cache.SaveCache(ctx, entityType, rec); err != nil {
		s.logger.Warn("Failed to persist cache", "entity_type", entityType, "error", err)
	}
}

// refreshCache после подтвержденной мутации переписывает данные
// существующей записи кэша, сохраняя ее timestamp, чтобы мутация
// не продлевала TTL
func (s *Store) refreshCache(ctx context.Context, entityType api.EntityType) {
	if s.cache == nil {
		return
	}

	s.mu.Lock()
	st := s.stateLocked(entityType)
	filtered := st.filtered
	items := models.CloneAll(st.items)
	s.mu.Unlock()

	if filtered {
		return
	}

	rec, err := s.cache.GetCache(ctx, entityType)
	if err != nil {
		if !errors.Is(err, storage.ErrCacheNotFound) {
			s.logger.Warn("Failed to read cache", "entity_type", entityType, "error", err)
		}
		return
	}
	s.saveCache(ctx, entityType, items, rec.Timestamp)
}

// ClearCache удаляет все записи кэша и сбрасывает lastUpdated
// items в памяти сохраняются
func (s *Store) ClearCache(ctx context.Context) error {
	if s.cache != nil {
		if err := s.cache.ClearCache(ctx); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}

	s.mu.Lock()
	for _, st := range s.states {
		st.lastUpdated = nil
	}
	s.mu.Unlock()

	s.logger.Info("Cache cleared")
	return nil
}

// flightKey ключ singleflight: тип плюс отсортированные фильтры
func flightKey(entityType api.EntityType, filters map[string]string) string {
	if len(filters) == 0 {
		return string(entityType)
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(entityType))
	for _, k := range keys {
		b.WriteString("\x00")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(filters[k])
	}
	return b.String()
}
