package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	clientapi "github.com/iudanet/tripsync/internal/client/api"
	"github.com/iudanet/tripsync/internal/client/storage"
	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/internal/validation"
	"github.com/iudanet/tripsync/pkg/api"
)

// TTL по умолчанию: каталог читается часто и меняется редко, бронирования меняются чаще
const (
	CatalogTTL = 5 * time.Minute
	BookingTTL = 1 * time.Minute
)

// DefaultTTLs возвращает TTL кэша по умолчанию для известных типов
func DefaultTTLs() map[api.EntityType]time.Duration {
	return map[api.EntityType]time.Duration{
		api.EntityDestinations: CatalogTTL,
		api.EntityActivities:   CatalogTTL,
		api.EntityPackages:     CatalogTTL,
		api.EntityBookings:     BookingTTL,
	}
}

// ChangePublisher публикует подтвержденные изменения для других экземпляров
type ChangePublisher interface {
	PublishChange(ctx context.Context, entityType api.EntityType, change api.ChangeType, data any)
}

// Options настройки Store
type Options struct {
	// TTL кэша по типам; типы без значения используют DefaultTTL
	TTL map[api.EntityType]time.Duration
	// Clock источник времени; nil означает time.Now
	Clock func() time.Time
	// Types типы, которые загружает LoadAll; nil означает api.KnownEntityTypes()
	Types []api.EntityType
	// DefaultTTL TTL для типов без явного значения; 0 означает CatalogTTL
	DefaultTTL time.Duration
}

// EntityState состояние одного entity type
type EntityState struct {
	LastUpdated *time.Time
	Error       string
	Items       []models.Entity
	Loading     bool
}

type entityState struct {
	lastUpdated *time.Time
	err         string
	items       []models.Entity
	inflight    int
	// filtered items получены фильтрованным запросом и не пишутся в кэш
	filtered bool
}

// Store хранит entities в памяти, синхронизирует их с удаленным API
// и уведомляет подписчиков о каждом изменении.
type Store struct {
	apiClient clientapi.ClientAPI
	cache     storage.CacheStorage
	logger    *slog.Logger
	publisher ChangePublisher
	now       func() time.Time
	ttl       map[api.EntityType]time.Duration
	states    map[api.EntityType]*entityState
	pending   map[string]*PendingOp
	locks     *keyedMutex
	types     []api.EntityType
	subs      []*subscription
	queue     []notification
	flight    singleflight.Group
	mu        sync.Mutex
	nextSubID uint64
	defTTL    time.Duration
	draining  bool
}

// New creates a new Store
func New(apiClient clientapi.ClientAPI, cache storage.CacheStorage, logger *slog.Logger, opts Options) *Store {
	s := &Store{
		apiClient: apiClient,
		cache:     cache,
		logger:    logger,
		now:       opts.Clock,
		ttl:       DefaultTTLs(),
		defTTL:    opts.DefaultTTL,
		types:     opts.Types,
		states:    make(map[api.EntityType]*entityState),
		pending:   make(map[string]*PendingOp),
		locks:     newKeyedMutex(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.defTTL <= 0 {
		s.defTTL = CatalogTTL
	}
	if s.types == nil {
		s.types = api.KnownEntityTypes()
	}
	for et, ttl := range opts.TTL {
		s.ttl[et] = ttl
	}
	for _, et := range s.types {
		s.states[et] = &entityState{items: []models.Entity{}}
	}
	return s
}

// SetPublisher подключает публикацию изменений (cross-instance relay)
func (s *Store) SetPublisher(p ChangePublisher) {
	s.mu.Lock()
	s.publisher = p
	s.mu.Unlock()
}

// Types возвращает типы, которыми управляет Store
func (s *Store) Types() []api.EntityType {
	out := make([]api.EntityType, len(s.types))
	copy(out, s.types)
	return out
}

// TTL возвращает TTL кэша для типа
func (s *Store) TTL(entityType api.EntityType) time.Duration {
	if ttl, ok := s.ttl[entityType]; ok && ttl > 0 {
		return ttl
	}
	return s.defTTL
}

// Items возвращает глубокую копию items типа
func (s *Store) Items(entityType api.EntityType) []models.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneAll(s.stateLocked(entityType).items)
}

// Find возвращает копию entity по id
func (s *Store) Find(entityType api.EntityType, id string) (models.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateLocked(entityType)
	idx := models.IndexOf(st.items, id)
	if idx < 0 {
		return nil, false
	}
	return st.items[idx].Clone(), true
}

// State возвращает копию состояния типа
func (s *Store) State(entityType api.EntityType) EntityState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateLocked(entityType)
	out := EntityState{
		Items:   models.CloneAll(st.items),
		Loading: st.inflight > 0,
		Error:   st.err,
	}
	if st.lastUpdated != nil {
		t := *st.lastUpdated
		out.LastUpdated = &t
	}
	return out
}

// Pending возвращает мутации в полете
func (s *Store) Pending() []PendingOp {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingOp, 0, len(s.pending))
	for _, op := range s.pending {
		dup := *op
		dup.Backup = op.Backup.Clone()
		out = append(out, dup)
	}
	return out
}

// stateLocked возвращает состояние типа, создавая его при первом обращении
func (s *Store) stateLocked(entityType api.EntityType) *entityState {
	st, ok := s.states[entityType]
	if !ok {
		st = &entityState{items: []models.Entity{}}
		s.states[entityType] = st
	}
	return st
}

func (s *Store) publish(ctx context.Context, entityType api.EntityType, change api.ChangeType, data any) {
	s.mu.Lock()
	p := s.publisher
	s.mu.Unlock()
	if p == nil {
		return
	}
	p.PublishChange(ctx, entityType, change, data)
}

func validateType(entityType api.EntityType) error {
	if err := validation.ValidateEntityType(string(entityType)); err != nil {
		return fmt.Errorf("invalid entity type: %w", err)
	}
	return nil
}

// dedupe убирает повторяющиеся id, оставляя первое вхождение
func dedupe(items []models.Entity) ([]models.Entity, int) {
	seen := make(map[string]struct{}, len(items))
	out := make([]models.Entity, 0, len(items))
	dropped := 0
	for _, item := range items {
		if item == nil {
			dropped++
			continue
		}
		id := item.ID()
		if _, ok := seen[id]; ok {
			dropped++
			continue
		}
		seen[id] = struct{}{}
		out = append(out, item)
	}
	return out, dropped
}

func removeAt(items []models.Entity, idx int) []models.Entity {
	out := make([]models.Entity, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}

func insertAt(items []models.Entity, idx int, e models.Entity) []models.Entity {
	if idx < 0 {
		idx = 0
	}
	if idx > len(items) {
		idx = len(items)
	}
	out := make([]models.Entity, 0, len(items)+1)
	out = append(out, items[:idx]...)
	out = append(out, e)
	return append(out, items[idx:]...)
}

func prepend(items []models.Entity, e models.Entity) []models.Entity {
	return insertAt(items, 0, e)
}

// removeID удаляет все entities с id, кроме позиции keep
func removeID(items []models.Entity, id string, keep int) []models.Entity {
	out := make([]models.Entity, 0, len(items))
	for i, item := range items {
		if i != keep && item.ID() == id {
			continue
		}
		out = append(out, item)
	}
	return out
}
