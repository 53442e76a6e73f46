package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

// Router применяет изменение другого экземпляра к локальному состоянию;
// реализуется state.Store
type Router interface {
	ApplyRemote(ctx context.Context, entityType api.EntityType, change api.ChangeType, data json.RawMessage) (bool, error)
}

// Observer принимает снапшоты других экземпляров; реализуется realtime.Poller
type Observer interface {
	Observe(entityType api.EntityType, items []models.Entity)
}

// RelayStats счетчики relay
type RelayStats struct {
	Published int64
	Received  int64
	Applied   int64
	Skipped   int64
	Failed    int64
}

// Relay связывает локальное состояние с общим каналом:
// публикует подтвержденные изменения и применяет чужие
type Relay struct {
	channel  Channel
	router   Router
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	cancel   func()
	origin   string
	warnOnce sync.Once
	mu       sync.Mutex

	published atomic.Int64
	received  atomic.Int64
	applied   atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
}

// NewRelay creates a new Relay
// channel может быть nil: тогда relay ничего не отправляет и не получает
func NewRelay(channel Channel, router Router, logger *slog.Logger) *Relay {
	return &Relay{
		channel: channel,
		router:  router,
		logger:  logger,
		now:     time.Now,
		origin:  uuid.NewString(),
	}
}

// SetObserver подключает поллер, которому передаются чужие снапшоты
func (r *Relay) SetObserver(o Observer) {
	r.mu.Lock()
	r.observer = o
	r.mu.Unlock()
}

// Origin id этого экземпляра в сообщениях
func (r *Relay) Origin() string {
	return r.origin
}

// Available сообщает, настроен ли канал
func (r *Relay) Available() bool {
	return r.channel != nil
}

// Start подписывается на канал; повторный вызов ничего не делает
func (r *Relay) Start() {
	if r.channel == nil {
		r.unavailable()
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	r.cancel = r.channel.Subscribe(r.handle)
	r.logger.Debug("Relay subscribed", "origin", r.origin)
}

// Stop отписывается от канала
func (r *Relay) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		r.logger.Debug("Relay unsubscribed", "origin", r.origin)
	}
}

// PublishChange отправляет изменение другим экземплярам
// Ошибки логируются: локальное состояние уже подтверждено сервером
func (r *Relay) PublishChange(ctx context.Context, entityType api.EntityType, change api.ChangeType, data any) {
	if r.channel == nil {
		r.unavailable()
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		r.failed.Add(1)
		r.logger.Warn("Failed to encode change", "entity_type", entityType, "change", change, "error", err)
		return
	}

	msg := api.DataChange{
		Type:       api.MessageTypeDataChange,
		Table:      entityType,
		ChangeType: change,
		Origin:     r.origin,
		Data:       raw,
		Timestamp:  r.now().UnixMilli(),
	}
	if err := r.channel.Publish(context.WithoutCancel(ctx), msg); err != nil {
		r.failed.Add(1)
		r.logger.Warn("Failed to publish change", "entity_type", entityType, "change", change, "error", err)
		return
	}
	r.published.Add(1)
}

func (r *Relay) handle(msg api.DataChange) {
	if msg.Type != api.MessageTypeDataChange {
		r.logger.Debug("Ignoring broadcast message", "type", msg.Type)
		return
	}
	if msg.Origin == r.origin {
		return
	}
	r.received.Add(1)

	ctx := context.Background()
	applied, err := r.router.ApplyRemote(ctx, msg.Table, msg.ChangeType, msg.Data)
	if err != nil {
		r.failed.Add(1)
		r.logger.Warn("Failed to apply broadcast change",
			"entity_type", msg.Table,
			"change", msg.ChangeType,
			"origin", msg.Origin,
			"error", err)
		return
	}
	if applied {
		r.applied.Add(1)
	} else {
		r.skipped.Add(1)
	}

	if msg.ChangeType == api.ChangeSnapshot {
		r.observe(msg)
	}

	r.logger.Debug("Broadcast change handled",
		"entity_type", msg.Table,
		"change", msg.ChangeType,
		"origin", msg.Origin,
		"applied", applied)
}

// observe передает снапшот поллеру, чтобы он не запрашивал то же изменение повторно
func (r *Relay) observe(msg api.DataChange) {
	r.mu.Lock()
	observer := r.observer
	r.mu.Unlock()
	if observer == nil {
		return
	}

	items, err := models.DecodeEntities(msg.Data)
	if err != nil {
		r.logger.Warn("Failed to decode snapshot", "entity_type", msg.Table, "error", err)
		return
	}
	observer.Observe(msg.Table, items)
}

func (r *Relay) unavailable() {
	r.warnOnce.Do(func() {
		r.logger.Warn("Cross-instance sync disabled", "error", ErrChannelUnavailable)
	})
}

// Stats возвращает счетчики relay
func (r *Relay) Stats() RelayStats {
	return RelayStats{
		Published: r.published.Load(),
		Received:  r.received.Load(),
		Applied:   r.applied.Load(),
		Skipped:   r.skipped.Load(),
		Failed:    r.failed.Load(),
	}
}
