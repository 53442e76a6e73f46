package realtime

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/tripsync/internal/client/storage"
	"github.com/iudanet/tripsync/internal/crypto"
	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

// Значения по умолчанию
const (
	DefaultInterval    = 30 * time.Second
	DefaultMaxFailures = 3
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = time.Minute
)

// Config настройки поллера
type Config struct {
	// Intervals интервал по типам; типы без значения используют Interval
	Intervals map[api.EntityType]time.Duration
	// Types отслеживаемые типы; nil означает api.KnownEntityTypes()
	Types       []api.EntityType
	Interval    time.Duration
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxFailures int
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		Interval:    DefaultInterval,
		MaxFailures: DefaultMaxFailures,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = DefaultMaxFailures
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.Types == nil {
		c.Types = api.KnownEntityTypes()
	}
	return c
}

// Options необязательные зависимости поллера
type Options struct {
	Publisher Publisher
	Metadata  storage.MetadataStorage
	// Hasher nil означает crypto.Blake2bHasher
	Hasher crypto.Hasher
	// Clock nil означает time.Now
	Clock func() time.Time
}

type typeState struct {
	lastPoll    time.Time
	lastErr     error
	reset       chan struct{}
	payload     []byte
	polls       int
	changes     int
	failures    int
	hash        crypto.Digest
	cycle       sync.Mutex
	initialized bool
	offline     bool
}

// Poller периодически запрашивает снапшот каждого типа и применяет
// его к локальному состоянию, если содержимое изменилось
type Poller struct {
	source    Source
	applier   Applier
	publisher Publisher
	metadata  storage.MetadataStorage
	hasher    crypto.Hasher
	logger    *slog.Logger
	now       func() time.Time
	states    map[api.EntityType]*typeState
	cancel    context.CancelFunc
	listeners []func(StatusEvent)
	cfg       Config
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// New creates a new Poller
func New(source Source, applier Applier, logger *slog.Logger, cfg Config, opts Options) *Poller {
	cfg = cfg.withDefaults()
	p := &Poller{
		source:    source,
		applier:   applier,
		publisher: opts.Publisher,
		metadata:  opts.Metadata,
		hasher:    opts.Hasher,
		logger:    logger,
		now:       opts.Clock,
		cfg:       cfg,
		states:    make(map[api.EntityType]*typeState, len(cfg.Types)),
	}
	if p.hasher == nil {
		p.hasher = crypto.Blake2bHasher{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	for _, et := range cfg.Types {
		p.states[et] = &typeState{reset: make(chan struct{}, 1)}
	}
	return p
}

// OnStatus регистрирует слушателя смены состояния связи
func (p *Poller) OnStatus(fn func(StatusEvent)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Interval возвращает интервал опроса типа
func (p *Poller) Interval(entityType api.EntityType) time.Duration {
	if d, ok := p.cfg.Intervals[entityType]; ok && d > 0 {
		return d
	}
	return p.cfg.Interval
}

// Start запускает по горутине на каждый тип; первый опрос выполняется сразу
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	for _, et := range p.cfg.Types {
		st := p.states[et]
		// после перезапуска первый успешный опрос снова INIT
		st.initialized = false
		st.hash = crypto.Digest{}
		st.payload = nil

		p.wg.Add(1)
		go p.run(ctx, et, st)
	}

	p.logger.Info("Poller started", "types", len(p.cfg.Types), "interval", p.cfg.Interval)
	return nil
}

// Stop останавливает опрос и ждет завершения горутин
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Poller stopped")
}

// Running сообщает, запущен ли поллер
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) run(ctx context.Context, entityType api.EntityType, st *typeState) {
	defer p.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-st.reset:
			timer.Reset(p.Interval(entityType))
			continue
		case <-timer.C:
		}

		// ошибка уже залогирована и учтена в счетчике неудач
		_ = p.PollNow(ctx, entityType)

		timer.Reset(p.nextDelay(entityType, st))
	}
}

func (p *Poller) nextDelay(entityType api.EntityType, st *typeState) time.Duration {
	p.mu.Lock()
	failures := st.failures
	p.mu.Unlock()

	if failures == 0 {
		return p.Interval(entityType)
	}
	return Backoff(p.cfg.BaseDelay, p.cfg.MaxDelay, failures)
}

// PollNow выполняет один цикл опроса типа синхронно
// Первый успешный цикл применяет снапшот как FETCH; изменившийся снапшот
// применяется как UPDATE и публикуется другим экземплярам.
func (p *Poller) PollNow(ctx context.Context, entityType api.EntityType) error {
	st, ok := p.states[entityType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, entityType)
	}

	st.cycle.Lock()
	defer st.cycle.Unlock()

	items, err := p.source.List(ctx, entityType, nil)
	if err != nil {
		p.recordFailure(entityType, st, err)
		return fmt.Errorf("failed to poll %s: %w", entityType, err)
	}
	if items == nil {
		items = []models.Entity{}
	}

	payload, err := crypto.CanonicalJSON(items)
	if err != nil {
		p.recordFailure(entityType, st, err)
		return fmt.Errorf("failed to hash %s: %w", entityType, err)
	}
	digest := p.hasher.Sum(payload)
	now := p.now()

	p.mu.Lock()
	first := !st.initialized
	// при совпадении хешей сравниваются байты: коллизия не скрывает изменение
	changed := !first && (digest != st.hash || !bytes.Equal(payload, st.payload))
	st.hash = digest
	st.payload = payload
	st.initialized = true
	st.lastPoll = now
	st.polls++
	if changed {
		st.changes++
	}
	p.mu.Unlock()

	p.recordSuccess(entityType, st)

	switch {
	case first:
		p.logger.Debug("Initial snapshot", "entity_type", entityType, "count", len(items), "hash", digest.String())
		p.applier.ApplyInitial(ctx, entityType, items)
	case changed:
		p.logger.Info("Remote change detected", "entity_type", entityType, "count", len(items), "hash", digest.String())
		p.applier.ApplySnapshot(ctx, entityType, items)
		if p.publisher != nil {
			p.publisher.PublishChange(ctx, entityType, api.ChangeSnapshot, items)
		}
	default:
		p.logger.Debug("No remote changes", "entity_type", entityType)
	}

	if p.metadata != nil {
		if err := p.metadata.SaveLastPollTimestamp(ctx, entityType, now.UnixMilli()); err != nil {
			// Не прерываем цикл из-за ошибки сохранения timestamp
			p.logger.Warn("Failed to save last poll timestamp", "entity_type", entityType, "error", err)
		}
	}
	return nil
}

// Observe принимает снапшот, полученный от другого экземпляра, как
// последний известный и откладывает следующий опрос на один интервал
func (p *Poller) Observe(entityType api.EntityType, items []models.Entity) {
	st, ok := p.states[entityType]
	if !ok {
		return
	}
	if items == nil {
		items = []models.Entity{}
	}

	payload, err := crypto.CanonicalJSON(items)
	if err != nil {
		p.logger.Warn("Failed to hash observed snapshot", "entity_type", entityType, "error", err)
		return
	}
	digest := p.hasher.Sum(payload)

	p.mu.Lock()
	st.hash = digest
	st.payload = payload
	st.initialized = true
	p.mu.Unlock()

	select {
	case st.reset <- struct{}{}:
	default:
	}

	p.logger.Debug("Observed remote snapshot", "entity_type", entityType, "hash", digest.String())
}

func (p *Poller) recordFailure(entityType api.EntityType, st *typeState, err error) {
	p.mu.Lock()
	st.failures++
	st.lastErr = err
	failures := st.failures
	var event *StatusEvent
	if failures >= p.cfg.MaxFailures && !st.offline {
		st.offline = true
		event = &StatusEvent{EntityType: entityType, Status: StatusDisconnected, Failures: failures, Err: err, At: p.now()}
	}
	listeners := p.listeners
	p.mu.Unlock()

	p.logger.Warn("Poll failed", "entity_type", entityType, "failures", failures, "error", err)
	if event != nil {
		p.logger.Error("Remote unreachable", "entity_type", entityType, "failures", failures)
		p.emit(listeners, *event)
	}
}

func (p *Poller) recordSuccess(entityType api.EntityType, st *typeState) {
	p.mu.Lock()
	failures := st.failures
	st.failures = 0
	st.lastErr = nil
	st.offline = false
	listeners := p.listeners
	p.mu.Unlock()

	if failures > 0 {
		p.logger.Info("Remote reachable again", "entity_type", entityType, "after_failures", failures)
		p.emit(listeners, StatusEvent{EntityType: entityType, Status: StatusConnected, Failures: failures, At: p.now()})
	}
}

func (p *Poller) emit(listeners []func(StatusEvent), event StatusEvent) {
	for _, fn := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("Status listener panicked", "entity_type", event.EntityType, "error", fmt.Sprint(r))
				}
			}()
			fn(event)
		}()
	}
}

// Stats возвращает состояние поллинга типа
func (p *Poller) Stats(entityType api.EntityType) (Stats, bool) {
	st, ok := p.states[entityType]
	if !ok {
		return Stats{}, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	out := Stats{
		EntityType:  entityType,
		Interval:    p.Interval(entityType),
		LastPoll:    st.lastPoll,
		Failures:    st.failures,
		Polls:       st.polls,
		Changes:     st.changes,
		Initialized: st.initialized,
	}
	if st.initialized {
		out.Hash = st.hash.String()
	}
	if st.lastErr != nil {
		out.LastError = st.lastErr.Error()
	}
	return out, true
}

// AllStats возвращает состояние всех типов в порядке конфигурации
func (p *Poller) AllStats() []Stats {
	out := make([]Stats, 0, len(p.cfg.Types))
	for _, et := range p.cfg.Types {
		if s, ok := p.Stats(et); ok {
			out = append(out, s)
		}
	}
	return out
}
