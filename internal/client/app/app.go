// Package app wires the entity store, the remote change poller and the
// cross-instance relay into one engine instance.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	clientapi "github.com/iudanet/tripsync/internal/client/api"
	"github.com/iudanet/tripsync/internal/client/broadcast"
	"github.com/iudanet/tripsync/internal/client/config"
	"github.com/iudanet/tripsync/internal/client/realtime"
	"github.com/iudanet/tripsync/internal/client/state"
	"github.com/iudanet/tripsync/internal/client/storage"
	"github.com/iudanet/tripsync/pkg/api"
)

// ErrAlreadyStarted Start вызван повторно
var ErrAlreadyStarted = errors.New("engine already started")

// Deps внешние зависимости экземпляра
type Deps struct {
	API      clientapi.ClientAPI
	Cache    storage.CacheStorage
	Metadata storage.MetadataStorage
	// Channel nil отключает синхронизацию между экземплярами
	Channel broadcast.Channel
	Logger  *slog.Logger
	// Clock nil означает time.Now
	Clock func() time.Time
}

// App один экземпляр движка синхронизации
type App struct {
	Store  *state.Store
	Poller *realtime.Poller
	Relay  *broadcast.Relay
	logger *slog.Logger
	mu     sync.Mutex
	// started защищен mu
	started bool
}

// New собирает экземпляр; фоновая работа начинается только в Start
func New(cfg config.Config, deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := state.New(deps.API, deps.Cache, logger.With("component", "store"), state.Options{
		TTL:   cfg.TTL,
		Clock: deps.Clock,
	})

	relay := broadcast.NewRelay(deps.Channel, store, logger.With("component", "relay"))
	store.SetPublisher(relay)

	poller := realtime.New(deps.API, store, logger.With("component", "poller"), PollerConfig(cfg, store.Types()), realtime.Options{
		Publisher: relay,
		Metadata:  deps.Metadata,
		Clock:     deps.Clock,
	})
	relay.SetObserver(poller)

	return &App{
		Store:  store,
		Poller: poller,
		Relay:  relay,
		logger: logger,
	}
}

// PollerConfig переводит настройки клиента в настройки поллера
func PollerConfig(cfg config.Config, types []api.EntityType) realtime.Config {
	return realtime.Config{
		Types:       types,
		Interval:    cfg.PollInterval,
		Intervals:   cfg.PollIntervals,
		BaseDelay:   cfg.PollBaseDelay,
		MaxDelay:    cfg.PollMaxDelay,
		MaxFailures: cfg.PollMaxFailures,
	}
}

// Start поднимает кэш, подписывает relay и запускает поллер
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return ErrAlreadyStarted
	}

	loaded, err := a.Store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}
	a.logger.Info("Cache loaded", "types", loaded)

	a.Relay.Start()
	if err := a.Poller.Start(ctx); err != nil {
		a.Relay.Stop()
		return fmt.Errorf("failed to start poller: %w", err)
	}

	a.started = true
	return nil
}

// Stop останавливает поллер и relay; повторный вызов безопасен
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return
	}
	a.Poller.Stop()
	a.Relay.Stop()
	a.started = false
	a.logger.Info("Engine stopped")
}
