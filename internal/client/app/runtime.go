package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	clientapi "github.com/iudanet/tripsync/internal/client/api"
	"github.com/iudanet/tripsync/internal/client/auth"
	"github.com/iudanet/tripsync/internal/client/broadcast"
	"github.com/iudanet/tripsync/internal/client/config"
	"github.com/iudanet/tripsync/internal/client/storage/boltdb"
)

// Runtime экземпляр движка вместе с открытыми ресурсами процесса
type Runtime struct {
	*App
	Storage *boltdb.Storage
	Tokens  *auth.TokenStore
	API     *clientapi.Client
	Hub     *broadcast.Hub
	// Feed канал поверх файла БД; nil, если используется Hub или канал отключен
	Feed   *broadcast.LogChannel
	Config config.Config
}

// Open открывает локальную базу, хранилище токена, API клиент и канал
// с именем из конфигурации, затем собирает экземпляр движка.
//
// База открывается в shared режиме: блокировка файла держится только на время
// транзакции, поэтому несколько процессов работают с одним кэшем. Если hub
// задан, экземпляры одного процесса связываются через него. Иначе канал
// строится на ленте изменений в том же файле и доходит до других процессов.
func Open(ctx context.Context, cfg config.Config, hub *broadcast.Hub, logger *slog.Logger) (*Runtime, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := boltdb.OpenShared(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	tokens := auth.NewTokenStore(db)
	apiClient := clientapi.NewClient(cfg.APIURL, tokens)

	deps := Deps{
		API:      apiClient,
		Cache:    db,
		Metadata: db,
		Logger:   logger,
	}

	var feed *broadcast.LogChannel
	switch {
	case cfg.Channel == "":
	case hub != nil:
		deps.Channel = hub.Open(cfg.Channel)
	default:
		feed, err = broadcast.OpenLogChannel(ctx, db, cfg.Channel, cfg.ChannelPollInterval, logger.With("component", "feed"))
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to open broadcast channel: %w", err)
		}
		deps.Channel = feed
	}

	return &Runtime{
		App:     New(cfg, deps),
		Storage: db,
		Tokens:  tokens,
		API:     apiClient,
		Hub:     hub,
		Feed:    feed,
		Config:  cfg,
	}, nil
}

// Close останавливает движок, канал и закрывает базу
func (r *Runtime) Close() error {
	r.Stop()
	if r.Feed != nil {
		r.Feed.Close()
	}
	if err := r.Storage.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
