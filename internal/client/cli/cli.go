package cli

import (
	"context"
	"time"

	"github.com/iudanet/tripsync/internal/client/app"
	"github.com/iudanet/tripsync/internal/client/iocli"
	"github.com/iudanet/tripsync/internal/client/storage"
)

// TokenManager управление сохраненным bearer токеном
type TokenManager interface {
	SetToken(ctx context.Context, token string) (*storage.AuthData, error)
	Clear(ctx context.Context) error
	Info(ctx context.Context) (*storage.AuthData, error)
}

type Cli struct {
	io       iocli.IO
	engine   *app.App
	tokens   TokenManager
	cache    storage.CacheStorage
	metadata storage.MetadataStorage
	now      func() time.Time
}

func New(io iocli.IO, engine *app.App, tokens TokenManager, cache storage.CacheStorage, metadata storage.MetadataStorage) *Cli {
	return &Cli{
		io:       io,
		engine:   engine,
		tokens:   tokens,
		cache:    cache,
		metadata: metadata,
		now:      time.Now,
	}
}

// NewFromRuntime собирает Cli поверх открытого экземпляра движка
func NewFromRuntime(io iocli.IO, rt *app.Runtime) *Cli {
	return New(io, rt.App, rt.Tokens, rt.Storage, rt.Storage)
}
