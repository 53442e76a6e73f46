// Package server собирает HTTP API каталога из handlers и middleware.
package server

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/tripsync/internal/server/handlers"
	"github.com/iudanet/tripsync/internal/server/middleware"
	"github.com/iudanet/tripsync/internal/server/storage"
	"github.com/iudanet/tripsync/pkg/api"
)

// HealthPath путь health check; не требует токена и не логируется
const HealthPath = "/api/health"

// Config настройки роутера
type Config struct {
	Version string
	JWT     handlers.JWTConfig
	Types   []api.EntityType
}

// NewRouter создает http.Handler с маршрутами каталога
// Цепочка: recovery -> logging -> rate limit -> mux; CRUD маршруты за JWT.
// limiter и db могут быть nil.
func NewRouter(cfg Config, store storage.EntityStorage, db handlers.Pinger, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	entities := handlers.NewEntityHandler(logger, store, cfg.Types)
	health := handlers.NewHealthHandler(logger, db, cfg.Version)
	auth := middleware.AuthMiddleware(logger, cfg.JWT)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+HealthPath, health.Health)
	mux.Handle("GET /api/{type}", auth(http.HandlerFunc(entities.List)))
	mux.Handle("POST /api/{type}", auth(http.HandlerFunc(entities.Create)))
	mux.Handle("PUT /api/{type}/{id}", auth(http.HandlerFunc(entities.Update)))
	mux.Handle("DELETE /api/{type}/{id}", auth(http.HandlerFunc(entities.Delete)))

	var handler http.Handler = mux
	if limiter != nil {
		handler = middleware.RateLimitMiddleware(limiter)(handler)
	}
	handler = middleware.LoggingWithSkip(logger, []string{HealthPath})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	return handler
}
