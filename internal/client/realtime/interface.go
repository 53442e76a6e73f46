package realtime

import (
	"context"

	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

// Source отдает текущий снапшот типа; реализуется api.Client
type Source interface {
	List(ctx context.Context, entityType api.EntityType, filters map[string]string) ([]models.Entity, error)
}

//go:generate moq -out applier_mock.go . Applier

// Applier применяет снапшоты к локальному состоянию; реализуется state.Store
type Applier interface {
	// ApplyInitial первый снапшот после (пере)запуска, всегда уведомляет FETCH
	ApplyInitial(ctx context.Context, entityType api.EntityType, items []models.Entity)
	// ApplySnapshot измененный снапшот, уведомляет UPDATE если items изменились
	ApplySnapshot(ctx context.Context, entityType api.EntityType, items []models.Entity) bool
}

// Publisher рассылает снапшоты другим экземплярам
type Publisher interface {
	PublishChange(ctx context.Context, entityType api.EntityType, change api.ChangeType, data any)
}
