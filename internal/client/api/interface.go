package api

import (
	"context"

	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI удаленный REST API коллекций entities
type ClientAPI interface {
	// List возвращает все entities типа, filters передаются как query параметры
	List(ctx context.Context, entityType api.EntityType, filters map[string]string) ([]models.Entity, error)
	// Create создает entity и возвращает ее серверную версию
	Create(ctx context.Context, entityType api.EntityType, data models.Entity) (models.Entity, error)
	// Update частично обновляет entity и возвращает ее серверную версию
	Update(ctx context.Context, entityType api.EntityType, id string, data models.Entity) (models.Entity, error)
	// Delete удаляет entity
	Delete(ctx context.Context, entityType api.EntityType, id string) error
}

//go:generate moq -out tokensource_mock.go . TokenSource

// TokenSource отдает текущий bearer токен
// Пустая строка без ошибки означает, что токена нет и заголовок не ставится
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken TokenSource с фиксированным значением
type StaticToken string

// Token реализует TokenSource
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}
