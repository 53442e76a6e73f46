package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/tripsync/internal/client/api"
	"github.com/iudanet/tripsync/internal/client/storage"
)

// TokenStore хранит bearer токен между запусками и отдает его API клиенту
// Токен выдается внешней системой, TokenStore не обновляет его
type TokenStore struct {
	storage storage.AuthStorage
}

// Compile-time check that TokenStore implements api.TokenSource
var _ api.TokenSource = (*TokenStore)(nil)

// NewTokenStore creates a new TokenStore over the given storage
func NewTokenStore(storage storage.AuthStorage) *TokenStore {
	return &TokenStore{
		storage: storage,
	}
}

// Token возвращает текущий токен или пустую строку, если токена нет
// Истекший токен тоже отдается: сервер ответит 401, и это станет
// ошибкой fetch или mutation
func (s *TokenStore) Token(ctx context.Context) (string, error) {
	auth, err := s.storage.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return auth.AccessToken, nil
}

// SetToken сохраняет токен
// Если токен является JWT, из него без проверки подписи берутся sub и exp,
// чтобы status мог показать срок действия. Непрозрачные токены сохраняются как есть.
func (s *TokenStore) SetToken(ctx context.Context, token string) (*storage.AuthData, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	auth := &storage.AuthData{AccessToken: token}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil {
		auth.Subject = claims.Subject
		if claims.ExpiresAt != nil {
			auth.ExpiresAt = claims.ExpiresAt.Unix()
		}
	}

	if err := s.storage.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}
	return auth, nil
}

// Clear удаляет сохраненный токен; отсутствие токена не ошибка
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.storage.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrTokenNotFound) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Info возвращает сохраненные данные токена
// Returns storage.ErrTokenNotFound if no token exists
func (s *TokenStore) Info(ctx context.Context) (*storage.AuthData, error) {
	return s.storage.GetAuth(ctx)
}

// IsAuthenticated проверяет наличие непросроченного токена
func (s *TokenStore) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.storage.IsAuthenticated(ctx)
}

// ExpiresAt возвращает срок действия токена, если он известен
func ExpiresAt(auth *storage.AuthData) (time.Time, bool) {
	if auth == nil || auth.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(auth.ExpiresAt, 0), true
}
