package storage

import (
	"context"
)

// AuthStorage defines interface for storing the bearer token on client
// The engine never issues tokens, it only keeps whatever was provided
type AuthStorage interface {
	// SaveAuth stores the token data as-is
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored token data
	// Returns ErrTokenNotFound if no token exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes the stored token
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated checks if a token exists and is not expired
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData represents stored bearer token information
// ExpiresAt is unix seconds, 0 means the expiry is unknown
type AuthData struct {
	AccessToken string `json:"access_token"`
	Subject     string `json:"subject,omitempty"`
	ExpiresAt   int64  `json:"expires_at"`
}
