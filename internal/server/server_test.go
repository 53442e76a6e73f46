package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientapi "github.com/iudanet/tripsync/internal/client/api"
	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/internal/server/handlers"
	"github.com/iudanet/tripsync/internal/server/middleware"
	"github.com/iudanet/tripsync/internal/server/storage/sqlite"
	"github.com/iudanet/tripsync/pkg/api"
)

var testJWT = handlers.JWTConfig{
	Secret:         []byte("router-test-secret"),
	AccessTokenTTL: time.Hour,
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, limiter *middleware.RateLimiter) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	router := NewRouter(Config{Version: "test", JWT: testJWT}, store, store, limiter, setupTestLogger())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newToken(t *testing.T) string {
	t.Helper()
	token, _, err := handlers.GenerateAccessToken(testJWT, "tester")
	require.NoError(t, err)
	return token
}

func TestRouter_HealthIsPublic(t *testing.T) {
	srv := newTestServer(t, nil)

	client := clientapi.NewClient(srv.URL+"/api", nil)
	require.NoError(t, client.Health(context.Background()))
}

func TestRouter_EntitiesRequireToken(t *testing.T) {
	srv := newTestServer(t, nil)

	client := clientapi.NewClient(srv.URL+"/api", nil)
	_, err := client.List(context.Background(), api.EntityDestinations, nil)
	assert.ErrorIs(t, err, clientapi.ErrUnauthorized)

	bad := clientapi.NewClient(srv.URL+"/api", clientapi.StaticToken("garbage"))
	_, err = bad.List(context.Background(), api.EntityDestinations, nil)
	assert.ErrorIs(t, err, clientapi.ErrUnauthorized)
}

func TestRouter_ClientRoundTrip(t *testing.T) {
	srv := newTestServer(t, nil)
	ctx := context.Background()
	client := clientapi.NewClient(srv.URL+"/api", clientapi.StaticToken(newToken(t)))

	items, err := client.List(ctx, api.EntityDestinations, nil)
	require.NoError(t, err)
	assert.Empty(t, items)

	created, err := client.Create(ctx, api.EntityDestinations, models.Entity{"name": "Lisbon", "country": "PT"})
	require.NoError(t, err)
	id := created.ID()
	require.NotEmpty(t, id)
	_, ok := created.CreatedAt()
	assert.True(t, ok)

	_, err = client.Create(ctx, api.EntityDestinations, models.Entity{"name": "Porto", "country": "PT"})
	require.NoError(t, err)
	_, err = client.Create(ctx, api.EntityDestinations, models.Entity{"name": "Madrid", "country": "ES"})
	require.NoError(t, err)

	filtered, err := client.List(ctx, api.EntityDestinations, map[string]string{"country": "PT"})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	updated, err := client.Update(ctx, api.EntityDestinations, id, models.Entity{"name": "Lisboa"})
	require.NoError(t, err)
	assert.Equal(t, id, updated.ID())
	assert.Equal(t, "Lisboa", updated["name"])
	assert.Equal(t, "PT", updated["country"])

	require.NoError(t, client.Delete(ctx, api.EntityDestinations, id))

	err = client.Delete(ctx, api.EntityDestinations, id)
	var apiErr *clientapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	items, err = client.List(ctx, api.EntityDestinations, nil)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRouter_UnknownType(t *testing.T) {
	srv := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/spaceships", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+newToken(t))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_RateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute, setupTestLogger())
	t.Cleanup(limiter.Stop)
	srv := newTestServer(t, limiter)

	client := clientapi.NewClient(srv.URL+"/api", nil)
	ctx := context.Background()
	require.NoError(t, client.Health(ctx))
	require.NoError(t, client.Health(ctx))

	err := client.Health(ctx)
	var apiErr *clientapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}
