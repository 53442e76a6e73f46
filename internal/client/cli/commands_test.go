package cli

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tripsync/internal/client/app"
	"github.com/iudanet/tripsync/internal/client/config"
	"github.com/iudanet/tripsync/pkg/api"
)

// catalogServer отдает одну destination и пустые списки остальных типов
func catalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		data := []map[string]any{}
		if r.URL.Path == "/api/destinations" {
			data = append(data, map[string]any{"id": "d-1", "name": "Lisbon"})
		}
		resp, err := api.NewResponse(data)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type commandEnv struct {
	out    *output
	dir    string
	apiURL string
}

func newCommandEnv(t *testing.T) *commandEnv {
	t.Helper()
	for _, key := range []string{
		config.EnvAPIURL, config.EnvDBPath, config.EnvChannel,
		config.EnvLogLevel, config.EnvPollInterval, config.EnvMaxFailures,
	} {
		t.Setenv(key, "")
	}
	return &commandEnv{
		out:    &output{},
		dir:    t.TempDir(),
		apiURL: catalogServer(t).URL + "/api",
	}
}

func (e *commandEnv) run(args ...string) error {
	root := NewRootCommand(Options{
		IO:        newMockIO(e.out),
		LogOutput: io.Discard,
		Version:   "1.2.3",
		BuildDate: "2026-03-14",
		GitCommit: "abc123",
	})
	root.SetArgs(append([]string{
		"--config", filepath.Join(e.dir, "missing.toml"),
		"--db", filepath.Join(e.dir, "tripsync.db"),
		"--api-url", e.apiURL,
	}, args...))
	return root.Execute()
}

func TestRootCommand_Version(t *testing.T) {
	env := newCommandEnv(t)

	require.NoError(t, env.run("version"))

	text := env.out.String()
	assert.Contains(t, text, "TripSync Client")
	assert.Contains(t, text, "Version:    1.2.3")
	assert.Contains(t, text, "Git Commit: abc123")
}

func TestRootCommand_List(t *testing.T) {
	env := newCommandEnv(t)

	require.NoError(t, env.run("list", "destinations"))

	text := env.out.String()
	assert.Contains(t, text, "=== destinations (1) ===")
	assert.Contains(t, text, `name="Lisbon"`)
}

func TestRootCommand_ListInvalidFilter(t *testing.T) {
	env := newCommandEnv(t)

	err := env.run("list", "destinations", "--filter", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")
}

func TestRootCommand_InvalidType(t *testing.T) {
	env := newCommandEnv(t)

	err := env.run("list", "Bad Type")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid entity type")
}

func TestRootCommand_InvalidLogLevel(t *testing.T) {
	env := newCommandEnv(t)

	err := env.run("--log-level", "loud", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRootCommand_StatePersistsBetweenRuns(t *testing.T) {
	env := newCommandEnv(t)

	require.NoError(t, env.run("token", "set", "opaque-token"))
	require.NoError(t, env.run("list", "destinations"))
	require.NoError(t, env.run("status"))

	text := env.out.String()
	assert.Contains(t, text, "✓ Token saved")
	assert.Contains(t, text, "Status: Set")
	assert.Contains(t, text, "cache: 1 item(s)")
	assert.True(t, strings.Contains(text, "Instance: "), "channel from default config should be enabled")

	require.NoError(t, env.run("cache", "clear"))
	require.NoError(t, env.run("token", "clear"))
	require.NoError(t, env.run("status"))
	assert.Contains(t, env.out.String(), "Status: Not set")
}

func TestRootCommand_WatchOnce(t *testing.T) {
	env := newCommandEnv(t)

	require.NoError(t, env.run("watch", "--once", "destinations", "bookings"))

	text := env.out.String()
	assert.Contains(t, text, "destinations")
	assert.Contains(t, text, "bookings")
	assert.Contains(t, text, "FETCH")
}

func TestRootCommand_CreateRequiresArgs(t *testing.T) {
	env := newCommandEnv(t)

	err := env.run("create", "destinations")
	require.Error(t, err)
}

func TestRootCommand_RunsNextToLongLivedInstance(t *testing.T) {
	env := newCommandEnv(t)
	ctx := context.Background()

	// Долгоживущий экземпляр на том же файле, как запущенный в другом терминале watch
	cfg := config.Default()
	cfg.DBPath = filepath.Join(env.dir, "tripsync.db")
	cfg.APIURL = env.apiURL
	rt, err := app.Open(ctx, cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, rt.Close())
	}()

	require.NoError(t, env.run("token", "set", "opaque-token"))
	require.NoError(t, env.run("list", "destinations"))
	assert.Contains(t, env.out.String(), "=== destinations (1) ===")

	token, err := rt.Tokens.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token)

	rec, err := rt.Storage.GetCache(ctx, api.EntityDestinations)
	require.NoError(t, err)
	assert.Len(t, rec.Data, 1)
}
