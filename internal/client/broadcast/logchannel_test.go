package broadcast

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tripsync/internal/client/storage"
	"github.com/iudanet/tripsync/internal/client/storage/boltdb"
	"github.com/iudanet/tripsync/pkg/api"
)

// openSharedLog открывает отдельный handle на общий файл, как это делает каждый процесс
func openSharedLog(t *testing.T, path string) *boltdb.Storage {
	t.Helper()

	store, err := boltdb.OpenShared(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestLogChannel_DeliversBetweenHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tripsync.db")

	// Интервал большой: чтение запускаем вручную через Poll
	a, err := OpenLogChannel(ctx, openSharedLog(t, path), "tripsync", time.Hour, newTestLogger())
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenLogChannel(ctx, openSharedLog(t, path), "tripsync", time.Hour, newTestLogger())
	require.NoError(t, err)
	defer b.Close()

	var got []api.DataChange
	b.Subscribe(func(msg api.DataChange) { got = append(got, msg) })

	require.NoError(t, a.Publish(ctx, testMessage("a")))
	require.NoError(t, a.Publish(ctx, testMessage("a2")))

	n, err := b.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Origin)
	assert.Equal(t, "a2", got[1].Origin)
	assert.JSONEq(t, `{"id":"d-1"}`, string(got[0].Data))

	// Повторное чтение ничего не доставляет
	n, err = b.Poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, got, 2)
}

func TestLogChannel_SkipsHistoryBeforeOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tripsync.db")
	store := openSharedLog(t, path)

	_, err := store.AppendChange(ctx, "tripsync", testMessage("old"))
	require.NoError(t, err)

	ch, err := OpenLogChannel(ctx, store, "", time.Hour, newTestLogger())
	require.NoError(t, err)
	defer ch.Close()
	assert.Equal(t, DefaultChannelName, ch.Name())

	var got []api.DataChange
	ch.Subscribe(func(msg api.DataChange) { got = append(got, msg) })

	require.NoError(t, ch.Publish(ctx, testMessage("new")))
	_, err = ch.Poll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Origin)
}

func TestLogChannel_BackgroundPolling(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tripsync.db")

	writer, err := OpenLogChannel(ctx, openSharedLog(t, path), "tripsync", time.Hour, newTestLogger())
	require.NoError(t, err)
	defer writer.Close()
	reader, err := OpenLogChannel(ctx, openSharedLog(t, path), "tripsync", 10*time.Millisecond, newTestLogger())
	require.NoError(t, err)
	defer reader.Close()

	var mu sync.Mutex
	var origins []string
	reader.Subscribe(func(msg api.DataChange) {
		mu.Lock()
		origins = append(origins, msg.Origin)
		mu.Unlock()
	})

	require.NoError(t, writer.Publish(ctx, testMessage("writer")))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(origins) == 1 && origins[0] == "writer"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLogChannel_ListenerPanicDoesNotStopDelivery(t *testing.T) {
	ctx := context.Background()
	ch, err := OpenLogChannel(ctx, openSharedLog(t, filepath.Join(t.TempDir(), "tripsync.db")), "tripsync", time.Hour, newTestLogger())
	require.NoError(t, err)
	defer ch.Close()

	var delivered int
	ch.Subscribe(func(api.DataChange) { panic("boom") })
	cancel := ch.Subscribe(func(api.DataChange) { delivered++ })
	assert.Equal(t, 2, ch.Subscribers())

	require.NoError(t, ch.Publish(ctx, testMessage("a")))
	_, err = ch.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	cancel()
	cancel()
	assert.Equal(t, 1, ch.Subscribers())
}

func TestLogChannel_Closed(t *testing.T) {
	ctx := context.Background()
	ch, err := OpenLogChannel(ctx, openSharedLog(t, filepath.Join(t.TempDir(), "tripsync.db")), "tripsync", time.Hour, newTestLogger())
	require.NoError(t, err)

	ch.Close()
	ch.Close()

	assert.ErrorIs(t, ch.Publish(ctx, testMessage("a")), ErrChannelClosed)
	assert.Zero(t, ch.Subscribers())
}

func TestLogChannel_StorageErrors(t *testing.T) {
	ctx := context.Background()
	readErr := errors.New("disk gone")

	_, err := OpenLogChannel(ctx, &storage.ChangeLogMock{
		LastChangeSeqFunc: func(ctx context.Context, channel string) (uint64, error) {
			return 0, readErr
		},
	}, "tripsync", time.Hour, newTestLogger())
	assert.ErrorIs(t, err, readErr)

	log := &storage.ChangeLogMock{
		LastChangeSeqFunc: func(ctx context.Context, channel string) (uint64, error) {
			return 5, nil
		},
		AppendChangeFunc: func(ctx context.Context, channel string, change api.DataChange) (uint64, error) {
			return 0, storage.ErrStorageClosed
		},
		ChangesSinceFunc: func(ctx context.Context, channel string, after uint64) ([]storage.LoggedChange, error) {
			return nil, readErr
		},
	}
	ch, err := OpenLogChannel(ctx, log, "tripsync", time.Hour, newTestLogger())
	require.NoError(t, err)
	defer ch.Close()

	assert.ErrorIs(t, ch.Publish(ctx, testMessage("a")), storage.ErrStorageClosed)

	_, err = ch.Poll(ctx)
	assert.ErrorIs(t, err, readErr)
	require.Len(t, log.ChangesSinceCalls(), 1)
	assert.Equal(t, uint64(5), log.ChangesSinceCalls()[0].After)
}
