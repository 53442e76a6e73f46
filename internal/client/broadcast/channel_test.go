package broadcast

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tripsync/pkg/api"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMessage(origin string) api.DataChange {
	return api.DataChange{
		Type:       api.MessageTypeDataChange,
		Table:      api.EntityDestinations,
		ChangeType: api.ChangeInsert,
		Origin:     origin,
		Data:       json.RawMessage(`{"id":"d-1"}`),
		Timestamp:  1714557600000,
	}
}

func TestHub_OpenSharesChannelByName(t *testing.T) {
	hub := NewHub(newTestLogger())

	a := hub.Open("tripsync")
	b := hub.Open("tripsync")
	other := hub.Open("other")

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
	assert.Equal(t, DefaultChannelName, hub.Open("").Name())
}

func TestMemoryChannel_PublishSubscribe(t *testing.T) {
	ctx := context.Background()
	ch := NewHub(newTestLogger()).Open("test")

	var first, second []api.DataChange
	ch.Subscribe(func(msg api.DataChange) { first = append(first, msg) })
	cancel := ch.Subscribe(func(msg api.DataChange) { second = append(second, msg) })
	assert.Equal(t, 2, ch.Subscribers())

	require.NoError(t, ch.Publish(ctx, testMessage("a")))
	cancel()
	cancel()
	require.NoError(t, ch.Publish(ctx, testMessage("b")))

	require.Len(t, first, 2)
	require.Len(t, second, 1)
	assert.Equal(t, "a", second[0].Origin)
	assert.JSONEq(t, `{"id":"d-1"}`, string(first[0].Data))
	assert.Equal(t, 1, ch.Subscribers())
}

func TestMemoryChannel_ListenersGetCopies(t *testing.T) {
	ch := NewHub(newTestLogger()).Open("test")

	ch.Subscribe(func(msg api.DataChange) {
		msg.Data[2] = 'X'
	})
	var got api.DataChange
	ch.Subscribe(func(msg api.DataChange) { got = msg })

	require.NoError(t, ch.Publish(context.Background(), testMessage("a")))
	assert.JSONEq(t, `{"id":"d-1"}`, string(got.Data))
}

func TestMemoryChannel_PanickingListener(t *testing.T) {
	ch := NewHub(newTestLogger()).Open("test")

	ch.Subscribe(func(api.DataChange) { panic("bad listener") })
	delivered := 0
	ch.Subscribe(func(api.DataChange) { delivered++ })

	require.NoError(t, ch.Publish(context.Background(), testMessage("a")))
	assert.Equal(t, 1, delivered)
}

func TestMemoryChannel_Closed(t *testing.T) {
	hub := NewHub(newTestLogger())
	ch := hub.Open("test")
	ch.Subscribe(func(api.DataChange) {})

	hub.Close()

	err := ch.Publish(context.Background(), testMessage("a"))
	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.Zero(t, ch.Subscribers())

	// повторное открытие создает новый канал
	reopened := hub.Open("test")
	assert.NotSame(t, ch, reopened)
	assert.NoError(t, reopened.Publish(context.Background(), testMessage("a")))
}

func TestMemoryChannel_CancelledContext(t *testing.T) {
	ch := NewHub(newTestLogger()).Open("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, ch.Publish(ctx, testMessage("a")), context.Canceled)
}
