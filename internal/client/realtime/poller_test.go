package realtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientapi "github.com/iudanet/tripsync/internal/client/api"
	"github.com/iudanet/tripsync/internal/client/state"
	"github.com/iudanet/tripsync/internal/client/storage"
	"github.com/iudanet/tripsync/internal/crypto"
	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sequenceSource отдает снапшоты по очереди, последний повторяется
func sequenceSource(snapshots ...[]models.Entity) *clientapi.ClientAPIMock {
	var n atomic.Int32
	return &clientapi.ClientAPIMock{
		ListFunc: func(ctx context.Context, entityType api.EntityType, filters map[string]string) ([]models.Entity, error) {
			i := int(n.Add(1)) - 1
			if i >= len(snapshots) {
				i = len(snapshots) - 1
			}
			return models.CloneAll(snapshots[i]), nil
		},
	}
}

type published struct {
	data       any
	entityType api.EntityType
	change     api.ChangeType
}

type fakePublisher struct {
	changes []published
	mu      sync.Mutex
}

func (p *fakePublisher) PublishChange(ctx context.Context, entityType api.EntityType, change api.ChangeType, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, published{entityType: entityType, change: change, data: data})
}

func (p *fakePublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]published, len(p.changes))
	copy(out, p.changes)
	return out
}

type statusRecorder struct {
	events []StatusEvent
	mu     sync.Mutex
}

func (r *statusRecorder) listener(e StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *statusRecorder) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Status)
	}
	return out
}

// constantHasher всегда возвращает один и тот же хеш
type constantHasher struct{}

func (constantHasher) Sum([]byte) crypto.Digest {
	return crypto.Digest{1, 2, 3}
}

func noopApplier() *ApplierMock {
	return &ApplierMock{
		ApplyInitialFunc: func(ctx context.Context, entityType api.EntityType, items []models.Entity) {},
		ApplySnapshotFunc: func(ctx context.Context, entityType api.EntityType, items []models.Entity) bool {
			return true
		},
	}
}

func singleType(et api.EntityType) Config {
	cfg := DefaultConfig()
	cfg.Types = []api.EntityType{et}
	return cfg
}

func opsRecorder(s *state.Store, et api.EntityType) func() []state.Operation {
	var mu sync.Mutex
	var ops []state.Operation
	s.Subscribe(et, func(op state.Operation, payload any, items []models.Entity) {
		mu.Lock()
		defer mu.Unlock()
		ops = append(ops, op)
	})
	return func() []state.Operation {
		mu.Lock()
		defer mu.Unlock()
		out := make([]state.Operation, len(ops))
		copy(out, ops)
		return out
	}
}

func TestPollNow_SamePayloadTwice(t *testing.T) {
	ctx := context.Background()
	snapshot := []models.Entity{{"id": "d-1", "name": "Cebu"}, {"id": "d-2", "name": "Bohol"}}
	source := sequenceSource(snapshot, snapshot)
	store := state.New(source, nil, newTestLogger(), state.Options{})
	ops := opsRecorder(store, api.EntityDestinations)
	pub := &fakePublisher{}

	p := New(source, store, newTestLogger(), singleType(api.EntityDestinations), Options{Publisher: pub})

	require.NoError(t, p.PollNow(ctx, api.EntityDestinations))
	require.NoError(t, p.PollNow(ctx, api.EntityDestinations))

	assert.Equal(t, []state.Operation{state.OpFetch}, ops())
	assert.Empty(t, pub.all())

	stats, ok := p.Stats(api.EntityDestinations)
	require.True(t, ok)
	assert.Equal(t, 2, stats.Polls)
	assert.Zero(t, stats.Changes)
}

func TestPollNow_DetectsChange(t *testing.T) {
	ctx := context.Background()
	a := []models.Entity{{"id": "b-1", "guests": 2}}
	b := []models.Entity{{"id": "b-1", "guests": 3}, {"id": "b-2", "guests": 1}}
	source := sequenceSource(a, b, b)
	store := state.New(source, nil, newTestLogger(), state.Options{})
	ops := opsRecorder(store, api.EntityBookings)
	pub := &fakePublisher{}

	p := New(source, store, newTestLogger(), singleType(api.EntityBookings), Options{Publisher: pub})

	for i := 0; i < 3; i++ {
		require.NoError(t, p.PollNow(ctx, api.EntityBookings))
	}

	assert.Equal(t, []state.Operation{state.OpFetch, state.OpUpdate}, ops())
	assert.Len(t, store.Items(api.EntityBookings), 2)

	changes := pub.all()
	require.Len(t, changes, 1)
	assert.Equal(t, api.ChangeSnapshot, changes[0].change)
	assert.Equal(t, api.EntityBookings, changes[0].entityType)

	stats, _ := p.Stats(api.EntityBookings)
	assert.Equal(t, 1, stats.Changes)
}

func TestPollNow_HashCollisionStillDetected(t *testing.T) {
	ctx := context.Background()
	a := []models.Entity{{"id": "p-1", "price": 100}}
	b := []models.Entity{{"id": "p-1", "price": 120}}
	applier := noopApplier()

	p := New(sequenceSource(a, b, b), applier, newTestLogger(), singleType(api.EntityPackages), Options{Hasher: constantHasher{}})

	for i := 0; i < 3; i++ {
		require.NoError(t, p.PollNow(ctx, api.EntityPackages))
	}

	assert.Len(t, applier.ApplyInitialCalls(), 1)
	require.Len(t, applier.ApplySnapshotCalls(), 1)
	assert.EqualValues(t, 120, applier.ApplySnapshotCalls()[0].Items[0]["price"])
}

func TestPollNow_NilSnapshotIsEmpty(t *testing.T) {
	ctx := context.Background()
	source := &clientapi.ClientAPIMock{
		ListFunc: func(ctx context.Context, entityType api.EntityType, filters map[string]string) ([]models.Entity, error) {
			return nil, nil
		},
	}
	applier := noopApplier()
	p := New(source, applier, newTestLogger(), singleType(api.EntityActivities), Options{})

	require.NoError(t, p.PollNow(ctx, api.EntityActivities))
	require.Len(t, applier.ApplyInitialCalls(), 1)
	assert.NotNil(t, applier.ApplyInitialCalls()[0].Items)
}

func TestPollNow_UnknownType(t *testing.T) {
	p := New(&clientapi.ClientAPIMock{}, noopApplier(), newTestLogger(), singleType(api.EntityActivities), Options{})

	err := p.PollNow(context.Background(), api.EntityBookings)
	assert.ErrorIs(t, err, ErrUnknownType)

	_, ok := p.Stats(api.EntityBookings)
	assert.False(t, ok)
}

func TestPollNow_FailureStatus(t *testing.T) {
	ctx := context.Background()
	netErr := errors.New("connection refused")
	var fail atomic.Bool
	fail.Store(true)
	source := &clientapi.ClientAPIMock{
		ListFunc: func(ctx context.Context, entityType api.EntityType, filters map[string]string) ([]models.Entity, error) {
			if fail.Load() {
				return nil, netErr
			}
			return []models.Entity{{"id": "d-1"}}, nil
		},
	}
	applier := noopApplier()
	rec := &statusRecorder{}

	cfg := singleType(api.EntityDestinations)
	cfg.MaxFailures = 3
	p := New(source, applier, newTestLogger(), cfg, Options{})
	p.OnStatus(rec.listener)

	for i := 0; i < 4; i++ {
		err := p.PollNow(ctx, api.EntityDestinations)
		require.Error(t, err)
		assert.ErrorIs(t, err, netErr)
		if i < 2 {
			assert.Empty(t, rec.statuses())
		}
	}
	assert.Equal(t, []Status{StatusDisconnected}, rec.statuses())

	stats, _ := p.Stats(api.EntityDestinations)
	assert.Equal(t, 4, stats.Failures)
	assert.Equal(t, netErr.Error(), stats.LastError)
	assert.False(t, stats.Initialized)
	assert.Empty(t, applier.ApplyInitialCalls())

	fail.Store(false)
	require.NoError(t, p.PollNow(ctx, api.EntityDestinations))
	require.NoError(t, p.PollNow(ctx, api.EntityDestinations))

	assert.Equal(t, []Status{StatusDisconnected, StatusConnected}, rec.statuses())
	rec.mu.Lock()
	assert.Equal(t, 3, rec.events[0].Failures)
	assert.ErrorIs(t, rec.events[0].Err, netErr)
	assert.Equal(t, 4, rec.events[1].Failures)
	rec.mu.Unlock()

	stats, _ = p.Stats(api.EntityDestinations)
	assert.Zero(t, stats.Failures)
	assert.Empty(t, stats.LastError)
	assert.Len(t, applier.ApplyInitialCalls(), 1)
}

func TestPollNow_StatusListenerPanic(t *testing.T) {
	source := &clientapi.ClientAPIMock{
		ListFunc: func(ctx context.Context, entityType api.EntityType, filters map[string]string) ([]models.Entity, error) {
			return nil, errors.New("timeout")
		},
	}
	rec := &statusRecorder{}
	cfg := singleType(api.EntityBookings)
	cfg.MaxFailures = 1
	p := New(source, noopApplier(), newTestLogger(), cfg, Options{})
	p.OnStatus(func(StatusEvent) { panic("listener bug") })
	p.OnStatus(rec.listener)

	require.Error(t, p.PollNow(context.Background(), api.EntityBookings))
	assert.Equal(t, []Status{StatusDisconnected}, rec.statuses())
}

func TestObserve_SkipsDuplicateFetch(t *testing.T) {
	ctx := context.Background()
	snapshot := []models.Entity{{"id": "a-1", "title": "Island hopping"}}
	applier := noopApplier()
	pub := &fakePublisher{}
	p := New(sequenceSource(snapshot), applier, newTestLogger(), singleType(api.EntityActivities), Options{Publisher: pub})

	p.Observe(api.EntityActivities, models.CloneAll(snapshot))
	require.NoError(t, p.PollNow(ctx, api.EntityActivities))

	assert.Empty(t, applier.ApplyInitialCalls())
	assert.Empty(t, applier.ApplySnapshotCalls())
	assert.Empty(t, pub.all())

	// следующий опрос отложен
	assert.Len(t, p.states[api.EntityActivities].reset, 1)
	p.Observe(api.EntityActivities, snapshot)
	assert.Len(t, p.states[api.EntityActivities].reset, 1)

	// неизвестный тип игнорируется
	p.Observe(api.EntityBookings, snapshot)
}

func TestPollNow_SavesPollTimestamp(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	metadata := &storage.MetadataStorageMock{
		SaveLastPollTimestampFunc: func(ctx context.Context, entityType api.EntityType, timestamp int64) error {
			return errors.New("disk full")
		},
	}
	p := New(sequenceSource([]models.Entity{}), noopApplier(), newTestLogger(), singleType(api.EntityPackages), Options{
		Metadata: metadata,
		Clock:    func() time.Time { return now },
	})

	// ошибка записи metadata не ломает цикл
	require.NoError(t, p.PollNow(ctx, api.EntityPackages))

	calls := metadata.SaveLastPollTimestampCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, api.EntityPackages, calls[0].EntityType)
	assert.Equal(t, now.UnixMilli(), calls[0].Timestamp)

	stats, _ := p.Stats(api.EntityPackages)
	assert.True(t, stats.LastPoll.Equal(now))
}

func TestStats_Hash(t *testing.T) {
	snapshot := []models.Entity{{"id": "d-1"}}
	p := New(sequenceSource(snapshot), noopApplier(), newTestLogger(), singleType(api.EntityDestinations), Options{})

	stats, ok := p.Stats(api.EntityDestinations)
	require.True(t, ok)
	assert.Empty(t, stats.Hash)

	require.NoError(t, p.PollNow(context.Background(), api.EntityDestinations))

	want, _, err := crypto.ContentHash(snapshot)
	require.NoError(t, err)
	stats, _ = p.Stats(api.EntityDestinations)
	assert.Equal(t, want.String(), stats.Hash)
	assert.Len(t, p.AllStats(), 1)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{name: "no failures", failures: 0, want: 0},
		{name: "first failure", failures: 1, want: time.Second},
		{name: "second failure", failures: 2, want: 2 * time.Second},
		{name: "third failure", failures: 3, want: 4 * time.Second},
		{name: "fourth failure", failures: 4, want: 8 * time.Second},
		{name: "capped", failures: 5, want: 10 * time.Second},
		{name: "long streak", failures: 200, want: 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Backoff(time.Second, 10*time.Second, tt.failures))
		})
	}
}

func TestNextDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Types = []api.EntityType{api.EntityDestinations, api.EntityBookings}
	cfg.Intervals = map[api.EntityType]time.Duration{api.EntityBookings: 10 * time.Second}
	cfg.BaseDelay = 500 * time.Millisecond
	p := New(&clientapi.ClientAPIMock{}, noopApplier(), newTestLogger(), cfg, Options{})

	assert.Equal(t, DefaultInterval, p.nextDelay(api.EntityDestinations, p.states[api.EntityDestinations]))
	assert.Equal(t, 10*time.Second, p.nextDelay(api.EntityBookings, p.states[api.EntityBookings]))

	p.states[api.EntityBookings].failures = 3
	assert.Equal(t, 2*time.Second, p.nextDelay(api.EntityBookings, p.states[api.EntityBookings]))
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, DefaultMaxFailures, cfg.MaxFailures)
	assert.Equal(t, DefaultBaseDelay, cfg.BaseDelay)
	assert.Equal(t, DefaultMaxDelay, cfg.MaxDelay)
	assert.Equal(t, api.KnownEntityTypes(), cfg.Types)
}

func TestStartStop(t *testing.T) {
	applier := noopApplier()
	cfg := DefaultConfig()
	cfg.Interval = 10 * time.Millisecond
	p := New(sequenceSource([]models.Entity{{"id": "1"}}), applier, newTestLogger(), cfg, Options{})

	require.NoError(t, p.Start(context.Background()))
	assert.ErrorIs(t, p.Start(context.Background()), ErrAlreadyRunning)
	assert.True(t, p.Running())

	// по одному INIT на каждый тип, затем опросы без изменений
	require.Eventually(t, func() bool {
		return len(applier.ApplyInitialCalls()) == len(api.KnownEntityTypes())
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		stats, _ := p.Stats(api.EntityDestinations)
		return stats.Polls >= 3
	}, time.Second, 5*time.Millisecond)

	p.Stop()
	p.Stop()
	assert.False(t, p.Running())

	stats, _ := p.Stats(api.EntityDestinations)
	time.Sleep(50 * time.Millisecond)
	after, _ := p.Stats(api.EntityDestinations)
	assert.Equal(t, stats.Polls, after.Polls)
	assert.Empty(t, applier.ApplySnapshotCalls())

	// после перезапуска первый опрос снова INIT
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()
	require.Eventually(t, func() bool {
		return len(applier.ApplyInitialCalls()) == 2*len(api.KnownEntityTypes())
	}, time.Second, 5*time.Millisecond)
}

func TestLoop_BacksOffAndRecovers(t *testing.T) {
	var calls atomic.Int32
	source := &clientapi.ClientAPIMock{
		ListFunc: func(ctx context.Context, entityType api.EntityType, filters map[string]string) ([]models.Entity, error) {
			if calls.Add(1) <= 3 {
				return nil, errors.New("503")
			}
			return []models.Entity{}, nil
		},
	}
	rec := &statusRecorder{}
	cfg := singleType(api.EntityBookings)
	cfg.Interval = time.Hour
	cfg.MaxFailures = 2
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond

	p := New(source, noopApplier(), newTestLogger(), cfg, Options{})
	p.OnStatus(rec.listener)

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	require.Eventually(t, func() bool {
		statuses := rec.statuses()
		return len(statuses) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []Status{StatusDisconnected, StatusConnected}, rec.statuses())
	assert.Equal(t, int32(4), calls.Load())
}

func TestLoop_StopsOnContextCancel(t *testing.T) {
	cfg := singleType(api.EntityDestinations)
	cfg.Interval = 5 * time.Millisecond
	source := sequenceSource([]models.Entity{})
	p := New(source, noopApplier(), newTestLogger(), cfg, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))
	require.Eventually(t, func() bool {
		return len(source.ListCalls()) > 0
	}, time.Second, time.Millisecond)

	cancel()
	p.Stop()
	n := len(source.ListCalls())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, len(source.ListCalls()))
}
