package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/tripsync/internal/client/storage"
	"github.com/iudanet/tripsync/pkg/api"
)

// DefaultLogPollInterval период чтения общей ленты
const DefaultLogPollInterval = 500 * time.Millisecond

// LogChannel канал между процессами поверх общей ленты изменений в файле БД
// Publish дописывает сообщение в ленту, фоновая горутина читает новые
// записи и раздает их подписчикам. Доставка асинхронная, в порядке записи.
// Сообщения, записанные до открытия канала, не доставляются.
type LogChannel struct {
	log       storage.ChangeLog
	logger    *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
	name      string
	listeners []listener
	interval  time.Duration
	cursor    uint64
	nextID    uint64
	mu        sync.Mutex
	pollMu    sync.Mutex
	closeOnce sync.Once
	closed    bool
}

var _ Channel = (*LogChannel)(nil)

// OpenLogChannel открывает канал name поверх ленты и запускает чтение
// interval <= 0 заменяется на DefaultLogPollInterval
func OpenLogChannel(ctx context.Context, log storage.ChangeLog, name string, interval time.Duration, logger *slog.Logger) (*LogChannel, error) {
	if name == "" {
		name = DefaultChannelName
	}
	if interval <= 0 {
		interval = DefaultLogPollInterval
	}

	cursor, err := log.LastChangeSeq(ctx, name)
	if err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := &LogChannel{
		log:      log,
		logger:   logger,
		cancel:   cancel,
		done:     make(chan struct{}),
		name:     name,
		interval: interval,
		cursor:   cursor,
	}
	go c.run(pollCtx)

	logger.Debug("Broadcast log channel opened", "channel", name, "cursor", cursor, "interval", interval)
	return c, nil
}

// Name возвращает имя канала
func (c *LogChannel) Name() string {
	return c.name
}

// Publish реализует Channel
func (c *LogChannel) Publish(ctx context.Context, msg api.DataChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isClosed() {
		return ErrChannelClosed
	}

	if _, err := c.log.AppendChange(ctx, c.name, msg); err != nil {
		return err
	}
	return nil
}

// Subscribe реализует Channel
func (c *LogChannel) Subscribe(fn func(api.DataChange)) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, l := range c.listeners {
				if l.id == id {
					c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
					break
				}
			}
		})
	}
}

// Subscribers количество подписчиков
func (c *LogChannel) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// Poll читает новые записи ленты и доставляет их подписчикам
// Возвращает количество прочитанных записей
func (c *LogChannel) Poll(ctx context.Context) (int, error) {
	c.pollMu.Lock()
	defer c.pollMu.Unlock()

	c.mu.Lock()
	after := c.cursor
	c.mu.Unlock()

	changes, err := c.log.ChangesSince(ctx, c.name, after)
	if err != nil {
		return 0, err
	}
	if len(changes) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	c.cursor = changes[len(changes)-1].Seq
	listeners := make([]listener, len(c.listeners))
	copy(listeners, c.listeners)
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return len(changes), nil
	}

	for _, change := range changes {
		for _, l := range listeners {
			msg := change.Change
			msg.Data = append([]byte(nil), change.Change.Data...)
			deliver(c.logger, c.name, l, msg)
		}
	}
	return len(changes), nil
}

func (c *LogChannel) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Poll(ctx); err != nil && ctx.Err() == nil {
				c.logger.Warn("Failed to read broadcast log", "channel", c.name, "error", err)
			}
		}
	}
}

// Close останавливает чтение и удаляет подписчиков; повторный вызов безопасен
func (c *LogChannel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.listeners = nil
		c.mu.Unlock()

		c.cancel()
		<-c.done
		c.logger.Debug("Broadcast log channel closed", "channel", c.name)
	})
}

func (c *LogChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
