package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/tripsync/pkg/api"
)

// DefaultChannelName имя канала по умолчанию
const DefaultChannelName = "tripsync"

// Channel общий канал сообщений между экземплярами движка
type Channel interface {
	Publish(ctx context.Context, msg api.DataChange) error
	// Subscribe регистрирует получателя; возвращает функцию отписки
	Subscribe(fn func(api.DataChange)) (cancel func())
}

// Hub реестр именованных каналов процесса
// Все экземпляры, открывшие канал с одним именем, получают одни и те же сообщения
type Hub struct {
	logger   *slog.Logger
	channels map[string]*MemoryChannel
	mu       sync.Mutex
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:   logger,
		channels: make(map[string]*MemoryChannel),
	}
}

// Open возвращает канал с именем name, создавая его при первом обращении
func (h *Hub) Open(name string) *MemoryChannel {
	if name == "" {
		name = DefaultChannelName
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.channels[name]
	if !ok || ch.isClosed() {
		ch = newMemoryChannel(name, h.logger)
		h.channels[name] = ch
		h.logger.Debug("Broadcast channel opened", "channel", name)
	}
	return ch
}

// Close закрывает все каналы
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for name, ch := range h.channels {
		ch.Close()
		delete(h.channels, name)
	}
}

type listener struct {
	fn func(api.DataChange)
	id uint64
}

// MemoryChannel канал внутри процесса
// Сообщение сериализуется в JSON при публикации, каждый получатель
// получает свою копию. Доставка синхронная, в порядке подписки.
type MemoryChannel struct {
	logger    *slog.Logger
	name      string
	listeners []listener
	mu        sync.Mutex
	nextID    uint64
	closed    bool
}

var _ Channel = (*MemoryChannel)(nil)

func newMemoryChannel(name string, logger *slog.Logger) *MemoryChannel {
	return &MemoryChannel{name: name, logger: logger}
}

// Name возвращает имя канала
func (c *MemoryChannel) Name() string {
	return c.name
}

// Publish доставляет сообщение всем подписчикам
func (c *MemoryChannel) Publish(ctx context.Context, msg api.DataChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	listeners := make([]listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		var copyMsg api.DataChange
		if err := json.Unmarshal(raw, &copyMsg); err != nil {
			return fmt.Errorf("failed to decode message: %w", err)
		}
		c.deliver(l, copyMsg)
	}
	return nil
}

func (c *MemoryChannel) deliver(l listener, msg api.DataChange) {
	deliver(c.logger, c.name, l, msg)
}

// deliver вызывает получателя; паника получателя не ломает доставку остальным
func deliver(logger *slog.Logger, channel string, l listener, msg api.DataChange) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Broadcast listener panicked", "channel", channel, "listener", l.id, "error", fmt.Sprint(r))
		}
	}()
	l.fn(msg)
}

// Subscribe реализует Channel
func (c *MemoryChannel) Subscribe(fn func(api.DataChange)) func() {
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
func (c *MemoryChannel) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// Close закрывает канал и удаляет подписчиков
func (c *MemoryChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.listeners = nil
}

func (c *MemoryChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
