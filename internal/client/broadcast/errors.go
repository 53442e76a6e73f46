package broadcast

import "errors"

var (
	// ErrChannelUnavailable канал не настроен, relay работает как no-op
	ErrChannelUnavailable = errors.New("broadcast channel unavailable")
	// ErrChannelClosed публикация в закрытый канал
	ErrChannelClosed = errors.New("broadcast channel closed")
)
