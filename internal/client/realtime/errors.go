package realtime

import "errors"

var (
	// ErrAlreadyRunning Start вызван для уже запущенного поллера
	ErrAlreadyRunning = errors.New("poller already running")
	// ErrUnknownType тип не отслеживается поллером
	ErrUnknownType = errors.New("entity type is not polled")
)
