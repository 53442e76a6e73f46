package realtime

import (
	"time"

	"github.com/iudanet/tripsync/pkg/api"
)

// Status состояние связи поллера с сервером
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// StatusEvent смена состояния связи для одного типа
type StatusEvent struct {
	At         time.Time
	Err        error
	EntityType api.EntityType
	Status     Status
	Failures   int
}

// Stats состояние поллинга одного типа
type Stats struct {
	LastPoll    time.Time
	LastError   string
	Hash        string
	EntityType  api.EntityType
	Interval    time.Duration
	Failures    int
	Polls       int
	Changes     int
	Initialized bool
}
