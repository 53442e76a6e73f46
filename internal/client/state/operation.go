package state

import (
	"strings"
	"time"

	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

// Operation тип уведомления подписчикам
type Operation string

const (
	OpFetch          Operation = "FETCH"
	OpCacheHit       Operation = "CACHE_HIT"
	OpError          Operation = "ERROR"
	OpCreate         Operation = "CREATE"
	OpCreateComplete Operation = "CREATE_COMPLETE"
	OpCreateError    Operation = "CREATE_ERROR"
	OpUpdate         Operation = "UPDATE"
	OpUpdateComplete Operation = "UPDATE_COMPLETE"
	OpUpdateError    Operation = "UPDATE_ERROR"
	OpDelete         Operation = "DELETE"
	OpDeleteComplete Operation = "DELETE_COMPLETE"
	OpDeleteError    Operation = "DELETE_ERROR"
	OpRealtimeCreate Operation = "REALTIME_CREATE"
	OpRealtimeUpdate Operation = "REALTIME_UPDATE"
	OpRealtimeDelete Operation = "REALTIME_DELETE"
)

// IsError сообщает, что операция сигнализирует об ошибке
func (o Operation) IsError() bool {
	return o == OpError || strings.HasSuffix(string(o), "_ERROR")
}

// MutationKind вид оптимистичной мутации
type MutationKind string

const (
	KindCreate MutationKind = "CREATE"
	KindUpdate MutationKind = "UPDATE"
	KindDelete MutationKind = "DELETE"
)

func (k MutationKind) verb() string {
	return strings.ToLower(string(k))
}

// PendingOp одна мутация в полете
// TempID для create совпадает с временным id entity
type PendingOp struct {
	Timestamp  time.Time
	Backup     models.Entity
	TempID     string
	EntityID   string
	EntityType api.EntityType
	Kind       MutationKind
}

// Payloads, которые получают подписчики.
// Для FETCH, CACHE_HIT и SNAPSHOT-UPDATE payload это []models.Entity,
// для CREATE, UPDATE, UPDATE_COMPLETE и REALTIME_CREATE/UPDATE это models.Entity.

// FetchErrorPayload payload операции ERROR
type FetchErrorPayload struct {
	Err     error
	Message string
}

// CreateCompletePayload payload операции CREATE_COMPLETE
type CreateCompletePayload struct {
	Entity models.Entity
	TempID string
}

// CreateErrorPayload payload операции CREATE_ERROR
type CreateErrorPayload struct {
	Err    error
	TempID string
}

// UpdateErrorPayload payload операции UPDATE_ERROR
type UpdateErrorPayload struct {
	Err          error
	PreviousData models.Entity
	ID           string
}

// DeletePayload payload операций DELETE, DELETE_COMPLETE и REALTIME_DELETE
type DeletePayload struct {
	Entity models.Entity
	ID     string
}

// DeleteErrorPayload payload операции DELETE_ERROR
type DeleteErrorPayload struct {
	Err          error
	RestoredData models.Entity
	ID           string
}
