package state

import (
	"errors"
	"fmt"

	"github.com/iudanet/tripsync/pkg/api"
)

// ErrNotFound update или delete запрошены для id, которого нет в items
var ErrNotFound = errors.New("entity not found")

// FetchError ошибка загрузки снапшота типа
// items при этом не меняются, ошибка также попадает в EntityState.Error
type FetchError struct {
	Err        error
	EntityType api.EntityType
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.EntityType, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MutationError ошибка create/update/delete
// Оптимистичное изменение к моменту возврата ошибки уже откатено
type MutationError struct {
	Err        error
	Kind       MutationKind
	EntityType api.EntityType
	ID         string
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("failed to %s %s/%s: %v", e.Kind.verb(), e.EntityType, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
