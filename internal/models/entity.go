package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Поля, которые движок синхронизации интерпретирует сам.
// Остальные поля entity непрозрачны.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Entity представляет одну запись каталога (destination, activity, package, booking).
// Это открытая запись: обязательный id, опциональные created_at/updated_at
// и произвольные дополнительные поля.
type Entity map[string]any

// ID возвращает идентификатор entity в строковом виде.
// Сервер может вернуть id строкой или числом, сравнение всегда по строке.
func (e Entity) ID() string {
	switch v := e[FieldID].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// CreatedAt возвращает время создания, если оно задано и парсится
func (e Entity) CreatedAt() (time.Time, bool) {
	return e.timeField(FieldCreatedAt)
}

// UpdatedAt возвращает время последнего обновления, если оно задано и парсится
func (e Entity) UpdatedAt() (time.Time, bool) {
	return e.timeField(FieldUpdatedAt)
}

func (e Entity) timeField(key string) (time.Time, bool) {
	switch v := e[key].(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case time.Time:
		return v, true
	default:
		return time.Time{}, false
	}
}

// modifiedAt время последней модификации: updated_at, иначе created_at
func (e Entity) modifiedAt() (time.Time, bool) {
	if t, ok := e.UpdatedAt(); ok {
		return t, true
	}
	return e.CreatedAt()
}

// IsNewerThan сравнивает две версии одной entity по правилу Last-Write-Wins.
// Сравнивается updated_at (или created_at, если updated_at нет).
// Версия без временной метки никогда не новее версии с меткой.
// Возвращает true, только если e строго новее other.
func (e Entity) IsNewerThan(other Entity) bool {
	mine, ok := e.modifiedAt()
	if !ok {
		return false
	}
	theirs, ok := other.modifiedAt()
	if !ok {
		return true
	}
	return mine.After(theirs)
}

// Clone создает глубокую копию entity
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	dup := make(Entity, len(e))
	for k, v := range e {
		dup[k] = cloneValue(v)
	}
	return dup
}

// Merge возвращает новую entity {...e, ...patch}; исходные значения не меняются
func (e Entity) Merge(patch Entity) Entity {
	merged := e.Clone()
	if merged == nil {
		merged = make(Entity, len(patch))
	}
	for k, v := range patch {
		merged[k] = cloneValue(v)
	}
	return merged
}

// Equal сравнивает entities по их каноническому JSON представлению
func (e Entity) Equal(other Entity) bool {
	a, err := json.Marshal(e)
	if err != nil {
		return false
	}
	b, err := json.Marshal(other)
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Entity:
		return val.Clone()
	case map[string]any:
		dup := make(map[string]any, len(val))
		for k, item := range val {
			dup[k] = cloneValue(item)
		}
		return dup
	case []any:
		dup := make([]any, len(val))
		for i, item := range val {
			dup[i] = cloneValue(item)
		}
		return dup
	case []string:
		dup := make([]string, len(val))
		copy(dup, val)
		return dup
	default:
		// скаляры (string, bool, json.Number, float64, time.Time) неизменяемы
		return val
	}
}

// CloneAll создает глубокую копию списка entities с сохранением порядка
func CloneAll(items []Entity) []Entity {
	if items == nil {
		return nil
	}
	dup := make([]Entity, len(items))
	for i, item := range items {
		dup[i] = item.Clone()
	}
	return dup
}

// IndexOf возвращает позицию entity с заданным id или -1
func IndexOf(items []Entity, id string) int {
	for i, item := range items {
		if item.ID() == id {
			return i
		}
	}
	return -1
}

// FormatTime форматирует время так же, как его отдает сервер
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// DecodeEntity декодирует одну entity, сохраняя числа как json.Number
func DecodeEntity(raw []byte) (Entity, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var e Entity
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("failed to decode entity: %w", err)
	}
	if e == nil {
		return nil, fmt.Errorf("entity is null")
	}
	return e, nil
}

// DecodeEntities декодирует массив entities; null и пустой ввод дают пустой список
func DecodeEntities(raw []byte) ([]Entity, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Entity{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var items []Entity
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode entities: %w", err)
	}
	if items == nil {
		items = []Entity{}
	}
	return items, nil
}
