package api

import "encoding/json"

// MessageTypeDataChange единственный тип сообщения в cross-instance канале
const MessageTypeDataChange = "DATA_CHANGE"

// ChangeType describes what a DATA_CHANGE message carries.
type ChangeType string

const (
	ChangeInsert   ChangeType = "INSERT"   // data: одна entity
	ChangeUpdate   ChangeType = "UPDATE"   // data: одна entity
	ChangeDelete   ChangeType = "DELETE"   // data: одна entity (нужен только id)
	ChangeSnapshot ChangeType = "SNAPSHOT" // data: полный список entities типа
)

// DataChange сообщение об изменении данных, публикуемое в общий канал
type DataChange struct {
	Type       string          `json:"type"`
	Table      EntityType      `json:"table"`
	ChangeType ChangeType      `json:"changeType"`
	Origin     string          `json:"origin,omitempty"` // id экземпляра-отправителя
	Data       json.RawMessage `json:"data"`
	Timestamp  int64           `json:"timestamp"` // unix millis
}
