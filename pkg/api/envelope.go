package api

import "encoding/json"

// Response представляет конверт каждого ответа catalog API
// {success, data, message}
type Response struct {
	Data    json.RawMessage `json:"data,omitempty"`    // entity или массив entities
	Message string          `json:"message,omitempty"` // сообщение об ошибке или статусе
	Success bool            `json:"success"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Message string `json:"message"`         // описание ошибки
	Error   string `json:"error,omitempty"` // код ошибки (для совместимости с middleware)
	Success bool   `json:"success"`         // всегда false
}

// NewResponse кодирует data и оборачивает в успешный конверт
func NewResponse(data any) (*Response, error) {
	if data == nil {
		return &Response{Success: true}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Response{Success: true, Data: raw}, nil
}
