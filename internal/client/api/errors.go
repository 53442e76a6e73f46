package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized сервер вернул 401: токен отсутствует или истек
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden сервер вернул 403
	ErrForbidden = errors.New("forbidden")
)

// APIError ошибка удаленного API: non-2xx статус или success=false в ответе
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}
