package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/internal/validation"
	"github.com/iudanet/tripsync/pkg/api"
)

// Client представляет HTTP клиент для взаимодействия с REST API каталога
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	baseURL    string
}

var _ ClientAPI = (*Client)(nil)

// NewClient создает новый API клиент
// baseURL включает префикс API, например http://localhost:8080/api
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// BaseURL возвращает адрес API
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List получает все entities типа
func (c *Client) List(ctx context.Context, entityType api.EntityType, filters map[string]string) ([]models.Entity, error) {
	if err := validation.ValidateEntityType(string(entityType)); err != nil {
		return nil, fmt.Errorf("invalid entity type: %w", err)
	}

	path := "/" + string(entityType)
	if len(filters) > 0 {
		query := url.Values{}
		for k, v := range filters {
			query.Set(k, v)
		}
		path += "?" + query.Encode()
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s request failed: %w", entityType, err)
	}

	items, err := models.DecodeEntities(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("list %s request failed: %w", entityType, err)
	}
	return items, nil
}

// Create создает entity
func (c *Client) Create(ctx context.Context, entityType api.EntityType, data models.Entity) (models.Entity, error) {
	if err := validation.ValidateEntityType(string(entityType)); err != nil {
		return nil, fmt.Errorf("invalid entity type: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/"+string(entityType), data)
	if err != nil {
		return nil, fmt.Errorf("create %s request failed: %w", entityType, err)
	}

	entity, err := models.DecodeEntity(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("create %s request failed: %w", entityType, err)
	}
	return entity, nil
}

// Update обновляет entity
func (c *Client) Update(ctx context.Context, entityType api.EntityType, id string, data models.Entity) (models.Entity, error) {
	path, err := entityPath(entityType, id)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPut, path, data)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s request failed: %w", entityType, id, err)
	}

	entity, err := models.DecodeEntity(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s request failed: %w", entityType, id, err)
	}
	return entity, nil
}

// Delete удаляет entity
func (c *Client) Delete(ctx context.Context, entityType api.EntityType, id string) error {
	path, err := entityPath(entityType, id)
	if err != nil {
		return err
	}

	if _, err := c.doRequest(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("delete %s/%s request failed: %w", entityType, id, err)
	}
	return nil
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.doRequest(ctx, http.MethodGet, "/health", nil); err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	return nil
}

func entityPath(entityType api.EntityType, id string) (string, error) {
	if err := validation.ValidateEntityType(string(entityType)); err != nil {
		return "", fmt.Errorf("invalid entity type: %w", err)
	}
	if err := validation.ValidateEntityID(id); err != nil {
		return "", fmt.Errorf("invalid entity id: %w", err)
	}
	return "/" + string(entityType) + "/" + url.PathEscape(id), nil
}

// doRequest выполняет HTTP запрос и разбирает конверт {success, data, message}
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*api.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusForbidden:
		return nil, ErrForbidden
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Message}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var envelope api.Response
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	} else {
		// 204 No Content на DELETE
		envelope.Success = true
	}

	if !envelope.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	return &envelope, nil
}
