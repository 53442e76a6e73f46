package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/internal/server/storage"
	"github.com/iudanet/tripsync/internal/validation"
	"github.com/iudanet/tripsync/pkg/api"
)

// maxBodyBytes ограничение размера тела запроса
const maxBodyBytes = 1 << 20

// EntityHandler обрабатывает CRUD запросы каталога
// GET|POST /api/{type}, PUT|DELETE /api/{type}/{id}
type EntityHandler struct {
	logger  *slog.Logger
	storage storage.EntityStorage
	types   map[api.EntityType]bool
}

// NewEntityHandler creates a new entity handler
// types список обслуживаемых коллекций; пустой означает api.KnownEntityTypes()
func NewEntityHandler(logger *slog.Logger, storage storage.EntityStorage, types []api.EntityType) *EntityHandler {
	if len(types) == 0 {
		types = api.KnownEntityTypes()
	}
	allowed := make(map[api.EntityType]bool, len(types))
	for _, et := range types {
		allowed[et] = true
	}
	return &EntityHandler{
		logger:  logger,
		storage: storage,
		types:   allowed,
	}
}

// entityType извлекает и проверяет {type}; при ошибке ответ уже записан
func (h *EntityHandler) entityType(w http.ResponseWriter, r *http.Request) (api.EntityType, bool) {
	raw := r.PathValue("type")
	if err := validation.ValidateEntityType(raw); err != nil || !h.types[api.EntityType(raw)] {
		WriteError(w, h.logger, http.StatusNotFound, "unknown_type", "unknown entity type")
		return "", false
	}
	return api.EntityType(raw), true
}

// entityID извлекает и проверяет {id}; при ошибке ответ уже записан
func (h *EntityHandler) entityID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if err := validation.ValidateEntityID(id); err != nil {
		WriteError(w, h.logger, http.StatusBadRequest, "invalid_id", err.Error())
		return "", false
	}
	return id, true
}

// decodeBody читает JSON объект entity из тела запроса
func (h *EntityHandler) decodeBody(w http.ResponseWriter, r *http.Request) (models.Entity, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("Failed to read request body", "error", err)
		WriteError(w, h.logger, http.StatusRequestEntityTooLarge, "body_too_large", "request body is too large")
		return nil, false
	}
	data, err := models.DecodeEntity(body)
	if err != nil {
		h.logger.Warn("Failed to decode request body", "error", err)
		WriteError(w, h.logger, http.StatusBadRequest, "invalid_body", "invalid request body")
		return nil, false
	}
	return data, true
}

// List обрабатывает GET /api/{type}?field=value
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}

	var filters map[string]string
	if query := r.URL.Query(); len(query) > 0 {
		filters = make(map[string]string, len(query))
		for key := range query {
			filters[key] = query.Get(key)
		}
	}

	items, err := h.storage.List(r.Context(), string(entityType), filters)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidFilter) {
			WriteError(w, h.logger, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}
		h.logger.Error("Failed to list entities", "entity_type", entityType, "error", err)
		WriteError(w, h.logger, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}

	h.logger.Debug("Entities listed", "entity_type", entityType, "count", len(items))
	WriteData(w, h.logger, http.StatusOK, items)
}

// Create обрабатывает POST /api/{type}
func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}
	data, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	created, err := h.storage.Create(r.Context(), string(entityType), data)
	if err != nil {
		h.logger.Error("Failed to create entity", "entity_type", entityType, "error", err)
		WriteError(w, h.logger, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}

	subject, _ := GetSubject(r.Context())
	h.logger.Info("Entity created", "entity_type", entityType, "id", created.ID(), "subject", subject)
	WriteData(w, h.logger, http.StatusCreated, created)
}

// Update обрабатывает PUT /api/{type}/{id}
func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}
	id, ok := h.entityID(w, r)
	if !ok {
		return
	}
	patch, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	updated, err := h.storage.Update(r.Context(), string(entityType), id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			WriteError(w, h.logger, http.StatusNotFound, "not_found", "entity not found")
			return
		}
		h.logger.Error("Failed to update entity", "entity_type", entityType, "id", id, "error", err)
		WriteError(w, h.logger, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}

	subject, _ := GetSubject(r.Context())
	h.logger.Info("Entity updated", "entity_type", entityType, "id", id, "subject", subject)
	WriteData(w, h.logger, http.StatusOK, updated)
}

// Delete обрабатывает DELETE /api/{type}/{id}
func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entityType, ok := h.entityType(w, r)
	if !ok {
		return
	}
	id, ok := h.entityID(w, r)
	if !ok {
		return
	}

	if err := h.storage.Delete(r.Context(), string(entityType), id); err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			WriteError(w, h.logger, http.StatusNotFound, "not_found", "entity not found")
			return
		}
		h.logger.Error("Failed to delete entity", "entity_type", entityType, "id", id, "error", err)
		WriteError(w, h.logger, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}

	subject, _ := GetSubject(r.Context())
	h.logger.Info("Entity deleted", "entity_type", entityType, "id", id, "subject", subject)
	WriteMessage(w, h.logger, http.StatusOK, "deleted")
}
