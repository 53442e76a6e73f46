package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/internal/server/storage"
)

// filterKeyPattern ключ фильтра подставляется в JSON path
var filterKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// List returns entities of the type, newest first
// Фильтр сравнивает текстовое значение поля: числа и bool приводятся к тексту
// так, как их отдает json_extract (true -> "1").
func (s *Storage) List(ctx context.Context, entityType string, filters map[string]string) ([]models.Entity, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT data FROM entities WHERE entity_type = ?`)
	args := []any{entityType}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !filterKeyPattern.MatchString(k) {
			return nil, fmt.Errorf("%w: %q", storage.ErrInvalidFilter, k)
		}
		sb.WriteString(` AND CAST(json_extract(data, ?) AS TEXT) = ?`)
		args = append(args, "$."+k, filters[k])
	}
	sb.WriteString(` ORDER BY seq DESC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	items := make([]models.Entity, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entity, err := models.DecodeEntity([]byte(raw))
		if err != nil {
			return nil, err
		}
		items = append(items, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entities: %w", err)
	}

	return items, nil
}

// Get retrieves a single entity
func (s *Storage) Get(ctx context.Context, entityType, id string) (models.Entity, error) {
	return getEntity(ctx, s.db, entityType, id)
}

// queryer общий интерфейс *sql.DB и *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getEntity(ctx context.Context, q queryer, entityType, id string) (models.Entity, error) {
	var raw string
	err := q.QueryRowContext(ctx,
		`SELECT data FROM entities WHERE entity_type = ? AND id = ?`,
		entityType, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return models.DecodeEntity([]byte(raw))
}

// Create assigns id, created_at and updated_at and stores the entity
// Переданные клиентом id и временные метки игнорируются
func (s *Storage) Create(ctx context.Context, entityType string, data models.Entity) (models.Entity, error) {
	now := models.FormatTime(s.now())

	entity := data.Clone()
	if entity == nil {
		entity = models.Entity{}
	}
	entity[models.FieldID] = uuid.NewString()
	entity[models.FieldCreatedAt] = now
	entity[models.FieldUpdatedAt] = now

	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entity: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entities (entity_type, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		entityType, entity.ID(), string(raw), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity: %w", err)
	}

	return models.DecodeEntity(raw)
}

// Update merges the patch into the stored entity and bumps updated_at
// id и created_at из patch не меняют хранимых значений
func (s *Storage) Update(ctx context.Context, entityType, id string, patch models.Entity) (models.Entity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existing, err := getEntity(ctx, tx, entityType, id)
	if err != nil {
		return nil, err
	}

	now := models.FormatTime(s.now())
	merged := existing.Merge(patch)
	merged[models.FieldID] = existing[models.FieldID]
	merged[models.FieldCreatedAt] = existing[models.FieldCreatedAt]
	merged[models.FieldUpdatedAt] = now

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entity: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE entities SET data = ?, updated_at = ? WHERE entity_type = ? AND id = ?`,
		string(raw), now, entityType, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update entity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return models.DecodeEntity(raw)
}

// Delete removes the entity
func (s *Storage) Delete(ctx context.Context, entityType, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM entities WHERE entity_type = ? AND id = ?`,
		entityType, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrEntityNotFound
	}
	return nil
}
