package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/iudanet/tripsync/internal/client/storage"
	"github.com/iudanet/tripsync/internal/models"
	"github.com/iudanet/tripsync/pkg/api"
)

const cacheKeyPrefix = "state_"

// SaveCache stores the snapshot of the entity type
func (s *Storage) SaveCache(ctx context.Context, entityType api.EntityType, record *storage.CacheRecord) error {
	if record == nil {
		return fmt.Errorf("cache record cannot be nil")
	}

	// Сериализуем в JSON {data, timestamp}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal cache record: %w", err)
	}

	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCache)
		if bucket == nil {
			return fmt.Errorf("cache bucket not found")
		}

		if err := bucket.Put([]byte(storage.CacheKey(entityType)), data); err != nil {
			return fmt.Errorf("failed to save cache record: %w", err)
		}
		return nil
	})
}

// GetCache retrieves the snapshot of the entity type
func (s *Storage) GetCache(ctx context.Context, entityType api.EntityType) (*storage.CacheRecord, error) {
	var record *storage.CacheRecord

	err := s.view(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCache)
		if bucket == nil {
			return fmt.Errorf("cache bucket not found")
		}

		data := bucket.Get([]byte(storage.CacheKey(entityType)))
		if data == nil {
			return storage.ErrCacheNotFound
		}

		// data валиден только внутри транзакции, декодируем сразу
		// числа остаются json.Number
		var decoded struct {
			Data      json.RawMessage `json:"data"`
			Timestamp int64           `json:"timestamp"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			return fmt.Errorf("failed to unmarshal cache record: %w", err)
		}

		items, err := models.DecodeEntities(decoded.Data)
		if err != nil {
			return fmt.Errorf("failed to unmarshal cache record: %w", err)
		}

		record = &storage.CacheRecord{Data: items, Timestamp: decoded.Timestamp}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return record, nil
}

// DeleteCache removes the snapshot of the entity type
// Missing records are not an error
func (s *Storage) DeleteCache(ctx context.Context, entityType api.EntityType) error {
	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCache)
		if bucket == nil {
			return fmt.Errorf("cache bucket not found")
		}

		if err := bucket.Delete([]byte(storage.CacheKey(entityType))); err != nil {
			return fmt.Errorf("failed to delete cache record: %w", err)
		}
		return nil
	})
}

// ClearCache removes every cached snapshot
func (s *Storage) ClearCache(ctx context.Context) error {
	return s.update(func(tx *bbolt.Tx) error {
		// Пересоздаем bucket, это быстрее чем удалять ключи по одному
		if err := tx.DeleteBucket(bucketCache); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to drop cache bucket: %w", err)
		}
		if _, err := tx.CreateBucket(bucketCache); err != nil {
			return fmt.Errorf("failed to create cache bucket: %w", err)
		}
		return nil
	})
}

// ListCached returns entity types that have a snapshot
func (s *Storage) ListCached(ctx context.Context) ([]api.EntityType, error) {
	types := []api.EntityType{}

	err := s.view(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCache)
		if bucket == nil {
			// Нет bucket - возвращаем пустой массив
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			key := string(k)
			if strings.HasPrefix(key, cacheKeyPrefix) {
				types = append(types, api.EntityType(strings.TrimPrefix(key, cacheKeyPrefix)))
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cache records: %w", err)
	}

	return types, nil
}
