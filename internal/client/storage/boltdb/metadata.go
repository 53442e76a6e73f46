package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/tripsync/pkg/api"
)

func lastPollKey(entityType api.EntityType) []byte {
	return []byte("last_poll_" + string(entityType))
}

// SaveLastPollTimestamp saves the timestamp of the last successful poll
func (s *Storage) SaveLastPollTimestamp(ctx context.Context, entityType api.EntityType, timestamp int64) error {
	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		// Конвертируем int64 в bytes
		timestampBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(timestampBytes, uint64(timestamp))

		if err := bucket.Put(lastPollKey(entityType), timestampBytes); err != nil {
			return fmt.Errorf("failed to save last poll timestamp: %w", err)
		}

		return nil
	})
}

// GetLastPollTimestamp retrieves the timestamp of the last successful poll
// Returns 0 if the entity type was never polled
func (s *Storage) GetLastPollTimestamp(ctx context.Context, entityType api.EntityType) (int64, error) {
	var timestamp int64

	err := s.view(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		timestampBytes := bucket.Get(lastPollKey(entityType))
		if timestampBytes == nil {
			timestamp = 0
			return nil
		}

		// Конвертируем bytes в int64
		timestamp = int64(binary.BigEndian.Uint64(timestampBytes))
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to get last poll timestamp: %w", err)
	}

	return timestamp, nil
}
