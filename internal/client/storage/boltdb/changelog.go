package boltdb

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/tripsync/internal/client/storage"
	"github.com/iudanet/tripsync/pkg/api"
)

// changeLogLimit сколько последних сообщений хранится в ленте канала
// Читатель, отставший сильнее, пропускает старые сообщения
const changeLogLimit = 256

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// AppendChange adds a message to the channel feed
func (s *Storage) AppendChange(ctx context.Context, channel string, change api.DataChange) (uint64, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal change: %w", err)
	}

	var seq uint64
	err = s.update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketBroadcast)
		if root == nil {
			return fmt.Errorf("broadcast bucket not found")
		}
		bucket, err := root.CreateBucketIfNotExists([]byte(channel))
		if err != nil {
			return fmt.Errorf("failed to create channel bucket: %w", err)
		}

		seq, err = bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}
		if err := bucket.Put(seqKey(seq), data); err != nil {
			return fmt.Errorf("failed to save change: %w", err)
		}

		if seq <= changeLogLimit {
			return nil
		}
		// Удаляем все, что старше окна
		cutoff := seqKey(seq - changeLogLimit)
		c := bucket.Cursor()
		for k, _ := c.First(); k != nil && bytes.Compare(k, cutoff) <= 0; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return fmt.Errorf("failed to prune change log: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// ChangesSince returns messages newer than after
func (s *Storage) ChangesSince(ctx context.Context, channel string, after uint64) ([]storage.LoggedChange, error) {
	var changes []storage.LoggedChange

	err := s.view(func(tx *bbolt.Tx) error {
		bucket := channelBucket(tx, channel)
		if bucket == nil {
			return nil
		}

		c := bucket.Cursor()
		for k, v := c.Seek(seqKey(after + 1)); k != nil; k, v = c.Next() {
			var change api.DataChange
			if err := json.Unmarshal(v, &change); err != nil {
				return fmt.Errorf("failed to unmarshal change: %w", err)
			}
			changes = append(changes, storage.LoggedChange{
				Change: change,
				Seq:    binary.BigEndian.Uint64(k),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read change log: %w", err)
	}

	return changes, nil
}

// LastChangeSeq returns the newest sequence number of the channel feed
func (s *Storage) LastChangeSeq(ctx context.Context, channel string) (uint64, error) {
	var seq uint64

	err := s.view(func(tx *bbolt.Tx) error {
		bucket := channelBucket(tx, channel)
		if bucket == nil {
			return nil
		}
		seq = bucket.Sequence()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read change log: %w", err)
	}

	return seq, nil
}

func channelBucket(tx *bbolt.Tx, channel string) *bbolt.Bucket {
	root := tx.Bucket(bucketBroadcast)
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(channel))
}
