package boltdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/tripsync/internal/client/storage"
)

var (
	// BoltDB bucket names
	bucketAuth      = []byte("auth")
	bucketCache     = []byte("cache")
	bucketMetadata  = []byte("metadata")
	bucketBroadcast = []byte("broadcast")
)

// openTimeout ограничивает ожидание file lock, если БД открыта другим процессом
const openTimeout = 2 * time.Second

// Storage represents BoltDB storage implementation for client
//
// В shared режиме файл открывается на время одной транзакции,
// поэтому несколько процессов могут работать с одним кэшем.
type Storage struct {
	db     *bbolt.DB
	path   string
	mu     sync.Mutex
	shared bool
	closed bool
}

var (
	_ storage.CacheStorage    = (*Storage)(nil)
	_ storage.AuthStorage     = (*Storage)(nil)
	_ storage.MetadataStorage = (*Storage)(nil)
	_ storage.ChangeLog       = (*Storage)(nil)
)

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
// Файл остается заблокирован до Close
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db, path: dbPath}

	// Инициализируем buckets
	if err := storage.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// OpenShared creates storage that holds the file lock only for the duration
// of a single transaction
func OpenShared(ctx context.Context, dbPath string) (*Storage, error) {
	s := &Storage{path: dbPath, shared: true}
	err := s.with(false, func(db *bbolt.DB) error {
		return db.Update(createBuckets)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database file path
func (s *Storage) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ""
	}
	return s.path
}

// Shared reports whether the file is opened per transaction
func (s *Storage) Shared() bool {
	return s.shared
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(createBuckets)
}

func createBuckets(tx *bbolt.Tx) error {
	for _, name := range [][]byte{bucketAuth, bucketCache, bucketMetadata, bucketBroadcast} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return fmt.Errorf("failed to create %s bucket: %w", name, err)
		}
	}
	return nil
}

func (s *Storage) update(fn func(tx *bbolt.Tx) error) error {
	return s.with(false, func(db *bbolt.DB) error {
		return db.Update(fn)
	})
}

func (s *Storage) view(fn func(tx *bbolt.Tx) error) error {
	return s.with(true, func(db *bbolt.DB) error {
		return db.View(fn)
	})
}

// with выдает открытую БД. В shared режиме файл открывается на одну
// транзакцию: читатели берут разделяемую блокировку, писатели эксклюзивную.
func (s *Storage) with(readOnly bool, fn func(db *bbolt.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	if !s.shared {
		if s.db == nil {
			return storage.ErrStorageClosed
		}
		return fn(s.db)
	}

	db, err := bbolt.Open(s.path, 0600, &bbolt.Options{Timeout: openTimeout, ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("failed to open boltdb: %w", err)
	}
	err = fn(db)
	if cerr := db.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("failed to close boltdb: %w", cerr))
	}
	return err
}
