package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

const registryBucket = "registry"

// BBoltStore implements Store using BoltDB. It opens the database per
// operation so multiple processes can share the file; bbolt's transactions
// make PutIfAbsent and PutIfMatch genuinely atomic.
type BBoltStore struct {
	dbPath string
}

// NewBBoltStore creates a BoltDB-backed store at dbPath, creating the parent
// directory and the bucket on first use.
func NewBBoltStore(ctx context.Context, dbPath string) (*BBoltStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	store := &BBoltStore{dbPath: dbPath}

	err := store.withDB(func(db *bbolt.DB) error {
		return db.Update(func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists([]byte(registryBucket))
			return err
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize database")
	}

	return store, nil
}

// withDB executes an operation with a temporary database connection. This
// keeps lock duration minimal and allows concurrent access from other
// processes.
func (s *BBoltStore) withDB(operation func(*bbolt.DB) error) error {
	db, err := bbolt.Open(s.dbPath, 0o600, &bbolt.Options{
		Timeout: 2 * time.Second,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer db.Close()

	return operation(db)
}

// Get returns the value at key.
func (s *BBoltStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var found bool

	err := s.withDB(func(db *bbolt.DB) error {
		return db.View(func(tx *bbolt.Tx) error {
			data := tx.Bucket([]byte(registryBucket)).Get([]byte(key))
			if data == nil {
				return nil
			}
			found = true
			value = make([]byte, len(data))
			copy(value, data)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Put writes value at key, overwriting any existing value.
func (s *BBoltStore) Put(_ context.Context, key string, value []byte) error {
	return s.withDB(func(db *bbolt.DB) error {
		return db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket([]byte(registryBucket)).Put([]byte(key), value)
		})
	})
}

// Delete removes the value at key.
func (s *BBoltStore) Delete(_ context.Context, key string) (bool, error) {
	var existed bool

	err := s.withDB(func(db *bbolt.DB) error {
		return db.Update(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket([]byte(registryBucket))
			if bucket.Get([]byte(key)) == nil {
				return nil
			}
			existed = true
			return bucket.Delete([]byte(key))
		})
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

// List returns all keys beginning with prefix using a cursor seek.
func (s *BBoltStore) List(_ context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)

	err := s.withDB(func(db *bbolt.DB) error {
		return db.View(func(tx *bbolt.Tx) error {
			cursor := tx.Bucket([]byte(registryBucket)).Cursor()
			seek := []byte(prefix)
			for k, _ := cursor.Seek(seek); k != nil && bytes.HasPrefix(k, seek); k, _ = cursor.Next() {
				keys = append(keys, string(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// PutIfAbsent writes value at key inside a single update transaction, so the
// existence check and the write are atomic.
func (s *BBoltStore) PutIfAbsent(_ context.Context, key string, value []byte) (bool, error) {
	var created bool

	err := s.withDB(func(db *bbolt.DB) error {
		return db.Update(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket([]byte(registryBucket))
			if bucket.Get([]byte(key)) != nil {
				return nil
			}
			created = true
			return bucket.Put([]byte(key), value)
		})
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// PutIfMatch writes value at key only if the current value equals expected.
// A nil expected requires the key to be absent.
func (s *BBoltStore) PutIfMatch(_ context.Context, key string, value, expected []byte) (bool, error) {
	var swapped bool

	err := s.withDB(func(db *bbolt.DB) error {
		return db.Update(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket([]byte(registryBucket))
			current := bucket.Get([]byte(key))
			if expected == nil {
				if current != nil {
					return nil
				}
			} else if current == nil || !bytes.Equal(current, expected) {
				return nil
			}
			swapped = true
			return bucket.Put([]byte(key), value)
		})
	})
	if err != nil {
		return false, err
	}
	return swapped, nil
}

// Close is a no-op; connections are operation-scoped.
func (s *BBoltStore) Close() error {
	return nil
}
