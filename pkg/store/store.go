// Package store provides the key-value storage contract the skill registry
// engine is built on, together with memory, filesystem, bbolt and sqlite
// implementations. Keys are slash-delimited strings; values are opaque byte
// blobs. The engine only depends on the Store interface.
package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Store defines the ordered-prefix key-value contract consumed by the
// registry engine. All implementations must make PutIfAbsent atomic: under
// concurrent calls for the same key exactly one caller observes created=true.
type Store interface {
	// Get returns the value at key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Put writes value at key, overwriting any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the value at key and reports whether it existed.
	Delete(ctx context.Context, key string) (existed bool, err error)

	// List returns all keys beginning with prefix, in lexicographic order.
	List(ctx context.Context, prefix string) ([]string, error)

	// PutIfAbsent writes value at key only if the key has no value yet.
	// It reports whether the write happened. The check and the write are a
	// single atomic operation.
	PutIfAbsent(ctx context.Context, key string, value []byte) (created bool, err error)

	// Close releases any resources held by the store.
	Close() error
}

// ConditionalStore is an optional extension for stores that can perform
// compare-and-swap writes. The engine uses it, when available, to make the
// metadata read-modify-write in publish safe under concurrent publishers.
type ConditionalStore interface {
	// PutIfMatch writes value at key only if the current value is
	// byte-identical to expected. A nil expected means "key must be absent".
	// It reports whether the write happened.
	PutIfMatch(ctx context.Context, key string, value, expected []byte) (swapped bool, err error)
}

// Config holds configuration for constructing a store.
type Config struct {
	Backend string // "memory", "filesystem", "bbolt" or "sqlite"
	Path    string // base directory (filesystem) or database file (bbolt, sqlite)
}

// DefaultConfig returns the default store configuration, rooted under the
// user's home directory.
func DefaultConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user home directory")
	}

	return &Config{
		Backend: "bbolt",
		Path:    filepath.Join(home, ".skillhub", "registry.db"),
	}, nil
}

// New creates the Store implementation selected by config. A nil config
// falls back to DefaultConfig.
func New(ctx context.Context, config *Config) (Store, error) {
	if config == nil {
		var err error
		config, err = DefaultConfig()
		if err != nil {
			return nil, errors.Wrap(err, "failed to create default store config")
		}
	}

	switch config.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		return NewFilesystemStore(config.Path)
	case "sqlite":
		return NewSQLiteStore(ctx, config.Path)
	case "bbolt", "":
		return NewBBoltStore(ctx, config.Path)
	default:
		return nil, errors.Errorf("unknown store backend: %s", config.Backend)
	}
}
