package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const createKVTable = `
CREATE TABLE IF NOT EXISTS registry_kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL
);
`

// SQLiteStore implements Store and ConditionalStore on a SQLite database in
// WAL mode. PutIfAbsent relies on INSERT ... ON CONFLICT DO NOTHING and
// PutIfMatch on a value-guarded UPDATE, both atomic at the database level.
type SQLiteStore struct {
	dbPath string
	db     *sqlx.DB
}

// NewSQLiteStore opens or creates the database at dbPath and ensures the
// key-value table exists.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	if err := configureDatabase(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to configure database")
	}

	if _, err := db.ExecContext(ctx, createKVTable); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	return &SQLiteStore{dbPath: dbPath, db: db}, nil
}

// configureDatabase sets up SQLite pragmas for WAL mode operation.
func configureDatabase(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return errors.Wrapf(err, "failed to execute pragma: %s", pragma)
		}
	}
	return nil
}

// Get returns the value at key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, "SELECT value FROM registry_kv WHERE key = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "failed to query value")
	}
	return value, true, nil
}

// Put writes value at key, overwriting any existing value.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO registry_kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return errors.Wrap(err, "failed to upsert value")
	}
	return nil
}

// Delete removes the value at key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM registry_kv WHERE key = ?", key)
	if err != nil {
		return false, errors.Wrap(err, "failed to delete value")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return affected > 0, nil
}

// List returns all keys beginning with prefix in lexicographic order.
func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	err := s.db.SelectContext(ctx, &keys,
		`SELECT key FROM registry_kv WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
		escapeLike(prefix)+"%")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list keys")
	}
	return keys, nil
}

// escapeLike escapes SQL LIKE wildcards in a literal prefix.
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

// PutIfAbsent writes value at key only if no row exists, atomically via the
// conflict clause.
func (s *SQLiteStore) PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO registry_kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING",
		key, value)
	if err != nil {
		return false, errors.Wrap(err, "failed to insert value")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return affected > 0, nil
}

// PutIfMatch writes value at key only if the current row value equals
// expected. A nil expected requires the key to be absent.
func (s *SQLiteStore) PutIfMatch(ctx context.Context, key string, value, expected []byte) (bool, error) {
	if expected == nil {
		return s.PutIfAbsent(ctx, key, value)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE registry_kv SET value = ? WHERE key = ? AND value = ?",
		value, key, expected)
	if err != nil {
		return false, errors.Wrap(err, "failed to update value")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return affected > 0, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
