package store

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// FilesystemStore implements Store with one file per key under a base
// directory. Writes go through a temp file and rename so readers never
// observe partial values. It does not implement ConditionalStore: there is
// no portable compare-and-swap over plain files.
type FilesystemStore struct {
	basePath string
}

// valueSuffix is appended to the final key segment on disk. Without it a
// key such as "skills/acme/user" would claim the same path that
// "skills/acme/user/metadata" needs as a directory.
const valueSuffix = ".val"

// NewFilesystemStore creates a filesystem-backed store rooted at basePath,
// creating the directory if needed.
func NewFilesystemStore(basePath string) (*FilesystemStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create store directory")
	}

	return &FilesystemStore{basePath: basePath}, nil
}

func (s *FilesystemStore) pathFor(key string) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	segments := strings.Split(key, "/")
	for _, segment := range segments {
		if segment == "" || segment == "." || segment == ".." {
			return "", errors.Errorf("invalid key: %s", key)
		}
	}
	segments[len(segments)-1] += valueSuffix
	return filepath.Join(append([]string{s.basePath}, segments...)...), nil
}

// Get returns the value at key.
func (s *FilesystemStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "failed to read value file")
	}
	return data, true, nil
}

// Put writes value at key via a temp file and atomic rename.
func (s *FilesystemStore) Put(_ context.Context, key string, value []byte) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create key directory")
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, value, 0o644); err != nil {
		return errors.Wrap(err, "failed to write temporary value file")
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(err, "failed to rename temporary value file")
	}
	return nil
}

// Delete removes the value at key.
func (s *FilesystemStore) Delete(_ context.Context, key string) (bool, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return false, err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to delete value file")
	}
	return true, nil
}

// List walks the base directory and returns all keys beginning with prefix.
func (s *FilesystemStore) List(_ context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, valueSuffix) {
			return nil
		}

		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}

		key := strings.TrimSuffix(filepath.ToSlash(rel), valueSuffix)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to walk store directory")
	}

	sort.Strings(keys)
	return keys, nil
}

// PutIfAbsent creates the value file with O_EXCL so the existence check and
// the write are one atomic operation.
func (s *FilesystemStore) PutIfAbsent(_ context.Context, key string, value []byte) (bool, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errors.Wrap(err, "failed to create key directory")
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to create value file")
	}

	if _, err := f.Write(value); err != nil {
		f.Close()
		os.Remove(path)
		return false, errors.Wrap(err, "failed to write value file")
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return false, errors.Wrap(err, "failed to close value file")
	}
	return true, nil
}

// Close is a no-op for the filesystem store.
func (s *FilesystemStore) Close() error {
	return nil
}
