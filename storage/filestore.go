package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"PellinesFM/logger"
)

// FileStore keeps audio assets as plain files under a single directory,
// the default backend. Keys never contain path separators, so the store
// cannot be walked out of.
type FileStore struct {
	dir string
}

// NewFileStore creates the backing directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audio dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the backing directory, used by the asset watcher.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes to a temp file first and renames into place, so a failed or
// interrupted upload never leaves a half-written asset under the final key.
func (s *FileStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close audio file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to place audio file %s: %w", key, err)
	}

	logger.Debug("audio asset saved",
		logger.String("key", key),
		logger.Int64("size", size))
	return nil
}

// Open returns an *os.File positioned at the start plus the asset size.
func (s *FileStore) Open(ctx context.Context, key string) (io.ReadSeekCloser, int64, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open audio file %s: %w", key, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat audio file %s: %w", key, err)
	}

	return f, info.Size(), nil
}

// Remove deletes the asset file.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove audio file %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(s.dir, key), nil
}
