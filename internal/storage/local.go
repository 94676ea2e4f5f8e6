package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage writes files under a base directory on local disk, one
// subdirectory per document.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) Save(ctx context.Context, documentID uuid.UUID, version int, fileName string, content io.Reader, size int64) (string, error) {
	key := objectKey(documentID, version, fileName)
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("creating document directory: %w", err)
	}

	out, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, content); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("writing file: %w", err)
	}
	return key, nil
}

func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	// Keys come from the database, but never follow one outside basePath.
	if strings.Contains(key, "..") {
		return nil, fmt.Errorf("invalid storage key %q", key)
	}
	file, err := os.Open(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if strings.Contains(key, "..") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	err := os.Remove(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
