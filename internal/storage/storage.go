package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"edm-backend/internal/config"
	"edm-backend/internal/errors"

	"github.com/google/uuid"
)

// FileStorage persists document version content. Keys are relative paths of
// the form "<documentID>/v<version>_<originalFileName>", produced by Save
// and stored on the document version row.
type FileStorage interface {
	Save(ctx context.Context, documentID uuid.UUID, version int, fileName string, content io.Reader, size int64) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

func objectKey(documentID uuid.UUID, version int, fileName string) string {
	return fmt.Sprintf("%s/v%d_%s", documentID, version, filepath.Base(fileName))
}

// ValidateUpload rejects files that are too large or of a type the
// deployment does not accept, before any bytes are written.
func ValidateUpload(fileName string, size int64) error {
	maxBytes := config.AppConfig.MaxFileSizeMB * 1024 * 1024
	if size > maxBytes {
		return errors.UnprocessableEntity(
			fmt.Sprintf("File exceeds the %dMB limit", config.AppConfig.MaxFileSizeMB), nil)
	}

	extension := strings.ToLower(filepath.Ext(fileName))
	if extension == "" {
		return errors.UnprocessableEntity("File has no extension", nil)
	}
	for _, allowed := range config.AppConfig.AllowedExtensions {
		if extension == strings.ToLower(allowed) {
			return nil
		}
	}
	return errors.UnprocessableEntity(
		fmt.Sprintf("File extension %s is not allowed", extension), nil)
}

// NewFromConfig picks the backend from STORAGE_BACKEND: "minio" or local
// disk (the default).
func NewFromConfig(ctx context.Context) (FileStorage, error) {
	if config.AppConfig.StorageBackend == "minio" {
		return NewMinioStorage(ctx)
	}
	return NewLocalStorage(config.AppConfig.StorageBasePath)
}
