package storage

import (
	"context"
	"fmt"
	"io"

	"edm-backend/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage keeps document content in a MinIO (or any S3-compatible)
// bucket.
type MinioStorage struct {
	client *minio.Client
	bucket string
}

func NewMinioStorage(ctx context.Context) (*MinioStorage, error) {
	cfg := config.AppConfig
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing minio client: %w", err)
	}

	if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, cfg.MinioBucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("creating bucket %q: %w", cfg.MinioBucket, err)
		}
	}

	return &MinioStorage{client: client, bucket: cfg.MinioBucket}, nil
}

func (s *MinioStorage) Save(ctx context.Context, documentID uuid.UUID, version int, fileName string, content io.Reader, size int64) (string, error) {
	key := objectKey(documentID, version, fileName)
	_, err := s.client.PutObject(ctx, s.bucket, key, content, size, minio.PutObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	return key, nil
}

func (s *MinioStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy, so surface missing objects here instead of at
	// first read.
	if _, err := object.Stat(); err != nil {
		object.Close()
		return nil, err
	}
	return object, nil
}

func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
