package objectstore

import (
	"context"
	"time"
)

// Store abstracts the durable object storage reached during promotion.
// The MinIO implementation is in minio.go; tests use an in-memory mock.
type Store interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
