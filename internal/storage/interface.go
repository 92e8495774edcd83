package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the object operations the payload archive needs.
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download downloads an object from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the location of an object, for logs and job records
	GetURL(key string) string
}
