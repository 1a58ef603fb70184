// Package storage defines the interface for object storage operations.
// The default implementation talks to the Cloud Storage JSON API directly;
// alternatives wrap the official GCS client and any S3-compatible provider.
package storage

import (
	"context"
	"fmt"
	"io"
)

// Storage is the interface for uploading objects.
type Storage interface {
	// Upload sends data to the store under the given key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}

// UploadError is returned when the storage provider rejects a write.
type UploadError struct {
	Object     string
	StatusCode int
	Body       string
	Err        error
}

func (e *UploadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upload %q: status %d: %s", e.Object, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("upload %q: %v", e.Object, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
