package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSClientStorage uploads objects with the official Cloud Storage client. It
// is selected with STORAGE_BACKEND=gcs-sdk and shares the public URL scheme of
// GCSRestStorage.
type GCSClientStorage struct {
	client     *storage.Client
	bucket     string
	publicBase string
}

// NewGCSClientStorage creates a GCSClientStorage for bucket. opts are passed
// through to the underlying client, allowing credential injection.
func NewGCSClientStorage(ctx context.Context, bucket, publicBase string, opts ...option.ClientOption) (*GCSClientStorage, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSClientStorage{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// Upload writes reader to bucket/key with a public-read ACL.
func (s *GCSClientStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.PredefinedACL = "publicRead"

	if _, err := io.Copy(w, reader); err != nil {
		_ = w.Close()
		return &UploadError{Object: key, Err: err}
	}
	if err := w.Close(); err != nil {
		return &UploadError{Object: key, Err: err}
	}
	return nil
}

// PublicURL returns publicBase/bucket/key.
func (s *GCSClientStorage) PublicURL(key string) string {
	return s.publicBase + "/" + s.bucket + "/" + key
}

// Close releases the underlying client.
func (s *GCSClientStorage) Close() error {
	return s.client.Close()
}
