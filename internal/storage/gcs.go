package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/imgrelay/service/internal/auth"
)

const maxErrorBody = 4 << 10

// GCSOptions configures a GCSRestStorage.
type GCSOptions struct {
	Bucket string
	// UploadURL is the JSON API upload root, e.g.
	// "https://storage.googleapis.com/upload/storage/v1".
	UploadURL string
	// PublicBase prefixes public object URLs, e.g. "https://storage.googleapis.com".
	PublicBase string
	Client     *http.Client
	Logger     *zap.Logger
}

// GCSRestStorage uploads objects through the Cloud Storage JSON API using a
// hand-built multipart/related body and a bearer token minted per upload.
type GCSRestStorage struct {
	tokens      auth.TokenSource
	client      *http.Client
	log         *zap.Logger
	bucket      string
	uploadURL   string
	publicBase  string
	newBoundary func() (string, error)
}

// NewGCSRestStorage creates a GCSRestStorage that authenticates with tokens.
func NewGCSRestStorage(tokens auth.TokenSource, opts GCSOptions) *GCSRestStorage {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &GCSRestStorage{
		tokens:      tokens,
		client:      client,
		log:         log,
		bucket:      opts.Bucket,
		uploadURL:   strings.TrimRight(opts.UploadURL, "/"),
		publicBase:  strings.TrimRight(opts.PublicBase, "/"),
		newBoundary: NewBoundary,
	}
}

// Upload authenticates, encodes reader as a multipart body and posts it with a
// public-read ACL. size is informational; the body length is taken from the
// bytes actually read.
func (s *GCSRestStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	log := s.log.With(zap.String("object", key))

	log.Debug("upload state", zap.String("state", "authenticating"))
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	log.Debug("upload state", zap.String("state", "encoding"), zap.Int64("size", size))
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read upload content: %w", err)
	}
	boundary, err := s.newBoundary()
	if err != nil {
		return err
	}
	body := EncodeMultipart(boundary, ObjectMetadata{Name: key, ContentType: contentType}, data)

	log.Debug("upload state", zap.String("state", "uploading"), zap.Int("body_bytes", len(body)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", MultipartContentType(boundary))

	resp, err := s.client.Do(req)
	if err != nil {
		return &UploadError{Object: key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &UploadError{
			Object:     key,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// PublicURL returns publicBase/bucket/key. The response body is never
// consulted; the URL is fully determined by bucket and key.
func (s *GCSRestStorage) PublicURL(key string) string {
	return s.publicBase + "/" + s.bucket + "/" + key
}

func (s *GCSRestStorage) endpoint() string {
	q := url.Values{}
	q.Set("uploadType", "multipart")
	q.Set("predefinedAcl", "publicRead")
	return fmt.Sprintf("%s/b/%s/o?%s", s.uploadURL, url.PathEscape(s.bucket), q.Encode())
}
