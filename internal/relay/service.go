// Package relay accepts uploaded images and forwards them to object storage.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/imgrelay/service/internal/auth"
	"github.com/imgrelay/service/internal/history"
	"github.com/imgrelay/service/internal/storage"
)

// State is a step of a single upload. Failed and Succeeded are terminal and
// nothing is retried.
type State string

const (
	StateReceived       State = "received"
	StateAuthenticating State = "authenticating"
	StateEncoding       State = "encoding"
	StateUploading      State = "uploading"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
)

// MissingInputError is returned when the request carries no image file.
type MissingInputError struct {
	Field string
	Err   error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing form file %q: %v", e.Field, e.Err)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// HistoryStore persists completed uploads. It is optional.
type HistoryStore interface {
	Create(ctx context.Context, rec *history.Record) error
	ListRecent(ctx context.Context, limit int) ([]history.Record, error)
}

// Upload is one incoming file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Result is the outcome of a successful upload.
type Result struct {
	ObjectName string
	URL        string
}

// Service relays uploads to storage.
type Service struct {
	store   storage.Storage
	history HistoryStore
	log     *zap.Logger
	now     func() time.Time
}

// NewService creates a Service. hist may be nil to disable upload history.
func NewService(store storage.Storage, hist HistoryStore, log *zap.Logger) *Service {
	return &Service{store: store, history: hist, log: log, now: time.Now}
}

// ObjectName returns images/<unix-millis>-<filename>. Two uploads of the same
// filename within one millisecond map to the same object.
func ObjectName(at time.Time, filename string) string {
	return fmt.Sprintf("images/%d-%s", at.UnixMilli(), filename)
}

// Upload sends u to storage and returns its public URL.
func (s *Service) Upload(ctx context.Context, u Upload) (*Result, error) {
	name := ObjectName(s.now(), u.Filename)
	log := s.log.With(zap.String("object", name))
	log.Info("upload state",
		zap.String("state", string(StateReceived)),
		zap.String("filename", u.Filename),
		zap.String("content_type", u.ContentType),
		zap.Int64("size", u.Size),
	)

	if err := s.store.Upload(ctx, name, u.Content, u.Size, u.ContentType); err != nil {
		log.Error("upload state",
			zap.String("state", string(StateFailed)),
			zap.String("failed_in", string(FailedState(err))),
			zap.String("error_kind", ErrorKind(err)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("relay %q: %w", name, err)
	}

	res := &Result{ObjectName: name, URL: s.store.PublicURL(name)}
	log.Info("upload state", zap.String("state", string(StateSucceeded)), zap.String("url", res.URL))

	if s.history != nil {
		rec := &history.Record{
			ObjectName:   name,
			OriginalName: u.Filename,
			ContentType:  u.ContentType,
			Size:         u.Size,
			URL:          res.URL,
		}
		if err := s.history.Create(ctx, rec); err != nil {
			log.Warn("record upload history", zap.Error(err))
		}
	}

	return res, nil
}

// Recent lists the latest recorded uploads. It returns an empty list when
// history is disabled.
func (s *Service) Recent(ctx context.Context, limit int) ([]history.Record, error) {
	if s.history == nil {
		return []history.Record{}, nil
	}
	return s.history.ListRecent(ctx, history.ClampLimit(limit))
}

// ErrorKind names the failure class of err for logs.
func ErrorKind(err error) string {
	var (
		missing  *MissingInputError
		cred     *auth.CredentialError
		upstream *auth.UpstreamAuthError
		upload   *storage.UploadError
	)
	switch {
	case errors.As(err, &missing):
		return "MissingInputError"
	case errors.As(err, &cred):
		return "CredentialError"
	case errors.As(err, &upstream):
		return "UpstreamAuthError"
	case errors.As(err, &upload):
		return "UploadError"
	default:
		return "InternalError"
	}
}

// FailedState reports the step an upload error came from.
func FailedState(err error) State {
	var (
		cred     *auth.CredentialError
		upstream *auth.UpstreamAuthError
		upload   *storage.UploadError
	)
	switch {
	case errors.As(err, &cred), errors.As(err, &upstream):
		return StateAuthenticating
	case errors.As(err, &upload):
		return StateUploading
	default:
		return StateEncoding
	}
}
