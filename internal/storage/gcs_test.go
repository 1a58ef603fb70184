package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/imgrelay/service/internal/auth"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token(context.Context) (string, error) { return s.token, s.err }

func newTestGCS(t *testing.T, tokens auth.TokenSource, srv *httptest.Server) *GCSRestStorage {
	t.Helper()
	s := NewGCSRestStorage(tokens, GCSOptions{
		Bucket:     "my-bucket",
		UploadURL:  srv.URL + "/upload/storage/v1/",
		PublicBase: "https://storage.googleapis.com/",
		Client:     srv.Client(),
		Logger:     zaptest.NewLogger(t),
	})
	s.newBoundary = func() (string, error) { return "fixedboundary", nil }
	return s
}

func TestGCSRestStorageUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload/storage/v1/b/my-bucket/o", r.URL.Path)
		assert.Equal(t, "multipart", r.URL.Query().Get("uploadType"))
		assert.Equal(t, "publicRead", r.URL.Query().Get("predefinedAcl"))
		assert.Equal(t, "Bearer T", r.Header.Get("Authorization"))

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/related", mediaType)
		assert.Equal(t, "fixedboundary", params["boundary"])

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		want := EncodeMultipart("fixedboundary", ObjectMetadata{Name: "images/1-a.png", ContentType: "image/png"}, []byte("0123456789"))
		assert.Equal(t, string(want), string(body))

		mr := multipart.NewReader(strings.NewReader(string(body)), params["boundary"])
		_, err = mr.NextPart()
		assert.NoError(t, err)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"name":"images/1-a.png"}`))
	}))
	defer srv.Close()

	s := newTestGCS(t, staticTokens{token: "T"}, srv)
	err := s.Upload(context.Background(), "images/1-a.png", strings.NewReader("0123456789"), 10, "image/png")
	require.NoError(t, err)
}

func TestGCSRestStorageUploadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	s := newTestGCS(t, staticTokens{token: "T"}, srv)
	err := s.Upload(context.Background(), "images/1-a.png", strings.NewReader("x"), 1, "image/png")

	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusForbidden, upErr.StatusCode)
	assert.Equal(t, "images/1-a.png", upErr.Object)
	assert.Equal(t, "forbidden", upErr.Body)
}

func TestGCSRestStorageTokenFailureSkipsUpload(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	tokenErr := &auth.UpstreamAuthError{StatusCode: http.StatusUnauthorized, Body: "nope", Err: errors.New("Unauthorized")}
	s := newTestGCS(t, staticTokens{err: tokenErr}, srv)
	err := s.Upload(context.Background(), "images/1-a.png", strings.NewReader("x"), 1, "image/png")

	var authErr *auth.UpstreamAuthError
	assert.ErrorAs(t, err, &authErr)
	assert.Zero(t, calls.Load())
}

func TestGCSRestStoragePublicURL(t *testing.T) {
	s := NewGCSRestStorage(staticTokens{}, GCSOptions{
		Bucket:     "my-bucket",
		PublicBase: "https://storage.googleapis.com/",
	})
	assert.Equal(t, "https://storage.googleapis.com/my-bucket/images/17-cat.png", s.PublicURL("images/17-cat.png"))
}

func TestUploadErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&UploadError{Object: "o", Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
