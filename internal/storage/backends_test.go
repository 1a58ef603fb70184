package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestGCSClientStoragePublicURL(t *testing.T) {
	s, err := NewGCSClientStorage(context.Background(), "my-bucket", "https://storage.googleapis.com", option.WithoutAuthentication())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "https://storage.googleapis.com/my-bucket/images/1-a.png", s.PublicURL("images/1-a.png"))
}

func TestMinioStoragePublicURL(t *testing.T) {
	s := &MinioStorage{bucket: "images", publicBase: "http://localhost:9000/images"}
	assert.Equal(t, "http://localhost:9000/images/images/1-a.png", s.PublicURL("images/1-a.png"))
}

func TestPublicReadPolicy(t *testing.T) {
	var policy struct {
		Version   string
		Statement []struct {
			Effect   string
			Action   []string
			Resource []string
		}
	}
	require.NoError(t, json.Unmarshal([]byte(publicReadPolicy("bkt")), &policy))

	require.Len(t, policy.Statement, 1)
	assert.Equal(t, "Allow", policy.Statement[0].Effect)
	assert.Equal(t, []string{"s3:GetObject"}, policy.Statement[0].Action)
	assert.Equal(t, []string{"arn:aws:s3:::bkt/images/*"}, policy.Statement[0].Resource)
}
