package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "APP_ENV", "LOG_LEVEL", "DATABASE_URL", "STORAGE_BACKEND",
		"GCS_SERVICE_ACCOUNT", "GCS_BUCKET_NAME", "GCS_TOKEN_URL", "GCS_UPLOAD_URL",
		"GCS_PUBLIC_BASE", "MAX_UPLOAD_MEMORY", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendGCS, cfg.StorageBackend)
	assert.Equal(t, "https://oauth2.googleapis.com/token", cfg.TokenURL)
	assert.Equal(t, "https://storage.googleapis.com/upload/storage/v1", cfg.UploadURL)
	assert.Equal(t, "https://storage.googleapis.com", cfg.PublicBase)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadMemory)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.HistoryEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("GCS_SERVICE_ACCOUNT", `{"client_email":"a@b.c"}`)
	t.Setenv("GCS_BUCKET_NAME", "photos")
	t.Setenv("DATABASE_URL", "postgres://localhost/relay")
	t.Setenv("MAX_UPLOAD_MEMORY", "1024")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,,")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, `{"client_email":"a@b.c"}`, cfg.ServiceAccountJSON)
	assert.Equal(t, "photos", cfg.BucketName)
	assert.Equal(t, int64(1024), cfg.MaxUploadMemory)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.HistoryEnabled())
}

func TestGetEnvInt64Fallback(t *testing.T) {
	for _, v := range []string{"abc", "0", "-5"} {
		t.Setenv("MAX_UPLOAD_MEMORY", v)
		assert.Equal(t, int64(7), getEnvInt64("MAX_UPLOAD_MEMORY", 7), v)
	}
}
