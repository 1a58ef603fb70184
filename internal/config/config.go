// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	BackendGCS    = "gcs"
	BackendGCSSDK = "gcs-sdk"
	BackendMinio  = "minio"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	// DatabaseURL enables upload history when non-empty.
	DatabaseURL string

	StorageBackend string

	// Google Cloud Storage. ServiceAccountJSON is the raw credential blob and is
	// parsed on every upload, never at startup.
	ServiceAccountJSON string
	BucketName         string
	TokenURL           string
	UploadURL          string
	PublicBase         string

	// S3-compatible storage, used when StorageBackend is "minio".
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioUseSSL     bool
	MinioPublicBase string

	MaxUploadMemory    int64
	CORSAllowedOrigins []string

	// EnvFile is true when a .env file was found and loaded.
	EnvFile bool
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	return &Config{
		EnvFile: godotenv.Load() == nil,

		Port:     getEnv("PORT", "8080"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		StorageBackend: getEnv("STORAGE_BACKEND", BackendGCS),

		ServiceAccountJSON: getEnv("GCS_SERVICE_ACCOUNT", ""),
		BucketName:         getEnv("GCS_BUCKET_NAME", ""),
		TokenURL:           getEnv("GCS_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		UploadURL:          getEnv("GCS_UPLOAD_URL", "https://storage.googleapis.com/upload/storage/v1"),
		PublicBase:         getEnv("GCS_PUBLIC_BASE", "https://storage.googleapis.com"),

		MinioEndpoint:   getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		MinioAccessKey:  getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:  getEnv("STORAGE_SECRET_KEY", "minioadmin"),
		MinioUseSSL:     getEnv("STORAGE_USE_SSL", "false") == "true",
		MinioPublicBase: getEnv("STORAGE_PUBLIC_BASE", "http://localhost:9000/images"),

		MaxUploadMemory:    getEnvInt64("MAX_UPLOAD_MEMORY", 32<<20),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// HistoryEnabled returns true when uploads should be recorded in the database.
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
