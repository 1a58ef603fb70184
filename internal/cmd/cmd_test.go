package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tomasbasham/cli-runtime/iooption"

	"github.com/imgrelay/service/internal/config"
	"github.com/imgrelay/service/internal/storage"
)

func testStreams() iooption.IOStreams {
	return iooption.IOStreams{In: &bytes.Buffer{}, Out: &bytes.Buffer{}, ErrOut: &bytes.Buffer{}}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := NewRootCommandWithArgs(NewRelayOptions(testStreams()))

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "liveness"}, names)
}

func TestServeFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("STORAGE_BACKEND", "gcs")
	t.Setenv("GCS_BUCKET_NAME", "photos")

	o := NewServeOptions(testStreams())
	o.Port = "9090"
	o.Backend = config.BackendGCSSDK
	require.NoError(t, o.Complete(nil, nil))

	assert.Equal(t, "9090", o.cfg.Port)
	assert.Equal(t, config.BackendGCSSDK, o.cfg.StorageBackend)
	assert.NoError(t, o.Validate())
}

func TestServeValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{"ok", config.Config{StorageBackend: config.BackendGCS, BucketName: "b"}, ""},
		{"missing bucket", config.Config{StorageBackend: config.BackendGCS}, "GCS_BUCKET_NAME"},
		{"unknown backend", config.Config{StorageBackend: "ftp", BucketName: "b"}, `unknown storage backend "ftp"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			o := &ServeOptions{cfg: &cfg}
			err := o.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewStorageGCS(t *testing.T) {
	cfg := &config.Config{
		StorageBackend: config.BackendGCS,
		BucketName:     "photos",
		PublicBase:     "https://storage.googleapis.com",
	}

	store, closer, err := newStorage(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closer.Close()

	assert.IsType(t, &storage.GCSRestStorage{}, store)
	assert.Equal(t, "https://storage.googleapis.com/photos/images/1-a.png", store.PublicURL("images/1-a.png"))
}

func TestNewStorageUnknownBackend(t *testing.T) {
	_, _, err := newStorage(context.Background(), &config.Config{StorageBackend: "ftp"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown storage backend")
}
