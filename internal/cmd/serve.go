package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/tomasbasham/cli-runtime/iooption"
	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/imgrelay/service/internal/auth"
	"github.com/imgrelay/service/internal/config"
	"github.com/imgrelay/service/internal/db"
	"github.com/imgrelay/service/internal/history"
	"github.com/imgrelay/service/internal/logger"
	"github.com/imgrelay/service/internal/relay"
	"github.com/imgrelay/service/internal/server"
	"github.com/imgrelay/service/internal/storage"
)

// ServeOptions holds the options of the `serve` command. Everything not
// given as a flag comes from the environment.
type ServeOptions struct {
	cfg *config.Config

	Port    string
	Backend string

	iooption.IOStreams
}

var (
	serveLong = templates.LongDesc(`
		Start the image upload API.

		Configuration is read from the environment and an optional .env file.
		GCS_SERVICE_ACCOUNT holds the service-account JSON and GCS_BUCKET_NAME
		the target bucket. Set DATABASE_URL to record upload history.`)

	serveExample = templates.Examples(`
		# Start on the port from $PORT (default 8080)
		relay serve

		# Start on a custom port using the Cloud Storage client library
		relay serve --port 9090 --backend gcs-sdk`)
)

// NewServeOptions provides an initialised ServeOptions instance.
func NewServeOptions(streams iooption.IOStreams) *ServeOptions {
	return &ServeOptions{
		IOStreams: streams,
	}
}

// NewServeCommand creates the `serve` command.
func NewServeCommand(o *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the image upload API",
		Long:    serveLong,
		Example: serveExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run()
		},
	}

	cmd.Flags().StringVarP(&o.Port, "port", "p", "", "Port to listen on (overrides $PORT)")
	cmd.Flags().StringVar(&o.Backend, "backend", "", "Storage backend: gcs, gcs-sdk or minio (overrides $STORAGE_BACKEND)")

	return cmd
}

func (o *ServeOptions) Complete(cmd *cobra.Command, args []string) error {
	o.cfg = config.Load()
	if o.Port != "" {
		o.cfg.Port = o.Port
	}
	if o.Backend != "" {
		o.cfg.StorageBackend = o.Backend
	}
	return nil
}

func (o *ServeOptions) Validate() error {
	switch o.cfg.StorageBackend {
	case config.BackendGCS, config.BackendGCSSDK, config.BackendMinio:
	default:
		return fmt.Errorf("unknown storage backend %q", o.cfg.StorageBackend)
	}
	if o.cfg.BucketName == "" {
		return fmt.Errorf("GCS_BUCKET_NAME is required")
	}
	return nil
}

func (o *ServeOptions) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := o.cfg
	log, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	if cfg.EnvFile {
		log.Debug("loaded .env file")
	}
	if cfg.ServiceAccountJSON == "" && cfg.StorageBackend == config.BackendGCS {
		log.Warn("GCS_SERVICE_ACCOUNT is empty; every upload will fail")
	}

	store, closer, err := newStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialise %s storage: %w", cfg.StorageBackend, err)
	}
	defer closer.Close()

	var hist relay.HistoryStore
	if cfg.HistoryEnabled() {
		pool, err := db.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer pool.Close()

		if err := db.Migrate(cfg.DatabaseURL, log); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		hist = history.NewRepository(pool)
	}

	svc := relay.NewService(store, hist, log)
	h := relay.NewHandler(svc, log, cfg.MaxUploadMemory)
	router := server.NewRouter(h, server.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         log,
	})

	fmt.Fprintf(o.Out, "Starting image relay on :%s (env=%s, backend=%s)\n", cfg.Port, cfg.AppEnv, cfg.StorageBackend)
	return server.Run(ctx, ":"+cfg.Port, router, log)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newStorage builds the storage backend selected by cfg. The returned closer
// releases any client the backend holds.
func newStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Storage, io.Closer, error) {
	switch cfg.StorageBackend {
	case config.BackendGCS:
		exchanger := auth.NewTokenExchanger(nil, cfg.TokenURL)
		tokens := auth.NewServiceAccountTokenSource([]byte(cfg.ServiceAccountJSON), exchanger)
		return storage.NewGCSRestStorage(tokens, storage.GCSOptions{
			Bucket:     cfg.BucketName,
			UploadURL:  cfg.UploadURL,
			PublicBase: cfg.PublicBase,
			Logger:     log,
		}), nopCloser{}, nil

	case config.BackendGCSSDK:
		var opts []option.ClientOption
		if cfg.ServiceAccountJSON != "" {
			opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
		}
		s, err := storage.NewGCSClientStorage(ctx, cfg.BucketName, cfg.PublicBase, opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case config.BackendMinio:
		s, err := storage.NewMinioStorage(ctx, storage.MinioOptions{
			Endpoint:   cfg.MinioEndpoint,
			AccessKey:  cfg.MinioAccessKey,
			SecretKey:  cfg.MinioSecretKey,
			Bucket:     cfg.BucketName,
			PublicBase: cfg.MinioPublicBase,
			UseSSL:     cfg.MinioUseSSL,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
