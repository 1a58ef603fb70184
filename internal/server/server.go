// Package server builds the HTTP routers and runs them with graceful shutdown.
//
// Endpoints of the relay:
//
//	POST /upload     relay the "image" form file to the bucket
//	GET  /uploads    recent upload history (JSON)
//	GET  /health     JSON health check
//	GET  /swagger/*  API documentation
//
// The liveness unit serves only GET /.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	appMiddleware "github.com/imgrelay/service/internal/middleware"
	"github.com/imgrelay/service/internal/relay"
	"github.com/imgrelay/service/internal/response"

	_ "github.com/imgrelay/service/docs/swagger"
)

// LivenessMessage is the fixed body of the liveness endpoint.
const LivenessMessage = "Image relay is alive"

const shutdownTimeout = 30 * time.Second

// Options configures NewRouter.
type Options struct {
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter returns the relay router.
func NewRouter(h *relay.Handler, opts Options) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(opts.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Post("/upload", h.Upload)
	r.Get("/uploads", h.ListUploads)

	return r
}

// NewLivenessRouter returns the router of the standalone liveness unit.
func NewLivenessRouter(log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(appMiddleware.Logger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		response.Text(w, http.StatusOK, LivenessMessage)
	})
	return r
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
