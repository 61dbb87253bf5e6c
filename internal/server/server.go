// Package server exposes a frozen ResolvedProject, and optionally the
// snapshot history, over a read-only HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/pipedef/internal/builder"
	"github.com/specialistvlad/pipedef/internal/ctxlog"
	"github.com/specialistvlad/pipedef/internal/snapshot"
)

const shutdownTimeout = 5 * time.Second

// Options configures the API server.
type Options struct {
	Addr    string
	Project *builder.ResolvedProject
	// Snapshots is optional. Without it the snapshot routes are not
	// registered.
	Snapshots *snapshot.Store
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, opts Options) error {
	logger := ctxlog.FromContext(ctx)
	if opts.Project == nil {
		return errors.New("server: project is required")
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: NewRouter(ctx, opts.Project, opts.Snapshots),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting.", "address", opts.Addr, "project", opts.Project.Project().ID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown failed.", "error", err)
		return fmt.Errorf("server: %w", err)
	}
	logger.Debug("API server shut down gracefully.")
	return nil
}

// NewRouter builds the gin engine serving rp. ctx supplies the logger.
func NewRouter(ctx context.Context, rp *builder.ResolvedProject, store *snapshot.Store) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(ctx))
	registerRoutes(router, rp, store)
	return router
}

func requestLogger(ctx context.Context) gin.HandlerFunc {
	logger := ctxlog.FromContext(ctx)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request served.",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
