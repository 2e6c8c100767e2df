package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/hydro-agent/internal/domain/station"
	"github.com/yanqian/hydro-agent/internal/infra/config"
	"github.com/yanqian/hydro-agent/internal/infra/scheduler"
)

const warmTimeout = 2 * time.Minute

// App encapsulates the HTTP server, the directory refresh job and their lifecycle.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	server    *http.Server
	directory *station.Directory
	scheduler *scheduler.Scheduler
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, directory *station.Directory, sched *scheduler.Scheduler) *App {
	return &App{
		cfg:       cfg,
		logger:    logger.With("component", "bootstrap"),
		server:    server,
		directory: directory,
		scheduler: sched,
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Directory.WarmOnStart {
		a.warm(ctx)
	}
	if err := a.scheduler.Start(); err != nil {
		return err
	}
	defer a.scheduler.Stop()

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// warm seeds the directory from the shared store, then refreshes it in the
// background when the stored generation is stale or absent.
func (a *App) warm(ctx context.Context) {
	if err := a.directory.Warm(ctx); err != nil {
		a.logger.Warn("directory warm start failed", "error", err)
	}
	go func() {
		refreshCtx, cancel := context.WithTimeout(ctx, warmTimeout)
		defer cancel()
		if err := a.directory.Refresh(refreshCtx); err != nil {
			a.logger.Warn("initial directory refresh failed", "error", err)
		}
	}()
}
