package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/oceanchat/oceanchat/internal/infra/config"
	"github.com/oceanchat/oceanchat/internal/scheduler"
)

// App encapsulates the HTTP server and ingestion scheduler lifecycle.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
	sched  *scheduler.Scheduler
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, sched *scheduler.Scheduler) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, sched: sched}
}

// Run starts the HTTP server (and the scheduler when ingestion is enabled)
// and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Ingest.Enabled {
		if err := a.sched.Start(); err != nil {
			return err
		}
		defer a.sched.Stop()
		a.logger.Info("ingestion scheduler started", "interval", a.cfg.Ingest.Interval)
	}

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
