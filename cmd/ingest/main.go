package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oceanchat/oceanchat/internal/domain/ingest"
	"github.com/oceanchat/oceanchat/internal/infra/config"
	"github.com/oceanchat/oceanchat/internal/infra/provider"
	"github.com/oceanchat/oceanchat/internal/observability"
	"github.com/oceanchat/oceanchat/pkg/logger"
)

// Runs a single ingestion cycle and exits. Useful for cron-style deployments
// and for backfilling without the long-running server.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logg := logger.New()
	clock := clockwork.NewRealClock()
	client := &http.Client{Timeout: 30 * time.Second}

	argoCfg := provider.ArgoConfig{
		BaseURL:         cfg.Providers.Argo.BaseURL,
		MaxFiles:        cfg.Providers.Argo.MaxFiles,
		DownloadTimeout: cfg.Providers.Argo.DownloadTimeout,
	}
	source := provider.NewArgoSource(argoCfg, client, provider.NewDemoDecoder(clock), clock, logg)

	store := buildStore(cfg, logg)
	arch := buildArchive(cfg, logg)

	service := ingest.NewService(source, arch, store, store, observability.NewMetrics(), logg, clock)

	report, err := service.Run(ctx)
	if err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}
	logg.Info("ingestion finished",
		"processed", report.FilesProcessed,
		"failed", report.FilesFailed,
		"rows", report.RowsInserted,
		"fallback", report.FromFallback)
}
