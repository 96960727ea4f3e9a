package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/valkey-io/valkey-go"

	"github.com/oceanchat/oceanchat/internal/domain/ingest"
	"github.com/oceanchat/oceanchat/internal/domain/localdata"
	"github.com/oceanchat/oceanchat/internal/domain/routing"
	"github.com/oceanchat/oceanchat/internal/infra/archive"
	"github.com/oceanchat/oceanchat/internal/infra/config"
	"github.com/oceanchat/oceanchat/internal/infra/envelopecache"
	"github.com/oceanchat/oceanchat/internal/infra/oceanstore"
	"github.com/oceanchat/oceanchat/internal/infra/provider"
	"github.com/oceanchat/oceanchat/internal/observability"
	"github.com/oceanchat/oceanchat/internal/scheduler"
)

func provideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func provideMetrics() *observability.Metrics {
	return observability.NewMetrics()
}

func provideHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func provideRouterConfig(cfg *config.Config) routing.Config {
	return routing.Config{
		ExternalTimeout: cfg.Router.ExternalTimeout,
		CacheEnabled:    cfg.Cache.Enabled,
		CacheTTL:        cfg.Cache.TTL,
		Debug:           cfg.Router.Debug,
	}
}

// provideStore wires the postgres-backed store when a DSN is configured and
// reachable, otherwise falls back to the in-memory store.
func provideStore(cfg *config.Config, logger *slog.Logger) oceanstore.Store {
	fallback := oceanstore.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory store")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory store", "error", err)
		return fallback
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory store", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory store", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("postgres measurement store enabled")
	return oceanstore.NewPostgresRepository(pool)
}

// provideEnvelopeCache wires valkey when caching is enabled and reachable,
// otherwise falls back to the in-memory cache.
func provideEnvelopeCache(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) routing.EnvelopeCache {
	if cfg.Cache.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return envelopecache.NewMemoryCache(clock)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return envelopecache.NewMemoryCache(clock)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		} else {
			logger.Info("valkey envelope cache enabled", "addr", cfg.Cache.Addr)
			return envelopecache.NewValkeyCache(client, cfg.Cache.Prefix)
		}
	}
	return envelopecache.NewMemoryCache(clock)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	addr := strings.TrimSpace(cfg.Cache.Addr)
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideArgoSource(cfg *config.Config, client *http.Client, clock clockwork.Clock, logger *slog.Logger) *provider.ArgoSource {
	argoCfg := provider.ArgoConfig{
		BaseURL:         cfg.Providers.Argo.BaseURL,
		MaxFiles:        cfg.Providers.Argo.MaxFiles,
		DownloadTimeout: cfg.Providers.Argo.DownloadTimeout,
	}
	return provider.NewArgoSource(argoCfg, client, provider.NewDemoDecoder(clock), clock, logger)
}

func provideERDDAPSource(cfg *config.Config, client *http.Client, clock clockwork.Clock, logger *slog.Logger) *provider.ERDDAPSource {
	erddapCfg := provider.ERDDAPConfig{
		BaseURL: cfg.Providers.ERDDAP.BaseURL,
		Dataset: cfg.Providers.ERDDAP.Dataset,
	}
	return provider.NewERDDAPSource(erddapCfg, client, clock, logger)
}

func provideNOAASource(cfg *config.Config) *provider.NOAASource {
	return provider.NewNOAASource(cfg.Providers.NOAA.BaseURL)
}

// provideProviderClient fixes the fallthrough order: Argo first, then ERDDAP,
// then NOAA.
func provideProviderClient(argo *provider.ArgoSource, erddap *provider.ERDDAPSource, noaa *provider.NOAASource, logger *slog.Logger) *provider.Client {
	sources := []provider.Source{argo, erddap, noaa}
	return provider.NewClient(sources, argo, logger)
}

func provideArchive(cfg *config.Config, logger *slog.Logger) ingest.Archive {
	if !cfg.Archive.Enabled {
		return archive.NewMemoryArchive()
	}
	s3, err := archive.NewS3Archive(cfg.Archive.Endpoint, cfg.Archive.AccessKey, cfg.Archive.SecretKey, cfg.Archive.Bucket, cfg.Archive.Region, logger)
	if err != nil {
		logger.Error("failed to initialize object archive, using memory archive", "error", err)
		return archive.NewMemoryArchive()
	}
	return s3
}

func provideIngestService(argo *provider.ArgoSource, arch ingest.Archive, store oceanstore.Store, metrics *observability.Metrics, logger *slog.Logger, clock clockwork.Clock) *ingest.Service {
	return ingest.NewService(argo, arch, store, store, metrics, logger, clock)
}

func provideScheduler(cfg *config.Config, service *ingest.Service, logger *slog.Logger) *scheduler.Scheduler {
	return scheduler.New(service, cfg.Ingest.Interval, logger)
}

func provideLocalDataService(store oceanstore.Store, logger *slog.Logger, clock clockwork.Clock) *localdata.Service {
	return localdata.NewService(store, logger, clock)
}
