package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oceanchat/oceanchat/internal/domain/ingest"
	"github.com/oceanchat/oceanchat/internal/infra/archive"
	"github.com/oceanchat/oceanchat/internal/infra/config"
	"github.com/oceanchat/oceanchat/internal/infra/oceanstore"
)

func buildStore(cfg *config.Config, logger *slog.Logger) oceanstore.Store {
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
	return oceanstore.NewPostgresRepository(pool)
}

func buildArchive(cfg *config.Config, logger *slog.Logger) ingest.Archive {
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
