package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/cfr-ingest/docs"
	"github.com/custodia-labs/cfr-ingest/internal/adapters/driven/checkpoint"
	"github.com/custodia-labs/cfr-ingest/internal/adapters/driven/ecfr"
	"github.com/custodia-labs/cfr-ingest/internal/adapters/driven/metrics"
	"github.com/custodia-labs/cfr-ingest/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/cfr-ingest/internal/adapters/driven/redis"
	httpadapter "github.com/custodia-labs/cfr-ingest/internal/adapters/driving/http"
	"github.com/custodia-labs/cfr-ingest/internal/config"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driving"
	"github.com/custodia-labs/cfr-ingest/internal/core/services"
)

// app holds the wired process: infrastructure handles, the ingestor and
// the metrics registry.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db    *postgres.DB
	redis *redis.Client

	registry *prometheus.Registry
	recorder *metrics.Recorder
	ingestor *services.Ingestor

	checks map[string]httpadapter.Pinger
}

// newApp connects to infrastructure and wires the ingestor. progress may
// be nil.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress driving.ProgressReporter) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		checks:   make(map[string]httpadapter.Pinger),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.recorder = metrics.NewRecorder(a.registry)

	// ===== PostgreSQL =====
	dbCfg := postgres.DefaultConfig(cfg.Database.URL)
	if cfg.Database.MaxOpenConns > 0 {
		dbCfg.MaxOpenConns = cfg.Database.MaxOpenConns
	}
	if cfg.Database.MaxIdleConns > 0 {
		dbCfg.MaxIdleConns = cfg.Database.MaxIdleConns
	}
	db, err := postgres.Connect(ctx, dbCfg)
	if err != nil {
		return nil, withExit(ExitStorage, fmt.Errorf("connect postgres: %w", err))
	}
	a.db = db
	a.checks["postgres"] = db

	if cfg.Database.Migrate {
		if err := db.Migrate(); err != nil {
			a.Close()
			return nil, withExit(ExitStorage, fmt.Errorf("migrate schema: %w", err))
		}
		logger.Debug("schema migrated")
	}

	// ===== Redis (optional) =====
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, withExit(ExitConfig, fmt.Errorf("parse redis url: %w", err))
		}
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, withExit(ExitStorage, fmt.Errorf("connect redis: %w", err))
		}
		a.checks["redis"] = pingFunc(func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}

	// ===== Checkpoint backend =====
	var checkpoints driven.CheckpointStore
	switch cfg.Checkpoint.Backend {
	case config.CheckpointRedis:
		checkpoints = redisadapter.NewCheckpointStore(a.redis, cfg.Checkpoint.Key)
	default:
		checkpoints = checkpoint.NewFileStore(cfg.Checkpoint.Path)
	}

	// ===== Run lock =====
	var lock driven.DistributedLock
	if a.redis != nil {
		lock = redisadapter.NewLock(a.redis, redisadapter.LockConfig{Logger: logger.With("component", "lock")})
	} else {
		lock = postgres.NewAdvisoryLock(db)
	}

	source := ecfr.NewClient(ecfr.Config{
		BaseURL:    cfg.ECFR.BaseURL,
		UserAgent:  cfg.ECFR.UserAgent,
		Timeout:    cfg.ECFR.Timeout,
		MaxRetries: cfg.ECFR.MaxRetries,
		BaseDelay:  cfg.RateLimit.BaseDelay,
		MaxDelay:   cfg.RateLimit.MaxDelay,
		Metrics:    a.recorder,
		Logger:     logger.With("component", "ecfr"),
	})

	a.ingestor = services.NewIngestor(services.IngestorConfig{
		Source:          source,
		AgencyStore:     postgres.NewAgencyStore(db),
		TitleStore:      postgres.NewTitleStore(db),
		HierarchyStore:  postgres.NewHierarchyStore(db),
		VersionStore:    postgres.NewVersionStore(db),
		MetricsStore:    postgres.NewMetricsStore(db),
		CheckpointStore: checkpoints,
		Maintenance:     postgres.NewMaintenance(db),
		Lock:            lock,
		Metrics:         a.recorder,
		Progress:        progress,
		Logger:          logger.With("component", "ingest"),
	})

	return a, nil
}

// opsServer builds the operational HTTP server bound to addr.
func (a *app) opsServer(addr string) *httpadapter.Server {
	docs.SwaggerInfo.Version = version
	return httpadapter.NewServer(httpadapter.Config{
		Addr:     addr,
		Version:  version,
		Ingest:   a.ingestor,
		RunState: a.ingestor,
		Gatherer: a.registry,
		Checks:   a.checks,
		Logger:   a.logger.With("component", "http"),
	})
}

// Close releases infrastructure handles.
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close postgres", "error", err)
		}
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
