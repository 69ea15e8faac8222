package main

import (
	"context"
	"time"

	"github.com/spf13/afero"

	"github.com/turtacn/dataguard/internal/application"
	"github.com/turtacn/dataguard/internal/config"
	"github.com/turtacn/dataguard/internal/domain/anomaly"
	"github.com/turtacn/dataguard/internal/domain/repository"
	"github.com/turtacn/dataguard/internal/domain/service"
	"github.com/turtacn/dataguard/internal/infrastructure/messaging"
	"github.com/turtacn/dataguard/internal/infrastructure/monitoring"
	"github.com/turtacn/dataguard/internal/infrastructure/persistence/memory"
	"github.com/turtacn/dataguard/internal/infrastructure/persistence/postgres"
	"github.com/turtacn/dataguard/internal/infrastructure/persistence/redis"
	"github.com/turtacn/dataguard/internal/infrastructure/storage"
	"github.com/turtacn/dataguard/internal/interfaces/http/handlers"
	"github.com/turtacn/dataguard/pkg/logger"
)

// app is the wired engine together with the connections it owns.
type app struct {
	cfg      *config.Config
	log      *monitoring.ZapLogger
	engine   *application.Engine
	metrics  *monitoring.Metrics
	adapter  *monitoring.MetricsAdapter
	tracing  *monitoring.TracingManager
	db       *postgres.DBConnection
	redis    *redis.RedisConnection
	producer *messaging.AlertProducer
}

// newApp connects every configured backend and builds the engine on top of them.
func newApp(ctx context.Context, cfg *config.Config, log *monitoring.ZapLogger) (_ *app, err error) {
	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.tracing, err = monitoring.NewTracingManager(&cfg.Tracing, log); err != nil {
		return nil, err
	}
	if a.db, err = postgres.NewDBConnection(ctx, &cfg.Database, log); err != nil {
		return nil, err
	}
	if cfg.Alerts.DedupBackend == "redis" || cfg.Storage.Snapshot == "redis" {
		if a.redis, err = redis.NewRedisConnection(ctx, &cfg.Redis, log); err != nil {
			return nil, err
		}
	}

	contents, blobs, snapshots, err := a.stores(ctx)
	if err != nil {
		return nil, err
	}

	var dedup service.Deduplicator = memory.NewDeduplicator(time.Minute)
	if cfg.Alerts.DedupBackend == "redis" {
		dedup = redis.NewDeduplicator(a.redis)
	}

	var publisher service.AlertPublisher = service.NoopAlertPublisher{}
	if cfg.Alerts.Publish {
		a.producer = messaging.NewAlertProducer(cfg.Kafka, log)
		publisher = a.producer
	}

	a.metrics = monitoring.NewMetrics()
	a.adapter = monitoring.NewMetricsAdapter(a.metrics)

	gdb := a.db.DB()
	a.engine, err = application.NewEngine(cfg, application.Dependencies{
		Versions:     postgres.NewVersionRepository(gdb, log),
		Documents:    postgres.NewDocumentRepository(gdb, log),
		Events:       postgres.NewAccessEventRepository(gdb, log),
		Alerts:       postgres.NewAlertRepository(gdb, log),
		Contents:     contents,
		Blobs:        blobs,
		Deduplicator: dedup,
		Publisher:    publisher,
		Snapshots:    snapshots,
		Metrics:      a.adapter,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}

	if _, err := a.engine.WarmStart(ctx); err != nil {
		log.Warn(ctx, "model warm start failed, scoring stays low-confidence until the first retrain",
			logger.String("error", err.Error()))
	}
	return a, nil
}

// stores selects the content, blob and snapshot backends.
func (a *app) stores(ctx context.Context) (repository.ContentStore, repository.BlobStore, anomaly.SnapshotStore, error) {
	var (
		contents  repository.ContentStore
		blobs     repository.BlobStore
		snapshots anomaly.SnapshotStore
	)
	switch a.cfg.Storage.Backend {
	case "file":
		fs, err := storage.NewFileStore(afero.NewOsFs(), a.cfg.Storage.Root)
		if err != nil {
			return nil, nil, nil, err
		}
		contents, blobs, snapshots = fs, fs, fs
	default:
		contents, blobs, snapshots = memory.NewContentStore(), memory.NewContentStore(), memory.NewSnapshotStore()
	}

	switch a.cfg.Storage.Snapshot {
	case "redis":
		snapshots = redis.NewSnapshotStore(a.redis)
	case "minio":
		store, err := storage.NewMinioStore(ctx, &a.cfg.Storage.Minio, a.log)
		if err != nil {
			return nil, nil, nil, err
		}
		blobs, snapshots = store, store
	}
	return contents, blobs, snapshots, nil
}

// healthChecks lists the backends readiness depends on.
func (a *app) healthChecks() map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{"database": a.db}
	if a.redis != nil {
		checks["redis"] = a.redis
	}
	return checks
}

// reload applies the hot-reloadable part of a changed config.
func (a *app) reload(cfg *config.Config) {
	a.engine.Ledger().SetWindow(cfg.Alerts.DedupWindow)
	a.log.SetLevel(cfg.Log.Level)
}

// Close releases everything newApp opened, in reverse order.
func (a *app) Close() {
	ctx := context.Background()
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Error(ctx, "failed to close alert producer", err)
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.tracing != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = a.tracing.Shutdown(shutdownCtx)
	}
}

//Personal.AI order the ending
