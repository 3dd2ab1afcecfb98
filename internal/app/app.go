// Package app assembles the ReachPoint services from configuration. Both
// the HTTP server and the CLI build their dependencies here.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/reachpoint/internal/config"
	"github.com/ignite/reachpoint/internal/dataset"
	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/export"
	"github.com/ignite/reachpoint/internal/pkg/distlock"
	"github.com/ignite/reachpoint/internal/pkg/logger"
	"github.com/ignite/reachpoint/internal/report"
	"github.com/ignite/reachpoint/internal/service/campaign"
	"github.com/ignite/reachpoint/internal/service/progress"
	"github.com/ignite/reachpoint/internal/service/singlecall"
	"github.com/ignite/reachpoint/internal/storage"
)

// App holds the wired services.
type App struct {
	Config    *config.Config
	Store     storage.Store
	Campaigns *campaign.Registry
	Progress  *progress.Store
	Calls     *singlecall.Service
	Data      *dataset.Source
	Reports   *report.Builder
	Sink      export.Sink

	// Redis and DB are set when the backend (or the lock) uses them.
	Redis *redis.Client
	DB    *sql.DB

	closers []func() error
}

// Build opens the configured backends and wires every service.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Type, err)
	}
	a.Store = store
	switch s := store.(type) {
	case *storage.Redis:
		a.Redis = s.Client()
		a.closers = append(a.closers, a.Redis.Close)
	case *storage.Postgres:
		a.DB = s.DB()
		a.closers = append(a.closers, a.DB.Close)
	}

	opts := []progress.Option{progress.WithTotalPolicy(progress.ParseTotalPolicy(cfg.Progress.TotalPolicy))}
	if cfg.Storage.Shared() {
		locker, err := a.locker(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		if locker != nil {
			opts = append(opts, progress.WithLocker(locker))
		}
	}

	var objects *storage.AWSStorage
	if cfg.Dataset.S3Bucket != "" || cfg.Export.Type == "s3" {
		objects, err = storage.NewAWSStorage(ctx, cfg.Storage.DynamoDBTable, cfg.Storage.S3Bucket, cfg.Storage.AWSRegion, cfg.Storage.GetAWSProfile())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("initializing S3 client: %w", err)
		}
	}

	a.Progress = progress.NewStore(store, opts...)
	a.Campaigns = campaign.NewRegistry(campaign.NewKVRepository(store), a.Progress)
	a.Calls = singlecall.NewService(store)

	dataCfg := cfg.Dataset
	a.Data = dataset.NewSource(func(ctx context.Context) ([]domain.Record, error) {
		if objects == nil {
			return dataset.Load(ctx, dataCfg, nil)
		}
		return dataset.Load(ctx, dataCfg, objects)
	})
	a.Reports = report.NewBuilder(a.Campaigns, a.Progress, a.Data, cfg.Progress.Location())

	var putter export.ObjectPutter
	if objects != nil {
		putter = objects
	}
	a.Sink, err = export.New(cfg.Export, putter)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("configuring export sink: %w", err)
	}

	logger.Info("services initialized",
		"storage", cfg.Storage.Type,
		"shared", cfg.Storage.Shared(),
		"total_policy", cfg.Progress.TotalPolicy,
		"export", cfg.Export.Type,
	)
	return a, nil
}

// locker picks the cross-process lock for a shared backend: Redis when a
// URL is configured, else Postgres advisory locks. Without either, writers
// in other processes are not excluded.
func (a *App) locker(ctx context.Context) (progress.Locker, error) {
	ttl := a.Config.Progress.LockTTL()
	if a.Redis == nil && a.Config.Storage.RedisURL != "" {
		opt, err := redis.ParseURL(a.Config.Storage.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url for locking: %w", err)
		}
		a.Redis = redis.NewClient(opt)
		a.closers = append(a.closers, a.Redis.Close)
	}
	if a.Redis != nil {
		return distlock.NewKeyed(a.Redis, nil, ttl), nil
	}
	if a.DB == nil && a.Config.Storage.DatabaseURL != "" {
		pg, err := storage.OpenPostgres(ctx, a.Config.Storage.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening database for locking: %w", err)
		}
		a.DB = pg.DB()
		a.closers = append(a.closers, a.DB.Close)
	}
	if a.DB != nil {
		return distlock.NewKeyed(nil, a.DB, ttl), nil
	}
	logger.Warn("shared storage without redis or database; progress writes are only serialized in-process",
		"storage", a.Config.Storage.Type)
	return nil, nil
}

// Close releases backend connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("close failed", "error", err.Error())
		}
	}
	a.closers = nil
}
