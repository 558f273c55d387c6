package bootstrap

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storepages/app/internal/cache"
	"storepages/app/internal/cms"
	"storepages/app/internal/config"
	"storepages/app/internal/db"
)

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

type Result struct {
	Pages    *cms.GormRepository
	Stores   *cms.Registry
	Database *gorm.DB
	Cache    cache.Cache
	Cleanup  func() error
}

// Build opens the database, applies the schema, seeds the default store and wires the page repository.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	database, err := db.Open(db.Options{
		Driver: deps.Config.DBDriver,
		Path:   deps.Config.DBPath,
		DSN:    deps.Config.DBDSN,
	})
	if err != nil {
		return Result{}, eris.Wrap(err, "opening database")
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := db.Close(database); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return Result{}, wrapper
	}

	if err := cms.Migrate(ctx, database, deps.Logger); err != nil {
		return closeOnError(eris.Wrap(err, "running cms migrations"))
	}

	registry, err := cms.NewRegistry(database, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating store registry"))
	}

	if err := registry.EnsureDefault(ctx); err != nil {
		return closeOnError(eris.Wrap(err, "seeding default store"))
	}

	lookupCache, err := buildCache(ctx, deps.Config)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating lookup cache"))
	}

	pages, err := cms.NewRepository(cms.RepositoryOptions{
		DB:        database,
		Stores:    registry,
		Logger:    deps.Logger,
		SentryHub: deps.SentryHub,
		Cache:     lookupCache,
		CacheTTL:  deps.Config.CacheTTL,
	})
	if err != nil {
		_ = lookupCache.Close()
		return closeOnError(eris.Wrap(err, "creating page repository"))
	}

	if deps.Logger != nil {
		deps.Logger.WithFields(logrus.Fields{
			"driver":      deps.Config.DBDriver,
			"redis_cache": deps.Config.UseRedisCache(),
		}).Info("page store ready")
	}

	cleanup := func() error {
		cacheErr := lookupCache.Close()
		if err := db.Close(database); err != nil {
			return err
		}
		if cacheErr != nil {
			return eris.Wrap(cacheErr, "closing lookup cache")
		}
		return nil
	}

	return Result{
		Pages:    pages,
		Stores:   registry,
		Database: database,
		Cache:    lookupCache,
		Cleanup:  cleanup,
	}, nil
}

func buildCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if !cfg.UseRedisCache() {
		return cache.NewMemoryCache(cache.MemoryCacheOptions{
			DefaultTTL:      cfg.CacheTTL,
			MaxSize:         cfg.CacheMaxEntries,
			CleanupInterval: cfg.CacheCleanup,
		}), nil
	}

	return cache.NewRedisCache(ctx, cache.RedisOptions{
		URL:        cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTL,
	})
}
