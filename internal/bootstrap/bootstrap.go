// Package bootstrap wires configuration into the storage backend, the catalog
// and the application services shared by the API and the CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"global_explorer/internal/adapters/completion"
	redisad "global_explorer/internal/adapters/redis"
	"global_explorer/internal/app"
	"global_explorer/internal/catalog"
	"global_explorer/internal/domain"
	"global_explorer/internal/shared"
	"global_explorer/internal/storage/badger"
	"global_explorer/internal/storage/memory"
	mysqlrepo "global_explorer/internal/storage/mysql"
)

type App struct {
	Catalog   *catalog.Catalog
	Bus       *app.Bus
	Favorites *app.FavoritesStore
	Comments  *app.CommentStore
	Queries   *app.QueryService
	// AI is nil when no completion backend is configured.
	AI *app.AISearchService

	closers []func() error
}

// Build loads the catalog, opens the configured store and assembles the services.
func Build(ctx context.Context, cfg shared.Config) (*App, error) {
	a := &App{Bus: app.NewBus()}

	cat, err := catalog.Open(ctx, cfg.CatalogPath, cfg.DetailsDir, cfg.CatalogWorkers)
	if err != nil {
		return nil, err
	}
	a.Catalog = cat

	var rc *redis.Client
	if cfg.RedisAddr != "" {
		rc, err = redisad.NewClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			if cfg.StorageDriver == "redis" {
				return nil, fmt.Errorf("redis: %w", err)
			}
			log.Warn().Err(err).Msg("redis unavailable, AI cache disabled")
			rc = nil
		} else {
			a.closers = append(a.closers, rc.Close)
		}
	}

	kv, err := a.openStore(ctx, cfg, rc)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Favorites = app.NewFavoritesStore(kv, a.Bus)
	a.Comments = app.NewCommentStore(kv, a.Bus, nil)
	a.Queries = app.NewQueryService(cat, a.Favorites, a.Comments)

	if cfg.AIEnabled() {
		c, err := completion.Open(ctx, completion.Options{
			Provider:  cfg.AIProvider,
			URL:       cfg.AIURL,
			Key:       cfg.AIKey,
			KeyHeader: cfg.AIKeyHeader,
			Model:     cfg.AIModel,
			RPS:       cfg.AIRPS,
			Timeout:   cfg.AITimeout,
			Retries:   cfg.AIRetries,
		})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		var cache domain.Cache
		if rc != nil {
			cache = redisad.NewCache(rc)
		}
		ex := app.NewExtractor(c, cache, cfg.AICacheTTL)
		a.AI = app.NewAISearchService(ex, cat, app.NewAISearchStore(kv))
	} else {
		log.Warn().Msg("no completion backend configured, AI search disabled")
	}

	log.Info().Str("storage", cfg.StorageDriver).Bool("ai", a.AI != nil).Msg("services ready")
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg shared.Config, rc *redis.Client) (domain.KeyValueStore, error) {
	switch cfg.StorageDriver {
	case "", "memory":
		return memory.New(), nil
	case "redis":
		if rc == nil {
			return nil, errors.New("redis storage needs REDIS_ADDR")
		}
		return redisad.NewKV(rc), nil
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db.Ping: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := mysqlrepo.Migrate(ctx, db); err != nil {
			return nil, err
		}
		log.Info().Msg("database connection ok")
		return mysqlrepo.New(db), nil
	case "badger":
		kv, err := badger.Open(cfg.BadgerPath)
		if err != nil {
			return nil, fmt.Errorf("badger: %w", err)
		}
		a.closers = append(a.closers, kv.Close)
		return kv, nil
	}
	return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
}

// Close releases backends in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
