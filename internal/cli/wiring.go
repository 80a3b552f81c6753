package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"formflow-analytics/internal/app"
	"formflow-analytics/internal/config"
	"formflow-analytics/internal/infra/memory"
	pgstore "formflow-analytics/internal/infra/postgres"
	redisstore "formflow-analytics/internal/infra/redis"
	"formflow-analytics/internal/infra/sqlite"
	"formflow-analytics/internal/summary"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

type primaryStore interface {
	app.FormRepository
	app.ResponseRepository
	app.SummaryRepository
}

// buildService wires the configured storage backends into a SurveyService.
// The returned cleanup closes every connection that was opened.
func buildService(ctx context.Context, cfg config.Config) (*app.SurveyService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var primary primaryStore
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		primary = memory.NewStore()
	case config.DriverSQLite:
		store, err := sqlite.NewStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open sqlite: %w", err)
		}
		closers = append(closers, func() { _ = store.Close() })
		primary = store
	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, cleanup, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		primary = pgstore.NewStore(pool)
	default:
		return nil, cleanup, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	formTTL := config.TTLDuration(cfg.Forms.CacheTTL, 10*time.Minute)
	repos := app.Repositories{
		Forms:     memory.NewFormCache(primary, formTTL),
		Responses: primary,
		Summaries: primary,
		Feeds:     memory.NewFeedStore(),
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })
		redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		repos.Forms = redisstore.NewFormCache(client, primary, formTTL)
		repos.Responses = redisstore.NewResponseStore(client)
		repos.Feeds = redisstore.NewFeedStore(client, redisTTL)
		log.Printf("using redis at %s for form cache, responses and feeds", cfg.Redis.Addr)
	}
	log.Printf("using %s storage", cfg.Storage.Driver)

	generator := summary.NewTemplate(config.TTLDuration(cfg.Summary.Delay, 0))
	return app.NewSurveyService(repos, generator, cfg.Server.PublicURL), cleanup, nil
}
