package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/mongo"
	"github.com/dmitrymomot/sessionkit/pkg/pg"
	"github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// backend is the assembled store plus everything main needs to probe and
// close it.
type backend struct {
	store   session.Store[visit]
	purger  session.ExpiredDeleter
	checks  []httpserver.Check
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

func (b *backend) onClose(name string, fn func(context.Context) error) {
	b.closers = append(b.closers, closer{name: name, fn: fn})
}

// startPurge runs session.RunExpiredDeletion until the backend is closed.
// Its closer is registered after the stores', so it stops and is waited for
// before any store is closed.
func (b *backend) startPurge(ctx context.Context, interval time.Duration, log *slog.Logger) {
	if b.purger == nil || interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		session.RunExpiredDeletion(ctx, b.purger, interval, log)
	}()

	b.onClose("purge", func(ctx context.Context) error {
		cancel()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// serverOptions hands the closers to the server so they run after draining.
func (b *backend) serverOptions() []httpserver.Option {
	opts := make([]httpserver.Option, 0, len(b.closers))
	for _, c := range b.closers {
		opts = append(opts, httpserver.WithCleanup(c.name, c.fn))
	}
	return opts
}

// close releases what was opened, newest first. Used when startup fails.
func (b *backend) close(ctx context.Context, log *slog.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].fn(ctx); err != nil {
			log.ErrorContext(ctx, "failed to close backend", logger.Backend(b.closers[i].name), logger.Error(err))
		}
	}
}

func openBackend(ctx context.Context, app appConfig, log *slog.Logger) (*backend, error) {
	b := &backend{}

	authority, err := b.openAuthority(ctx, app, log)
	if err != nil {
		return b, err
	}

	cache, err := b.openCache(ctx, app)
	if err != nil {
		return b, err
	}

	b.store = authority
	if cache != nil {
		b.store = session.NewCachingStore(cache, authority)
	}

	log.InfoContext(ctx, "session backend ready", logger.Backend(app.Backend), logger.Tier(app.Cache))
	return b, nil
}

func (b *backend) openAuthority(ctx context.Context, app appConfig, log *slog.Logger) (session.Store[visit], error) {
	switch app.Backend {
	case "memory":
		store := session.NewMemoryStore[visit](0)
		b.purger = store
		b.onClose("memory", func(context.Context) error { return store.Close() })
		return store, nil

	case "postgres":
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.onClose("postgres", func(context.Context) error { pool.Close(); return nil })
		b.checks = append(b.checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool, cfg)})

		migrateLog := log.With(logger.Component("migrate"))
		if err := pg.MigrateFS(ctx, pool, pg.SessionMigrations(), cfg, migrateLog); err != nil {
			return nil, err
		}
		if cfg.MigrationsPath != "" {
			if err := pg.Migrate(ctx, pool, cfg, migrateLog); err != nil {
				return nil, err
			}
		}

		store := pg.NewSessionStore[visit](pool, cfg)
		b.purger = store
		return store, nil

	case "mongo":
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		db, err := mongo.NewWithDatabase(ctx, cfg, "")
		if err != nil {
			return nil, err
		}
		b.onClose("mongo", db.Client().Disconnect)
		b.checks = append(b.checks, httpserver.Check{Name: "mongo", Probe: mongo.Healthcheck(db.Client())})

		store := mongo.NewSessionStore[visit](db, cfg)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		b.purger = store
		return store, nil

	default:
		return nil, fmt.Errorf("unknown session backend %q", app.Backend)
	}
}

// openCache returns nil when no cache tier is configured.
func (b *backend) openCache(ctx context.Context, app appConfig) (session.Store[visit], error) {
	switch app.Cache {
	case "", "none":
		return nil, nil

	case "lru":
		return session.NewLRUStore[visit](app.CacheSize), nil

	case "redis":
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.onClose("redis", func(context.Context) error { return client.Close() })
		b.checks = append(b.checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
		return redis.NewSessionStore[visit](client, cfg), nil

	default:
		return nil, fmt.Errorf("unknown session cache %q", app.Cache)
	}
}
