// Command sessiond serves a visit counter backed by the session engine.
// It exists to exercise every backend and tier from configuration.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("sessiond stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadEnv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	var logCfg logger.Config
	if err := config.Load(&logCfg); err != nil {
		return err
	}
	logOpts, err := logger.FromConfig(logCfg)
	if err != nil {
		return err
	}
	log := logger.New(append(logOpts, logger.WithContextValue("request_id", middleware.RequestIDKey))...)
	logger.SetAsDefault(log)

	var app appConfig
	if err := config.Load(&app); err != nil {
		return err
	}
	var sessCfg session.Config
	if err := config.Load(&sessCfg); err != nil {
		return err
	}
	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	httpCfg.Addr = app.Addr

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b, err := openBackend(ctx, app, log)
	if err != nil {
		b.close(ctx, log)
		return err
	}

	manager, err := session.NewManager(b.store,
		session.WithConfig(sessCfg),
		session.WithLogger(log.With(logger.Component("session"))),
	)
	if err != nil {
		b.close(ctx, log)
		return err
	}

	b.startPurge(ctx, app.PurgeInterval, log.With(logger.Component("purge")))

	srv := httpserver.NewFromConfig(httpCfg, append(b.serverOptions(), httpserver.WithLogger(log))...)
	return srv.Run(ctx, newRouter(manager, log, app.IdleTimeout, b.checks...))
}
