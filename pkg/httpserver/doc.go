// Package httpserver runs an HTTP handler with graceful shutdown.
//
// Server.Run listens on the configured address and blocks until the context
// is cancelled, the process receives SIGINT or SIGTERM, or Shutdown is
// called. It then drains in-flight requests within the shutdown timeout and
// runs the cleanups registered with WithCleanup in reverse order, which is
// where session stores and connection pools get closed.
//
//	srv := httpserver.NewFromConfig(cfg,
//	    httpserver.WithLogger(log),
//	    httpserver.WithCleanup("postgres", func(context.Context) error { pool.Close(); return nil }),
//	)
//	err := srv.Run(ctx, router)
//
// LivenessHandler and ReadinessHandler serve container probes; readiness
// runs each Check, typically a backend's Healthcheck.
package httpserver
