package httpserver

import (
	"context"
	"log/slog"
	"time"
)

// Option configures the HTTP server.
type Option func(*options)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: WithAddr: empty address")
	}
	return func(o *options) { o.addr = addr }
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *options) { o.readTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) { o.writeTimeout = d }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) { o.idleTimeout = d }
}

// WithShutdownTimeout bounds graceful shutdown, cleanup hooks included.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: WithShutdownTimeout: duration must be > 0")
	}
	return func(o *options) { o.shutdownTimeout = d }
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCleanup registers a function run after the server stops accepting
// requests, in reverse registration order. Use it to close session stores
// and database pools.
func WithCleanup(name string, fn func(context.Context) error) Option {
	if fn == nil {
		panic("httpserver: WithCleanup: nil func")
	}
	return func(o *options) {
		o.cleanups = append(o.cleanups, cleanup{name: name, fn: fn})
	}
}

// WithListening registers a callback invoked with the bound address once
// the listener is open.
func WithListening(fn func(addr string)) Option {
	return func(o *options) { o.listening = fn }
}
