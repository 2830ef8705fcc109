package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

type cleanup struct {
	name string
	fn   func(context.Context) error
}

type options struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	cleanups        []cleanup
	listening       func(addr string)
}

// Server runs an http.Server until its context is cancelled or the process
// receives SIGINT or SIGTERM, then drains requests and runs cleanups.
type Server struct {
	opts    options
	mu      sync.Mutex
	srv     *http.Server
	stopped chan struct{}
	once    sync.Once
}

// New returns a Server listening on :8080 unless configured otherwise.
func New(opts ...Option) *Server {
	o := options{
		addr:            ":8080",
		shutdownTimeout: 10 * time.Second,
		logger:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{opts: o, stopped: make(chan struct{})}
}

// Run serves handler and blocks until shutdown has completed.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}
	s.srv = &http.Server{
		Addr:         s.opts.addr,
		Handler:      handler,
		ReadTimeout:  s.opts.readTimeout,
		WriteTimeout: s.opts.writeTimeout,
		IdleTimeout:  s.opts.idleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	srv := s.srv
	s.mu.Unlock()

	log := s.opts.logger.With(logger.Component("httpserver"))

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		// Resources registered as cleanups are already open; release them.
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.shutdownTimeout)
		defer cancel()
		cleanupErrs := s.cleanup(cctx, log)
		return errors.Join(append([]error{ErrStart, err}, cleanupErrs...)...)
	}

	log.InfoContext(ctx, "http server listening", slog.String("addr", ln.Addr().String()))
	if s.opts.listening != nil {
		s.opts.listening(ln.Addr().String())
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	var serveErr error
	select {
	case <-ctx.Done():
		log.InfoContext(ctx, "shutting down http server")
	case <-s.stopped:
	case serveErr = <-errCh:
	}

	shutdownErr := s.shutdown(context.WithoutCancel(ctx), log)
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return errors.Join(ErrStart, serveErr, shutdownErr)
	}
	return shutdownErr
}

// Shutdown asks a running Server to stop. Run returns once the drain and
// cleanups are done.
func (s *Server) Shutdown() {
	s.once.Do(func() { close(s.stopped) })
}

func (s *Server) shutdown(ctx context.Context, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.srv.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, s.cleanup(ctx, log)...)

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrShutdown}, errs...)...)
	}
	return nil
}

// cleanup runs the registered cleanups, last registered first.
func (s *Server) cleanup(ctx context.Context, log *slog.Logger) []error {
	var errs []error
	for i := len(s.opts.cleanups) - 1; i >= 0; i-- {
		c := s.opts.cleanups[i]
		if err := c.fn(ctx); err != nil {
			log.ErrorContext(ctx, "cleanup failed", slog.String("cleanup", c.name), logger.Error(err))
			errs = append(errs, err)
		}
	}
	return errs
}
