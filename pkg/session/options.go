package session

import "log/slog"

type managerOptions struct {
	config    Config
	transport Transport
	logger    *slog.Logger
}

// Option is a functional option for configuring the Manager
type Option func(*managerOptions)

// WithConfig sets the configuration used to build the default transport.
func WithConfig(config Config) Option {
	return func(o *managerOptions) {
		o.config = config
	}
}

// WithTransport sets a custom session transport; it takes precedence over the config.
func WithTransport(transport Transport) Option {
	return func(o *managerOptions) {
		o.transport = transport
	}
}

// WithLogger sets the logger for suspicious requests and failed responses.
func WithLogger(logger *slog.Logger) Option {
	return func(o *managerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
