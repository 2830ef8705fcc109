// Package logger builds *slog.Logger values from functional options and adds
// attributes pulled from context.Context on every record.
//
// New picks a text or JSON handler, applies static attributes and wraps the
// handler in a LogHandlerDecorator that runs the registered ContextExtractor
// callbacks (for example, to log the request id set by a middleware).
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "sessiond"),
//	    logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//	log.InfoContext(ctx, "session created", logger.SessionID(id))
//
// Config carries the same settings as environment variables (APP_ENV,
// LOG_LEVEL, LOG_FORMAT, LOG_SERVICE); FromConfig turns it into options.
//
// Attribute helpers such as Error, SessionID and Tier keep key names
// consistent. Error and Errors return an empty attribute for nil errors, so
// they can be passed unconditionally. SessionID logs only a prefix of the
// identifier, which is a bearer secret.
package logger
