package redis

import "errors"

// Connection errors.
var (
	ErrEmptyConnectionURL           = errors.New("redis: empty connection url")
	ErrFailedToParseRedisConnString = errors.New("redis: invalid connection url")
	ErrRedisNotReady                = errors.New("redis: server not ready")
	ErrHealthcheckFailed            = errors.New("redis: healthcheck failed")
)

// Session store errors.
var (
	ErrScriptUnavailable     = errors.New("redis: session script could not be loaded")
	ErrUnexpectedScriptReply = errors.New("redis: unexpected session script reply")
)
