// Package redis connects to Redis and stores sessions in it.
//
// Connect parses a redis:// URL and pings with retries; Healthcheck adapts a
// client to a liveness probe. Config is populated from REDIS_* environment
// variables.
//
// SessionStore implements session.Store on top of go-redis:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	store := redis.NewSessionStore[Visit](client, cfg)
//
// Create uses SET NX and draws a fresh identifier on collision, Save uses
// SET XX so a lapsed or deleted session is never revived, and CycleID renames
// the key in a Lua script so the record moves atomically with its TTL. Record
// expiry maps to the key TTL; OnSessionEnd records get no TTL unless the store
// is given session.WithSessionEndTTL.
//
// The store is a good cache tier for session.CachingStore in front of a SQL
// backend, or an authoritative store on its own when Redis persistence is on.
//
// Errors from the client are returned as is; connection helpers wrap them
// with the sentinels in errors.go.
package redis
