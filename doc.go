// Package sessionkit is a backend-agnostic HTTP session engine.
//
// The engine lives in pkg/session: the Store contract, the in-memory and LRU
// stores, CachingStore for layering a cache over an authoritative backend,
// and the Session, State and DataMut lifecycle that reports its outcome to
// an Updater. Manager and its middleware carry the identifier over a cookie
// or a header.
//
// Backends:
//
//   - pkg/redis: go-redis store with TTL expiry and atomic identifier rotation
//   - pkg/pg: PostgreSQL store on pgx with an embedded goose migration
//   - pkg/mongo: MongoDB store with a TTL index
//
// Supporting packages: pkg/async (tier fan-out), pkg/cookie (signed cookies),
// pkg/config (env loading), pkg/logger (slog setup) and pkg/httpserver
// (graceful shutdown). cmd/sessiond wires them into a runnable service.
package sessionkit
