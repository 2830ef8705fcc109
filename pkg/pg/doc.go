// Package pg stores sessions in PostgreSQL using the pgx/v5 driver.
//
// The package bundles the pieces a service needs to run a session table:
// Config populated from PG_* environment variables, Connect which opens a
// *pgxpool.Pool with retries, Migrate and MigrateFS which apply goose
// migrations, Healthcheck for liveness probes and SessionStore itself.
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.MigrateFS(ctx, pool, pg.SessionMigrations(), cfg, log); err != nil {
//	    return err
//	}
//
//	store := pg.NewSessionStore[Visit](pool, cfg)
//	go session.RunExpiredDeletion(ctx, store, time.Hour, log)
//
// # Semantics
//
// Rows carry an optional expires_at deadline computed from the record's
// expiry when it is written. Every read and conditional write filters on it,
// so a lapsed row is invisible immediately and removed later by DeleteExpired.
// CycleID rewrites the primary key in one UPDATE, which makes rotation atomic.
//
// # Errors
//
// Driver errors are returned unchanged. IsDuplicateKeyError, IsNotFoundError
// and the other helpers classify them without importing pgconn.
package pg
