package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Connection and migration errors.
var (
	ErrEmptyConnectionString    = errors.New("pg: empty connection string, set PG_CONN_URL")
	ErrFailedToParseDBConfig    = errors.New("pg: invalid connection config")
	ErrFailedToOpenDBConnection = errors.New("pg: could not open connection")
	ErrHealthcheckFailed        = errors.New("pg: healthcheck failed")
	ErrMigrationPathNotProvided = errors.New("pg: migrations path not provided")
	ErrMigrationsDirNotFound    = errors.New("pg: migrations directory not found")
	ErrFailedToApplyMigrations  = errors.New("pg: migrations failed")
)

// ErrSessionTableMissing reports that the configured session table does not exist.
var ErrSessionTableMissing = errors.New("pg: session table missing, run SessionMigrations")

// IsNotFoundError detects pgx.ErrNoRows.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError detects unique constraint violations (SQLSTATE 23505).
// SessionStore relies on it to spot identifier collisions.
func IsDuplicateKeyError(err error) bool {
	return hasCode(err, "23505")
}

// IsUndefinedTableError detects a missing relation (SQLSTATE 42P01),
// typically a session table that was never migrated.
func IsUndefinedTableError(err error) bool {
	return hasCode(err, "42P01")
}

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
