package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Healthcheck returns a readiness probe for the session store configured by cfg.
// The probe touches cfg.SessionTable, so an unmigrated database reports not
// ready together with ErrSessionTableMissing.
func Healthcheck(db DBTX, cfg Config) func(context.Context) error {
	table := cfg.SessionTable
	if table == "" {
		table = "sessions"
	}
	probe := fmt.Sprintf("SELECT 1 FROM %s LIMIT 0", pgx.Identifier{table}.Sanitize())

	return func(ctx context.Context) error {
		if _, err := db.Exec(ctx, probe); err != nil {
			if IsUndefinedTableError(err) {
				return errors.Join(ErrHealthcheckFailed, ErrSessionTableMissing, err)
			}
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
