package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/sessionkit/pkg/pg"
)

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()

	dup := fmt.Errorf("cycle: %w", &pgconn.PgError{Code: "23505"})
	undefined := &pgconn.PgError{Code: "42P01"}
	other := errors.New("boom")

	assert.True(t, pg.IsDuplicateKeyError(dup))
	assert.False(t, pg.IsDuplicateKeyError(undefined))
	assert.False(t, pg.IsDuplicateKeyError(nil))

	assert.True(t, pg.IsUndefinedTableError(undefined))
	assert.False(t, pg.IsUndefinedTableError(other))

	assert.True(t, pg.IsNotFoundError(fmt.Errorf("load: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(other))
	assert.False(t, pg.IsNotFoundError(nil))
}
