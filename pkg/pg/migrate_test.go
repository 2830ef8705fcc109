package pg_test

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/pg"
)

func TestSessionMigrations(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(pg.SessionMigrations(), "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	body, err := fs.ReadFile(pg.SessionMigrations(), files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS sessions")
}

func TestMigrate_InvalidPath(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	err := pg.Migrate(ctx, nil, pg.Config{}, log)
	assert.ErrorIs(t, err, pg.ErrMigrationPathNotProvided)

	err = pg.Migrate(ctx, nil, pg.Config{MigrationsPath: filepath.Join(t.TempDir(), "missing")}, log)
	assert.ErrorIs(t, err, pg.ErrMigrationsDirNotFound)

	err = pg.MigrateFS(ctx, nil, nil, pg.Config{}, log)
	assert.ErrorIs(t, err, pg.ErrFailedToApplyMigrations)
}

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := pg.Connect(ctx, pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)

	_, err = pg.Connect(ctx, pg.Config{ConnectionString: "postgres://%zz"})
	assert.ErrorIs(t, err, pg.ErrFailedToParseDBConfig)
}
