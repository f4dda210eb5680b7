package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, files)

	body, err := fs.ReadFile(migrations, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS users")
}

func TestMigrateUsesEmbeddedDir(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, Migrate(context.Background(), nil))
	assert.Equal(t, "migrations", gotDir)
}

func TestMigrateWrapsError(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	boom := errors.New("boom")
	gooseUp = func(context.Context, *sql.DB, string) error { return boom }

	err := Migrate(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}
