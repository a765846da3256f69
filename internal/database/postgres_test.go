package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/carelink/backend/go-services/internal/database/migrations"
)

func TestRunMigrationsUsesEmbeddedDir(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, RunMigrations(context.Background(), db))
	assert.Equal(t, ".", gotDir)

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	err = RunMigrations(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate: boom")
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := fs.Glob(migrations.Migrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	data, err := fs.ReadFile(migrations.Migrations, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS users")
}
