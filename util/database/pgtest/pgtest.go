// Package pgtest starts a throwaway Postgres with the schema applied, for
// repository tests that need the real statements to run.
package pgtest

import (
	"context"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"libraryapi/migrations"
	"libraryapi/util/database"
)

// Start skips under -short. Otherwise it returns a migrated database that is
// torn down with the test.
func Start(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres container test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("library"),
		postgres.WithUsername("library"),
		postgres.WithPassword("library"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "Failed to start Postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := database.OpenSQL(dsn)
	require.NoError(t, err)
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(sqlDB, "."), "Failed to apply migrations")

	db, err := database.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}
