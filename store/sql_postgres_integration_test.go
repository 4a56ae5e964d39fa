//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestPostgresBackend(t *testing.T) {
	ctx := context.Background()
	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("wld"),
		tcpostgres.WithUsername("wld"),
		tcpostgres.WithPassword("wld"),
		tcpostgres.WithSQLDriver("pgx"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("skip: cannot start postgres: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	backend, err := OpenSQL(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	assert.Equal(t, DialectPostgres, backend.Dialect())

	require.NoError(t, backend.Set(ctx, "wld_workflows", "first"))
	require.NoError(t, backend.Set(ctx, "wld_workflows", "second"))
	require.NoError(t, backend.Set(ctx, "wld_workflows_backup_1", "first"))

	value, found, err := backend.Get(ctx, "wld_workflows")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", value)

	keys, err := backend.Keys(ctx, "wld_workflows_backup_")
	require.NoError(t, err)
	assert.Equal(t, []string{"wld_workflows_backup_1"}, keys)

	require.NoError(t, backend.Delete(ctx, "wld_workflows"))
	_, found, err = backend.Get(ctx, "wld_workflows")
	require.NoError(t, err)
	assert.False(t, found)
}
