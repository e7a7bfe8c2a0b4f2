package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/repo/repotest"
)

// TestPostgresRepository runs against the database in TEST_DATABASE_URL.
// Each subtest gets its own schema so runs never interfere.
func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	admin, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(admin.Close)

	repotest.Run(t, func(t *testing.T) filesmanager.Repository {
		schema := fmt.Sprintf("files_manager_test_%d", time.Now().UnixNano())
		_, err := admin.Exec(ctx, "CREATE SCHEMA "+schema)
		require.NoError(t, err)
		t.Cleanup(func() {
			_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		})

		cfg, err := pgxpool.ParseConfig(dsn)
		require.NoError(t, err)
		cfg.ConnConfig.RuntimeParams["search_path"] = schema

		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		require.NoError(t, err)
		t.Cleanup(pool.Close)

		repo := NewWithPool(pool)
		require.NoError(t, repo.EnsureSchema(ctx))
		return repo
	})
}
