package notifications_test

import (
	"context"
	"io/fs"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/pg"
)

func connectTestPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("NOTIFYHUB_TEST_PG_URL")
	if url == "" {
		t.Skip("NOTIFYHUB_TEST_PG_URL not set")
	}

	cfg := pg.Config{
		ConnectionString: url,
		MaxOpenConns:     8,
		RetryAttempts:    1,
		MigrationsTable:  "notifyhub_schema_migrations",
	}

	ctx := context.Background()
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, cfg, notifications.Migrations(), logger.Nop()))
	return pool
}

func TestPostgresStorage(t *testing.T) {
	pool := connectTestPostgres(t)

	// Every case works with fresh random ids, so rows from other runs do not interfere.
	runStorageSuite(t, func(t *testing.T) notifications.Storage {
		return notifications.NewPostgresStorage(pool,
			notifications.WithClock(fixedClock),
			notifications.WithStorageLogger(logger.Nop()),
		)
	})
}

func TestMigrationsEmbedded(t *testing.T) {
	t.Parallel()

	entries, err := fsReadDir(notifications.Migrations())
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	require.Equal(t, "00001_init.sql", entries[0])
}

func fsReadDir(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
