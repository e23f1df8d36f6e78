//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/activityrelay/internal/tokens"
)

func TestRepositoryRoundTrips(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("relay"),
		postgrescontainer.WithUsername("relay"),
		postgrescontainer.WithPassword("relay"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	repo := NewRepository(pool, "users", "messages")

	t.Run("credentials", func(t *testing.T) {
		missing, err := repo.GetCredential(ctx, 134815)
		require.NoError(t, err)
		require.Nil(t, missing)

		cred := tokens.Credential{
			AthleteID:    134815,
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		}
		require.NoError(t, repo.PutCredential(ctx, cred))

		stored, err := repo.GetCredential(ctx, 134815)
		require.NoError(t, err)
		require.NotNil(t, stored)
		require.Equal(t, cred, *stored)

		cred.AccessToken = "access-2"
		cred.RefreshToken = "refresh-2"
		require.NoError(t, repo.PutCredential(ctx, cred))

		stored, err = repo.GetCredential(ctx, 134815)
		require.NoError(t, err)
		require.Equal(t, "access-2", stored.AccessToken)
	})

	t.Run("deliveries", func(t *testing.T) {
		missing, err := repo.GetDelivery(ctx, 4401337)
		require.NoError(t, err)
		require.Empty(t, missing)

		require.NoError(t, repo.PutDelivery(ctx, 4401337, "msg-1"))

		stored, err := repo.GetDelivery(ctx, 4401337)
		require.NoError(t, err)
		require.Equal(t, "msg-1", stored)

		// Overwrite keeps at most one row per activity.
		require.NoError(t, repo.PutDelivery(ctx, 4401337, "msg-2"))

		stored, err = repo.GetDelivery(ctx, 4401337)
		require.NoError(t, err)
		require.Equal(t, "msg-2", stored)

		var count int
		require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM messages WHERE activity_id=$1", 4401337).Scan(&count))
		require.Equal(t, 1, count)
	})
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	t.Helper()

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	sql, err := os.ReadFile("../../../db/postgres/migrations/0001_init.up.sql")
	require.NoError(t, err)

	_, err = pool.Exec(ctx, string(sql))
	require.NoError(t, err)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	var lastErr error
	for time.Now().Before(deadline) {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		lastErr = err
		time.Sleep(500 * time.Millisecond)
	}
	return lastErr
}
