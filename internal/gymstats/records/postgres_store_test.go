//go:build integration_test || all_tests

package records

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/simonfreshfish/GymStat-sub000/internal/db"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPostgresStoreSetup(t *testing.T) *PostgresStore {
	t.Helper()

	dockerPool, err := dockertest.NewPool("")
	require.NoError(t, err)
	require.NoError(t, dockerPool.Client.Ping())

	pgResource, err := dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=gymstats",
			"POSTGRES_HOST_AUTH_METHOD=trust",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgResource.Close(); err != nil {
			t.Logf("postgres teardown: %s", err)
		}
	})

	pgPort := pgResource.GetPort("5432/tcp")
	dsn := fmt.Sprintf("postgres://postgres@localhost:%s/gymstats?sslmode=disable", pgPort)
	require.NoError(t, dockerPool.Retry(func() error {
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		return sqlDB.Ping()
	}))

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := db.NewDBPool(timeoutCtx, db.NewDBPoolParams{
		DBHost:         "localhost",
		DBPort:         pgPort,
		DBName:         "gymstats",
		TracingEnabled: false,
	})
	require.NoError(t, err)
	t.Cleanup(dbPool.Close)

	store := NewPostgresStore(dbPool)
	require.NoError(t, store.EnsureSchema(timeoutCtx))
	return store
}

func TestPostgresStore_BasicCRUD(t *testing.T) {
	store := testPostgresStoreSetup(t)
	ctx := context.Background()

	loaded, err := store.Load(ctx, "serj")
	require.NoError(t, err)
	assert.Empty(t, loaded)

	sessions := testSessions()
	require.NoError(t, store.Save(ctx, "serj", sessions))
	require.NoError(t, store.Save(ctx, "alice", sessions[:1]))

	loaded, err = store.Load(ctx, "serj")
	require.NoError(t, err)
	assert.Equal(t, sessions, loaded)

	// saving again replaces the whole collection
	require.NoError(t, store.Save(ctx, "serj", sessions[1:]))
	loaded, err = store.Load(ctx, "serj")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "s2", loaded[0].ID)

	names, err := store.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "serj"}, names)

	require.NoError(t, store.Delete(ctx, "serj"))
	assert.ErrorIs(t, store.Delete(ctx, "serj"), ErrCollectionNotFound)

	names, err = store.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, names)
}
