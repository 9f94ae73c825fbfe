//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kanbu/kanbu-acl/pkg/acl"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/models"
)

// createPostgresStore starts a throwaway PostgreSQL container and opens a
// store against it.
func createPostgresStore(t *testing.T) *GORMStore {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("kanbu_acl_test"),
		tcpostgres.WithUsername("kanbu_acl_test"),
		tcpostgres.WithPassword("kanbu_acl_test"),
		testcontainers.WithWaitStrategyAndDeadline(5*time.Minute,
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	store, err := New(&Config{
		Type: DatabaseTypePostgres,
		Postgres: PostgresConfig{
			Host:     host,
			Port:     port.Int(),
			Database: "kanbu_acl_test",
			User:     "kanbu_acl_test",
			Password: "kanbu_acl_test",
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresStore(t *testing.T) {
	store := createPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, store.Healthcheck(ctx))

	t.Run("unique violation maps to domain error", func(t *testing.T) {
		_, err := store.CreateUser(ctx, &models.User{Username: "carol"})
		require.NoError(t, err)
		_, err = store.CreateUser(ctx, &models.User{Username: "carol"})
		assert.ErrorIs(t, err, models.ErrDuplicateUser)
	})

	t.Run("upsert keeps one row per key", func(t *testing.T) {
		entry := acl.Entry{Resource: acl.Workspace(1), Principal: acl.Group(4), Permissions: acl.ReadOnly, InheritToChildren: true}
		first, err := store.UpsertEntry(ctx, entry)
		require.NoError(t, err)

		entry.Permissions = acl.FullControl
		second, err := store.UpsertEntry(ctx, entry)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		found, err := store.FindEntries(ctx, acl.Workspace(1), []acl.PrincipalRef{acl.Group(4)}, true)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, acl.FullControl, found[0].Permissions)
	})

	t.Run("membership expiry", func(t *testing.T) {
		userID, err := store.CreateUser(ctx, &models.User{Username: "dave"})
		require.NoError(t, err)
		groupID, err := store.CreateGroup(ctx, &models.Group{Name: "qa"})
		require.NoError(t, err)

		now := time.Now()
		expired := now.Add(-time.Minute)
		require.NoError(t, store.AddGroupMember(ctx, groupID, userID, &expired))

		ids, err := store.ListActiveGroupIDs(ctx, userID, now)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}
