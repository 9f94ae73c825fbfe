package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kanbu/kanbu-acl/pkg/acl"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/models"
)

// createTestStore creates a SQLite store in a per-test temp file. A file is
// used instead of :memory: because every pooled connection would otherwise
// see its own empty database.
func createTestStore(t *testing.T) *GORMStore {
	t.Helper()
	store, err := New(&Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "acl.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNew(t *testing.T) {
	t.Run("invalid config returns error", func(t *testing.T) {
		_, err := New(&Config{Type: "invalid"})
		assert.Error(t, err)
	})

	t.Run("creates sqlite store", func(t *testing.T) {
		store := createTestStore(t)
		assert.NoError(t, store.Healthcheck(context.Background()))
		assert.Equal(t, DatabaseTypeSQLite, store.Config().Type)
	})
}

func TestUserOperations(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	id, err := store.CreateUser(ctx, &models.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Positive(t, id)

	t.Run("duplicate user fails", func(t *testing.T) {
		_, err := store.CreateUser(ctx, &models.User{Username: "alice"})
		assert.ErrorIs(t, err, models.ErrDuplicateUser)
	})

	t.Run("get user", func(t *testing.T) {
		user, err := store.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, string(models.RoleUser), user.Role)

		byID, err := store.GetUserByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)
	})

	t.Run("get user not found", func(t *testing.T) {
		_, err := store.GetUser(ctx, "nobody")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
		_, err = store.GetUserByID(ctx, 999)
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})

	t.Run("list users", func(t *testing.T) {
		_, err := store.CreateUser(ctx, &models.User{Username: "admin", Role: "admin"})
		require.NoError(t, err)

		users, err := store.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "admin", users[0].Username)
		assert.True(t, users[0].IsAdmin())
	})
}

func TestUpsertEntry(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	grant := acl.Entry{
		Resource:          acl.Workspace(1),
		Principal:         acl.User(10),
		Permissions:       acl.ReadOnly,
		InheritToChildren: true,
	}

	id, err := store.UpsertEntry(ctx, grant)
	require.NoError(t, err)
	require.NotZero(t, id)

	t.Run("repeat updates in place", func(t *testing.T) {
		grant.Permissions = acl.Editor
		grant.InheritToChildren = false
		again, err := store.UpsertEntry(ctx, grant)
		require.NoError(t, err)
		assert.Equal(t, id, again)

		entries, err := store.ListEntries(ctx, acl.Workspace(1))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, acl.Editor, entries[0].Permissions)
		assert.False(t, entries[0].InheritToChildren)
	})

	t.Run("deny coexists with grant", func(t *testing.T) {
		denyID, err := store.UpsertEntry(ctx, acl.Entry{
			Resource:          acl.Workspace(1),
			Principal:         acl.User(10),
			Permissions:       acl.Write,
			IsDeny:            true,
			InheritToChildren: true,
		})
		require.NoError(t, err)
		assert.NotEqual(t, id, denyID)

		entries, err := store.ListEntries(ctx, acl.Workspace(1))
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.False(t, entries[0].IsDeny)
		assert.True(t, entries[1].IsDeny)
		assert.False(t, entries[1].InheritToChildren, "deny rows never inherit")
	})

	t.Run("delete removes both rows", func(t *testing.T) {
		n, err := store.DeleteEntries(ctx, acl.Workspace(1), acl.User(10))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = store.DeleteEntries(ctx, acl.Workspace(1), acl.User(10))
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestFindEntries(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	seed := []acl.Entry{
		{Resource: acl.Workspace(1), Principal: acl.User(1), Permissions: acl.Read, InheritToChildren: true},
		{Resource: acl.Workspace(1), Principal: acl.Group(5), Permissions: acl.Write},
		{Resource: acl.Workspace(1), Principal: acl.Group(5), Permissions: acl.Delete, IsDeny: true},
		{Resource: acl.Workspace(1), Principal: acl.User(2), Permissions: acl.FullControl, InheritToChildren: true},
		{Resource: acl.Workspace(2), Principal: acl.User(1), Permissions: acl.FullControl, InheritToChildren: true},
		// user 5 must not be matched by group 5
		{Resource: acl.Workspace(1), Principal: acl.User(5), Permissions: acl.Execute, InheritToChildren: true},
	}
	for _, e := range seed {
		_, err := store.UpsertEntry(ctx, e)
		require.NoError(t, err)
	}

	principals := []acl.PrincipalRef{acl.User(1), acl.Group(5)}

	t.Run("direct", func(t *testing.T) {
		entries, err := store.FindEntries(ctx, acl.Workspace(1), principals, false)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		for _, e := range entries {
			assert.Equal(t, acl.Workspace(1), e.Resource)
			assert.Contains(t, principals, e.Principal)
		}
	})

	t.Run("inheritable grants only", func(t *testing.T) {
		entries, err := store.FindEntries(ctx, acl.Workspace(1), principals, true)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, acl.User(1), entries[0].Principal)
	})

	t.Run("no principals", func(t *testing.T) {
		entries, err := store.FindEntries(ctx, acl.Workspace(1), nil, false)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestGroupOperations(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	userID, err := store.CreateUser(ctx, &models.User{Username: "bob"})
	require.NoError(t, err)
	groupID, err := store.CreateGroup(ctx, &models.Group{Name: "developers"})
	require.NoError(t, err)
	otherID, err := store.CreateGroup(ctx, &models.Group{Name: "contractors"})
	require.NoError(t, err)

	_, err = store.CreateGroup(ctx, &models.Group{Name: "developers"})
	assert.ErrorIs(t, err, models.ErrDuplicateGroup)

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.NoError(t, store.AddGroupMember(ctx, groupID, userID, nil))
	require.NoError(t, store.AddGroupMember(ctx, otherID, userID, &past))

	t.Run("expired membership is excluded", func(t *testing.T) {
		ids, err := store.ListActiveGroupIDs(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, []int64{groupID}, ids)
	})

	t.Run("re-adding updates expiry", func(t *testing.T) {
		require.NoError(t, store.AddGroupMember(ctx, otherID, userID, &future))
		ids, err := store.ListActiveGroupIDs(ctx, userID, now)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{groupID, otherID}, ids)

		members, err := store.ListGroupMembers(ctx, otherID)
		require.NoError(t, err)
		require.Len(t, members, 1)
		require.NotNil(t, members[0].ExpiresAt)
		assert.True(t, members[0].ExpiresAt.Equal(future))
	})

	t.Run("unknown group or user", func(t *testing.T) {
		assert.ErrorIs(t, store.AddGroupMember(ctx, 999, userID, nil), models.ErrGroupNotFound)
		assert.ErrorIs(t, store.AddGroupMember(ctx, groupID, 999, nil), models.ErrUserNotFound)
	})

	t.Run("remove member", func(t *testing.T) {
		require.NoError(t, store.RemoveGroupMember(ctx, otherID, userID))
		assert.ErrorIs(t, store.RemoveGroupMember(ctx, otherID, userID), models.ErrMembershipNotFound)
	})

	t.Run("delete group cascades", func(t *testing.T) {
		_, err := store.UpsertEntry(ctx, acl.Entry{Resource: acl.Workspace(1), Principal: acl.Group(groupID), Permissions: acl.Read})
		require.NoError(t, err)

		require.NoError(t, store.DeleteGroup(ctx, "developers"))

		_, err = store.GetGroup(ctx, "developers")
		assert.ErrorIs(t, err, models.ErrGroupNotFound)

		ids, err := store.ListActiveGroupIDs(ctx, userID, now)
		require.NoError(t, err)
		assert.Empty(t, ids)

		entries, err := store.ListEntries(ctx, acl.Workspace(1))
		require.NoError(t, err)
		assert.Empty(t, entries)

		assert.ErrorIs(t, store.DeleteGroup(ctx, "developers"), models.ErrGroupNotFound)
	})
}

func TestResourceOperations(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	wsID, err := store.CreateWorkspace(ctx, &models.Workspace{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)

	_, err = store.CreateWorkspace(ctx, &models.Workspace{Name: "Acme 2", Slug: "acme"})
	assert.ErrorIs(t, err, models.ErrDuplicateWorkspace)

	projectID, err := store.CreateProject(ctx, &models.Project{WorkspaceID: wsID, Name: "Website"})
	require.NoError(t, err)

	_, err = store.CreateProject(ctx, &models.Project{WorkspaceID: 999, Name: "Orphan"})
	assert.ErrorIs(t, err, models.ErrWorkspaceNotFound)

	t.Run("project parent", func(t *testing.T) {
		parent, ok, err := store.ProjectWorkspaceID(ctx, projectID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, wsID, parent)

		_, ok, err = store.ProjectWorkspaceID(ctx, 999)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("list projects", func(t *testing.T) {
		projects, err := store.ListProjects(ctx, wsID)
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, "Website", projects[0].Name)
	})

	t.Run("delete project cascades", func(t *testing.T) {
		p2, err := store.CreateProject(ctx, &models.Project{WorkspaceID: wsID, Name: "Docs"})
		require.NoError(t, err)
		_, err = store.UpsertEntry(ctx, acl.Entry{Resource: acl.Project(p2), Principal: acl.User(1), Permissions: acl.Read})
		require.NoError(t, err)

		require.NoError(t, store.DeleteProject(ctx, p2))
		entries, err := store.ListEntries(ctx, acl.Project(p2))
		require.NoError(t, err)
		assert.Empty(t, entries)

		assert.ErrorIs(t, store.DeleteProject(ctx, p2), models.ErrProjectNotFound)
	})

	t.Run("delete workspace cascades", func(t *testing.T) {
		_, err := store.UpsertEntry(ctx, acl.Entry{Resource: acl.Workspace(wsID), Principal: acl.User(1), Permissions: acl.Read})
		require.NoError(t, err)
		_, err = store.UpsertEntry(ctx, acl.Entry{Resource: acl.Project(projectID), Principal: acl.User(1), Permissions: acl.Write})
		require.NoError(t, err)

		require.NoError(t, store.DeleteWorkspace(ctx, wsID))

		_, err = store.GetWorkspace(ctx, wsID)
		assert.ErrorIs(t, err, models.ErrWorkspaceNotFound)
		_, err = store.GetProject(ctx, projectID)
		assert.ErrorIs(t, err, models.ErrProjectNotFound)

		for _, ref := range []acl.ResourceRef{acl.Workspace(wsID), acl.Project(projectID)} {
			entries, err := store.ListEntries(ctx, ref)
			require.NoError(t, err)
			assert.Empty(t, entries, ref.String())
		}

		err = store.DeleteWorkspace(ctx, wsID)
		assert.True(t, errors.Is(err, models.ErrWorkspaceNotFound))
	})
}

func TestDeleteResourceEntries(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	for _, p := range []acl.PrincipalRef{acl.User(1), acl.User(2), acl.Group(1)} {
		_, err := store.UpsertEntry(ctx, acl.Entry{Resource: acl.Project(8), Principal: p, Permissions: acl.Read})
		require.NoError(t, err)
	}
	_, err := store.UpsertEntry(ctx, acl.Entry{Resource: acl.Project(9), Principal: acl.User(1), Permissions: acl.Read})
	require.NoError(t, err)

	err = store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := deleteResourceEntries(tx, acl.Project(8))
		assert.Equal(t, int64(3), n)
		return err
	})
	require.NoError(t, err)

	left, err := store.ListEntries(ctx, acl.Project(9))
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestConcurrentUpsertEntry(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	errs := make(chan error, 2*writers)
	for i := range writers {
		wg.Add(2)
		go func(mask acl.Permission) {
			defer wg.Done()
			_, err := store.UpsertEntry(ctx, acl.Entry{
				Resource:    acl.Workspace(1),
				Principal:   acl.User(1),
				Permissions: mask,
			})
			errs <- err
		}(acl.Permission(i%int(acl.AllPermissions)) + 1)
		go func() {
			defer wg.Done()
			_, err := store.FindEntries(ctx, acl.Workspace(1), []acl.PrincipalRef{acl.User(1)}, false)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	entries, err := store.ListEntries(ctx, acl.Workspace(1))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.username")))
	assert.True(t, isUniqueConstraintError(errors.New(`duplicate key value violates unique constraint "idx_users_username"`)))
	assert.False(t, isUniqueConstraintError(errors.New("connection refused")))
}
