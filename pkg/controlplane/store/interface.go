// Package store provides the control plane persistence layer.
//
// This package implements the Store interface for ACL entries and for the
// users, groups, memberships, workspaces and projects the evaluator reads
// while resolving principals and the resource hierarchy.
//
// Two backends are supported:
//   - SQLite (single-node, default)
//   - PostgreSQL (HA-capable)
package store

import (
	"context"
	"time"

	"github.com/kanbu/kanbu-acl/pkg/acl"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/models"
)

// Store provides the control plane persistence interface.
//
// Thread Safety: Implementations must be safe for concurrent use from multiple
// goroutines.
type Store interface {
	ACLStore
	UserStore
	GroupStore
	ResourceStore

	// Healthcheck verifies the store is operational.
	Healthcheck(ctx context.Context) error

	// Close closes the store and releases resources.
	Close() error
}

// ACLStore persists grant and deny entries.
type ACLStore interface {
	// UpsertEntry inserts the entry or, when a row with the same
	// (resource, principal, is_deny) key exists, replaces its permissions
	// and inheritance flag. Returns the row ID.
	UpsertEntry(ctx context.Context, entry acl.Entry) (uint, error)

	// DeleteEntries removes the grant and deny rows for the pair and
	// returns how many rows were deleted.
	DeleteEntries(ctx context.Context, resource acl.ResourceRef, principal acl.PrincipalRef) (int64, error)

	// FindEntries returns the entries on resource held by any of principals.
	// With inheritableGrantsOnly set, only grants with InheritToChildren
	// are returned.
	FindEntries(ctx context.Context, resource acl.ResourceRef, principals []acl.PrincipalRef, inheritableGrantsOnly bool) ([]acl.Entry, error)

	// ListEntries returns every entry on resource.
	ListEntries(ctx context.Context, resource acl.ResourceRef) ([]acl.Entry, error)
}

// UserStore manages users.
type UserStore interface {
	// GetUser returns a user by username.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	GetUser(ctx context.Context, username string) (*models.User, error)

	// GetUserByID returns a user by ID.
	// Returns models.ErrUserNotFound if no user has this ID.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// ListUsers returns all users ordered by username.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// CreateUser creates a new user and returns its ID.
	// Returns models.ErrDuplicateUser if the username is taken.
	CreateUser(ctx context.Context, user *models.User) (int64, error)
}

// GroupStore manages groups and their memberships.
type GroupStore interface {
	// GetGroup returns a group by name.
	// Returns models.ErrGroupNotFound if the group doesn't exist.
	GetGroup(ctx context.Context, name string) (*models.Group, error)

	// GetGroupByID returns a group by ID.
	GetGroupByID(ctx context.Context, id int64) (*models.Group, error)

	// ListGroups returns all groups ordered by name.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// CreateGroup creates a new group and returns its ID.
	// Returns models.ErrDuplicateGroup if the name is taken.
	CreateGroup(ctx context.Context, group *models.Group) (int64, error)

	// DeleteGroup deletes a group with its memberships and ACL entries.
	DeleteGroup(ctx context.Context, name string) error

	// AddGroupMember adds or refreshes a membership.
	AddGroupMember(ctx context.Context, groupID, userID int64, expiresAt *time.Time) error

	// RemoveGroupMember deletes a membership.
	// Returns models.ErrMembershipNotFound if it doesn't exist.
	RemoveGroupMember(ctx context.Context, groupID, userID int64) error

	// ListGroupMembers returns the memberships of a group, expired ones included.
	ListGroupMembers(ctx context.Context, groupID int64) ([]*models.GroupMembership, error)

	// ListActiveGroupIDs returns the IDs of the groups userID is a current
	// member of at instant now.
	ListActiveGroupIDs(ctx context.Context, userID int64, now time.Time) ([]int64, error)
}

// ResourceStore manages the workspace/project hierarchy.
type ResourceStore interface {
	CreateWorkspace(ctx context.Context, ws *models.Workspace) (int64, error)
	GetWorkspace(ctx context.Context, id int64) (*models.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]*models.Workspace, error)
	DeleteWorkspace(ctx context.Context, id int64) error

	CreateProject(ctx context.Context, project *models.Project) (int64, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	ListProjects(ctx context.Context, workspaceID int64) ([]*models.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	// ProjectWorkspaceID returns the owning workspace, ok=false when the
	// project does not exist.
	ProjectWorkspaceID(ctx context.Context, projectID int64) (workspaceID int64, ok bool, err error)
}
