package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"

	"github.com/kanbu/kanbu-acl/internal/logger"
	"github.com/kanbu/kanbu-acl/pkg/acl"
)

// MembershipLister returns the groups a user currently belongs to.
type MembershipLister interface {
	ListActiveGroupIDs(ctx context.Context, userID int64, now time.Time) ([]int64, error)
}

// ProjectLookup maps a project to its workspace. ok is false when the
// project does not exist.
type ProjectLookup interface {
	ProjectWorkspaceID(ctx context.Context, projectID int64) (workspaceID int64, ok bool, err error)
}

// PrincipalResolver expands a user into every principal whose entries apply
// to them.
type PrincipalResolver interface {
	Principals(ctx context.Context, userID int64) ([]acl.PrincipalRef, error)
}

// HierarchyResolver returns the parent of a resource, if any.
type HierarchyResolver interface {
	Parent(ctx context.Context, resource acl.ResourceRef) (parent acl.ResourceRef, ok bool, err error)
}

// MembershipResolver resolves a user to itself plus its current groups.
// Membership expiry is judged against the injected clock.
type MembershipResolver struct {
	members MembershipLister
	clock   clock.Clock
}

// NewMembershipResolver returns a resolver reading memberships from members.
// A nil clk uses the wall clock.
func NewMembershipResolver(members MembershipLister, clk clock.Clock) *MembershipResolver {
	if clk == nil {
		clk = clock.WallClock
	}
	return &MembershipResolver{members: members, clock: clk}
}

// Principals returns {user} followed by the user's current groups.
func (r *MembershipResolver) Principals(ctx context.Context, userID int64) ([]acl.PrincipalRef, error) {
	groupIDs, err := r.members.ListActiveGroupIDs(ctx, userID, r.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("resolve groups of user %d: %w", userID, err)
	}

	principals := make([]acl.PrincipalRef, 0, 1+len(groupIDs))
	principals = append(principals, acl.User(userID))
	for _, id := range groupIDs {
		principals = append(principals, acl.Group(id))
	}
	logger.DebugCtx(ctx, "principals resolved", logger.KeyUserID, userID, logger.KeyGroups, groupIDs)
	return principals, nil
}

// ProjectHierarchy implements the workspace -> project hierarchy.
type ProjectHierarchy struct {
	projects ProjectLookup
}

// NewProjectHierarchy returns a hierarchy resolver backed by projects.
func NewProjectHierarchy(projects ProjectLookup) *ProjectHierarchy {
	return &ProjectHierarchy{projects: projects}
}

// Parent returns the workspace of a project. Workspaces have no parent and
// neither does a project that does not exist.
func (h *ProjectHierarchy) Parent(ctx context.Context, resource acl.ResourceRef) (acl.ResourceRef, bool, error) {
	if resource.Type != acl.ResourceProject {
		return acl.ResourceRef{}, false, nil
	}
	wsID, ok, err := h.projects.ProjectWorkspaceID(ctx, resource.ID)
	if err != nil {
		return acl.ResourceRef{}, false, fmt.Errorf("resolve parent of %s: %w", resource, err)
	}
	if !ok {
		return acl.ResourceRef{}, false, nil
	}
	return acl.Workspace(wsID), true, nil
}
