package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kanbu/kanbu-acl/pkg/acl"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/models"
)

// ============================================
// WORKSPACE OPERATIONS
// ============================================

func (s *GORMStore) CreateWorkspace(ctx context.Context, ws *models.Workspace) (int64, error) {
	if err := ws.Validate(); err != nil {
		return 0, err
	}
	if err := createRecord(s.db, ctx, ws, models.ErrDuplicateWorkspace); err != nil {
		return 0, err
	}
	return ws.ID, nil
}

func (s *GORMStore) GetWorkspace(ctx context.Context, id int64) (*models.Workspace, error) {
	return getByField[models.Workspace](s.db, ctx, "id", id, models.ErrWorkspaceNotFound)
}

func (s *GORMStore) ListWorkspaces(ctx context.Context) ([]*models.Workspace, error) {
	return listAll[models.Workspace](s.db, ctx, "id")
}

// DeleteWorkspace removes the workspace together with its projects and the
// ACL entries attached to any of them.
func (s *GORMStore) DeleteWorkspace(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getByField[models.Workspace](tx, ctx, "id", id, models.ErrWorkspaceNotFound); err != nil {
			return err
		}

		var projectIDs []int64
		if err := tx.Model(&models.Project{}).Where("workspace_id = ?", id).Pluck("id", &projectIDs).Error; err != nil {
			return err
		}
		if len(projectIDs) > 0 {
			if err := tx.Where("resource_type = ? AND resource_id IN ?", string(acl.ResourceProject), projectIDs).
				Delete(&models.AclEntry{}).Error; err != nil {
				return err
			}
			if err := tx.Where("workspace_id = ?", id).Delete(&models.Project{}).Error; err != nil {
				return err
			}
		}

		if _, err := deleteResourceEntries(tx, acl.Workspace(id)); err != nil {
			return err
		}

		return deleteByField[models.Workspace](tx, ctx, "id", id, models.ErrWorkspaceNotFound)
	})
}

// ============================================
// PROJECT OPERATIONS
// ============================================

func (s *GORMStore) CreateProject(ctx context.Context, project *models.Project) (int64, error) {
	if err := project.Validate(); err != nil {
		return 0, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getByField[models.Workspace](tx, ctx, "id", project.WorkspaceID, models.ErrWorkspaceNotFound); err != nil {
			return err
		}
		return tx.Create(project).Error
	})
	if err != nil {
		return 0, err
	}
	return project.ID, nil
}

func (s *GORMStore) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	return getByField[models.Project](s.db, ctx, "id", id, models.ErrProjectNotFound)
}

func (s *GORMStore) ListProjects(ctx context.Context, workspaceID int64) ([]*models.Project, error) {
	projects := make([]*models.Project, 0)
	if err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("id").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// DeleteProject removes the project and its ACL entries.
func (s *GORMStore) DeleteProject(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := deleteResourceEntries(tx, acl.Project(id)); err != nil {
			return err
		}
		return deleteByField[models.Project](tx, ctx, "id", id, models.ErrProjectNotFound)
	})
}

// ProjectWorkspaceID returns the workspace owning projectID. A missing
// project is reported through ok=false, not as an error.
func (s *GORMStore) ProjectWorkspaceID(ctx context.Context, projectID int64) (int64, bool, error) {
	project, err := s.GetProject(ctx, projectID)
	if errors.Is(err, models.ErrProjectNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return project.WorkspaceID, true, nil
}
