package store

import (
	"context"

	"github.com/kanbu/kanbu-acl/pkg/controlplane/models"
)

// ============================================
// USER OPERATIONS
// ============================================

func (s *GORMStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "username", username, models.ErrUserNotFound)
}

func (s *GORMStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "id", id, models.ErrUserNotFound)
}

func (s *GORMStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	return listAll[models.User](s.db, ctx, "username")
}

func (s *GORMStore) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	if user.Role == "" {
		user.Role = string(models.RoleUser)
	}
	if err := user.Validate(); err != nil {
		return 0, err
	}
	if err := createRecord(s.db, ctx, user, models.ErrDuplicateUser); err != nil {
		return 0, err
	}
	return user.ID, nil
}
