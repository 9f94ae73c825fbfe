package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kanbu/kanbu-acl/pkg/acl"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/models"
)

// ============================================
// GROUP OPERATIONS
// ============================================

func (s *GORMStore) GetGroup(ctx context.Context, name string) (*models.Group, error) {
	return getByField[models.Group](s.db, ctx, "name", name, models.ErrGroupNotFound)
}

func (s *GORMStore) GetGroupByID(ctx context.Context, id int64) (*models.Group, error) {
	return getByField[models.Group](s.db, ctx, "id", id, models.ErrGroupNotFound)
}

func (s *GORMStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return listAll[models.Group](s.db, ctx, "name")
}

func (s *GORMStore) CreateGroup(ctx context.Context, group *models.Group) (int64, error) {
	if err := group.Validate(); err != nil {
		return 0, err
	}
	if err := createRecord(s.db, ctx, group, models.ErrDuplicateGroup); err != nil {
		return 0, err
	}
	return group.ID, nil
}

// DeleteGroup removes the group, its memberships and every ACL entry whose
// principal is the group.
func (s *GORMStore) DeleteGroup(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.Where("name = ?", name).First(&group).Error; err != nil {
			return convertNotFoundError(err, models.ErrGroupNotFound)
		}

		if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupMembership{}).Error; err != nil {
			return err
		}

		if err := tx.Where("principal_type = ? AND principal_id = ?", string(acl.PrincipalGroup), group.ID).
			Delete(&models.AclEntry{}).Error; err != nil {
			return err
		}

		return tx.Delete(&group).Error
	})
}

// ============================================
// GROUP MEMBERSHIP OPERATIONS
// ============================================

// AddGroupMember adds userID to groupID, or updates the expiry of an
// existing membership. A nil expiresAt means the membership never expires.
func (s *GORMStore) AddGroupMember(ctx context.Context, groupID, userID int64, expiresAt *time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getByField[models.Group](tx, ctx, "id", groupID, models.ErrGroupNotFound); err != nil {
			return err
		}
		if _, err := getByField[models.User](tx, ctx, "id", userID, models.ErrUserNotFound); err != nil {
			return err
		}

		var expiry *time.Time
		if expiresAt != nil {
			utc := expiresAt.UTC()
			expiry = &utc
		}
		membership := &models.GroupMembership{
			GroupID:   groupID,
			UserID:    userID,
			ExpiresAt: expiry,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"expires_at"}),
		}).Create(membership).Error
	})
}

func (s *GORMStore) RemoveGroupMember(ctx context.Context, groupID, userID int64) error {
	result := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMembership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrMembershipNotFound
	}
	return nil
}

func (s *GORMStore) ListGroupMembers(ctx context.Context, groupID int64) ([]*models.GroupMembership, error) {
	members := make([]*models.GroupMembership, 0)
	if err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("user_id").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListActiveGroupIDs returns the groups userID belongs to at instant now.
// Expiry is checked in Go rather than SQL so the comparison does not depend
// on how each backend serialises timestamps.
func (s *GORMStore) ListActiveGroupIDs(ctx context.Context, userID int64, now time.Time) ([]int64, error) {
	var memberships []models.GroupMembership
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(memberships))
	for i := range memberships {
		if memberships[i].ActiveAt(now) {
			ids = append(ids, memberships[i].GroupID)
		}
	}
	return ids, nil
}
