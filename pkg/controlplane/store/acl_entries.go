package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/kanbu/kanbu-acl/pkg/acl"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/models"
)

// ============================================
// ACL ENTRY OPERATIONS
// ============================================

const entryKeyWhere = "resource_type = ? AND resource_id = ? AND principal_type = ? AND principal_id = ? AND is_deny = ?"

func (s *GORMStore) UpsertEntry(ctx context.Context, entry acl.Entry) (uint, error) {
	id, err := s.upsertEntry(ctx, entry)
	if err != nil && isUniqueConstraintError(err) {
		// A concurrent writer inserted the same key between our select and
		// insert. The row exists now, so the second attempt takes the update path.
		id, err = s.upsertEntry(ctx, entry)
	}
	return id, err
}

func (s *GORMStore) upsertEntry(ctx context.Context, entry acl.Entry) (uint, error) {
	row := models.AclEntryFromEntry(entry)
	row.ID = 0

	var id uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.AclEntry
		err := tx.Where(entryKeyWhere,
			row.ResourceType, row.ResourceID, row.PrincipalType, row.PrincipalID, row.IsDeny,
		).First(&existing).Error

		switch {
		case err == nil:
			id = existing.ID
			return tx.Model(&existing).Updates(map[string]any{
				"permissions":         row.Permissions,
				"inherit_to_children": row.InheritToChildren,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			id = row.ID
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *GORMStore) DeleteEntries(ctx context.Context, resource acl.ResourceRef, principal acl.PrincipalRef) (int64, error) {
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("resource_type = ? AND resource_id = ? AND principal_type = ? AND principal_id = ?",
			string(resource.Type), resource.ID, string(principal.Type), principal.ID,
		).Delete(&models.AclEntry{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (s *GORMStore) FindEntries(ctx context.Context, resource acl.ResourceRef, principals []acl.PrincipalRef, inheritableGrantsOnly bool) ([]acl.Entry, error) {
	cond, args := principalCondition(principals)
	if cond == "" {
		return nil, nil
	}

	q := s.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", string(resource.Type), resource.ID).
		Where(cond, args...)
	if inheritableGrantsOnly {
		q = q.Where("is_deny = ? AND inherit_to_children = ?", false, true)
	}

	var rows []models.AclEntry
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find acl entries for %s: %w", resource, err)
	}
	return toEntries(rows), nil
}

func (s *GORMStore) ListEntries(ctx context.Context, resource acl.ResourceRef) ([]acl.Entry, error) {
	var rows []models.AclEntry
	err := s.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", string(resource.Type), resource.ID).
		Order("principal_type, principal_id, is_deny").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

// deleteResourceEntries removes every entry on resource. db is the
// transaction of the cascading delete.
func deleteResourceEntries(db *gorm.DB, resource acl.ResourceRef) (int64, error) {
	result := db.Where("resource_type = ? AND resource_id = ?", string(resource.Type), resource.ID).
		Delete(&models.AclEntry{})
	return result.RowsAffected, result.Error
}

// principalCondition builds a parenthesised OR over principals grouped by
// type, e.g. ((principal_type = ? AND principal_id IN ?) OR (...)).
func principalCondition(principals []acl.PrincipalRef) (string, []any) {
	byType := make(map[acl.PrincipalType][]int64, 2)
	for _, p := range principals {
		byType[p.Type] = append(byType[p.Type], p.ID)
	}

	var parts []string
	var args []any
	for _, typ := range []acl.PrincipalType{acl.PrincipalUser, acl.PrincipalGroup} {
		ids := byType[typ]
		if len(ids) == 0 {
			continue
		}
		parts = append(parts, "(principal_type = ? AND principal_id IN ?)")
		args = append(args, string(typ), ids)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

func toEntries(rows []models.AclEntry) []acl.Entry {
	entries := make([]acl.Entry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToEntry()
	}
	return entries
}
