// Package models provides the persisted domain types of the Kanbu ACL
// control plane.
//
// It contains the ACL entry table together with the minimal user, group,
// membership, workspace and project rows the evaluator needs to resolve
// principals and the resource hierarchy. All types carry GORM annotations
// and are migrated via AllModels.
package models

// AllModels returns all GORM models for auto-migration.
func AllModels() []any {
	return []any{
		&User{},
		&Group{},
		&GroupMembership{},
		&Workspace{},
		&Project{},
		&AclEntry{},
	}
}
