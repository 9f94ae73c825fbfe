package models

import (
	"time"

	"github.com/kanbu/kanbu-acl/pkg/acl"
)

// AclEntry is the persisted form of acl.Entry.
//
// The composite unique index idx_acl_entry_key guarantees at most one grant
// row and at most one deny row per (resource, principal) pair. The principal
// index serves cascade deletes when a group goes away.
type AclEntry struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ResourceType      string    `gorm:"size:32;not null;uniqueIndex:idx_acl_entry_key,priority:1" json:"resource_type"`
	ResourceID        int64     `gorm:"not null;uniqueIndex:idx_acl_entry_key,priority:2" json:"resource_id"`
	PrincipalType     string    `gorm:"size:32;not null;uniqueIndex:idx_acl_entry_key,priority:3;index:idx_acl_entry_principal,priority:1" json:"principal_type"`
	PrincipalID       int64     `gorm:"not null;uniqueIndex:idx_acl_entry_key,priority:4;index:idx_acl_entry_principal,priority:2" json:"principal_id"`
	IsDeny            bool      `gorm:"not null;uniqueIndex:idx_acl_entry_key,priority:5" json:"is_deny"`
	Permissions       uint8     `gorm:"not null" json:"permissions"`
	InheritToChildren bool      `gorm:"not null" json:"inherit_to_children"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for AclEntry.
func (AclEntry) TableName() string {
	return "acl_entries"
}

// ToEntry converts the row to its domain form.
func (e *AclEntry) ToEntry() acl.Entry {
	return acl.Entry{
		ID:                e.ID,
		Resource:          acl.ResourceRef{Type: acl.ResourceType(e.ResourceType), ID: e.ResourceID},
		Principal:         acl.PrincipalRef{Type: acl.PrincipalType(e.PrincipalType), ID: e.PrincipalID},
		Permissions:       acl.Permission(e.Permissions),
		IsDeny:            e.IsDeny,
		InheritToChildren: e.InheritToChildren,
	}
}

// AclEntryFromEntry builds a row from a domain entry. Deny rows never
// carry InheritToChildren.
func AclEntryFromEntry(e acl.Entry) *AclEntry {
	return &AclEntry{
		ID:                e.ID,
		ResourceType:      string(e.Resource.Type),
		ResourceID:        e.Resource.ID,
		PrincipalType:     string(e.Principal.Type),
		PrincipalID:       e.Principal.ID,
		IsDeny:            e.IsDeny,
		Permissions:       uint8(e.Permissions),
		InheritToChildren: e.InheritToChildren && !e.IsDeny,
	}
}
