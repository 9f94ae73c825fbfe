package models

import (
	"fmt"
	"time"
)

// Group is a named set of users that can hold ACL entries.
type Group struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Description string    `gorm:"size:1024" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Group.
func (Group) TableName() string {
	return "groups"
}

// Validate checks if the group has valid configuration.
func (g *Group) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("group name is required")
	}
	return nil
}

// GroupMembership links a user to a group, optionally until ExpiresAt.
// Expired rows are kept; they simply stop counting.
type GroupMembership struct {
	GroupID   int64      `gorm:"primaryKey;autoIncrement:false" json:"group_id"`
	UserID    int64      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GroupMembership.
func (GroupMembership) TableName() string {
	return "group_memberships"
}

// ActiveAt reports whether the membership counts at instant now.
// A membership expiring exactly at now is no longer active.
func (m *GroupMembership) ActiveAt(now time.Time) bool {
	return m.ExpiresAt == nil || m.ExpiresAt.After(now)
}
