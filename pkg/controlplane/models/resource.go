package models

import (
	"fmt"
	"time"
)

// Workspace is the root of the resource hierarchy.
type Workspace struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Workspace.
func (Workspace) TableName() string {
	return "workspaces"
}

// Validate checks if the workspace has valid configuration.
func (w *Workspace) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workspace name is required")
	}
	if w.Slug == "" {
		return fmt.Errorf("workspace slug is required")
	}
	return nil
}

// Project belongs to exactly one workspace.
type Project struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkspaceID int64     `gorm:"index;not null" json:"workspace_id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Project.
func (Project) TableName() string {
	return "projects"
}

// Validate checks if the project has valid configuration.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if p.WorkspaceID <= 0 {
		return fmt.Errorf("project workspace is required")
	}
	return nil
}
