package models

import (
	"testing"
	"time"

	"github.com/kanbu/kanbu-acl/pkg/acl"
)

func TestUserRole_IsValid(t *testing.T) {
	tests := []struct {
		role  UserRole
		valid bool
	}{
		{RoleUser, true},
		{RoleAdmin, true},
		{"invalid", false},
		{"", false},
		{"USER", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.IsValid(); got != tt.valid {
				t.Errorf("UserRole(%q).IsValid() = %v, want %v", tt.role, got, tt.valid)
			}
		})
	}
}

func TestUser_Validate(t *testing.T) {
	if err := (&User{Username: "alice"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&User{}).Validate(); err == nil {
		t.Error("expected error for empty username")
	}
	if err := (&User{Username: "bob", Role: "root"}).Validate(); err == nil {
		t.Error("expected error for unknown role")
	}
	if !(&User{Role: "admin"}).IsAdmin() {
		t.Error("admin role should report IsAdmin")
	}
}

func TestGroupMembership_ActiveAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no expiry", nil, true},
		{"expires later", &future, true},
		{"expired", &past, false},
		{"expires exactly now", &now, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := GroupMembership{ExpiresAt: tt.expiresAt}
			if got := m.ActiveAt(now); got != tt.want {
				t.Errorf("ActiveAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProject_Validate(t *testing.T) {
	if err := (&Project{Name: "api", WorkspaceID: 1}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&Project{Name: "api"}).Validate(); err == nil {
		t.Error("expected error for missing workspace")
	}
	if err := (&Workspace{Name: "Acme"}).Validate(); err == nil {
		t.Error("expected error for missing slug")
	}
}

func TestAclEntryConversion(t *testing.T) {
	e := acl.Entry{
		Resource:          acl.Project(4),
		Principal:         acl.Group(9),
		Permissions:       acl.Contributor,
		InheritToChildren: true,
	}
	row := AclEntryFromEntry(e)
	if row.ResourceType != "project" || row.PrincipalType != "group" || row.Permissions != 7 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if got := row.ToEntry(); got != e {
		t.Fatalf("ToEntry() = %+v, want %+v", got, e)
	}

	e.IsDeny = true
	if AclEntryFromEntry(e).InheritToChildren {
		t.Error("deny rows must not inherit")
	}
}
