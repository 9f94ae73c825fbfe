// Package acl implements the permission model of the Kanbu authorization
// kernel: the five-bit permission mask, named presets, resource and principal
// references, and the ACL entry type shared by the store and the evaluator.
//
// The package is storage-agnostic: it has no dependencies on GORM, HTTP or
// the evaluator. Everything here is a pure value type or a pure function.
package acl

import (
	"fmt"
	"strconv"
	"strings"
)

// Permission is a bitmask of capabilities on a resource.
//
// The semantics follow NTFS/Active Directory: each bit is independent and
// masks compose with bitwise OR/AND. Only the five bits below are defined;
// any other bit is rejected by Validate.
type Permission uint8

const (
	// Read allows viewing the resource and its content.
	Read Permission = 1 << iota

	// Write allows modifying the resource.
	Write

	// Execute allows running actions on the resource (automations, syncs).
	Execute

	// Delete allows removing the resource.
	Delete

	// Permissions allows changing other principals' entries on the resource.
	Permissions
)

// AllPermissions is the union of every defined bit.
const AllPermissions = Read | Write | Execute | Delete | Permissions

// Presets. These are plain masks, never stored separately from an entry.
const (
	ReadOnly    = Read
	Contributor = Read | Write | Execute
	Editor      = Read | Write
	FullControl = AllPermissions
)

// Has reports whether every bit in required is present in p.
func (p Permission) Has(required Permission) bool {
	return p&required == required
}

// Valid reports whether p only uses defined bits.
func (p Permission) Valid() bool {
	return p&^AllPermissions == 0
}

// String returns the preset name when p is a preset, otherwise the
// pipe-joined bit names ("Read|Delete"). The empty mask renders as "None".
func (p Permission) String() string {
	if name, ok := PresetName(p); ok {
		return name
	}
	if p == 0 {
		return "None"
	}
	names := Names(p)
	if extra := p &^ AllPermissions; extra != 0 {
		names = append(names, fmt.Sprintf("0x%02x", uint8(extra)))
	}
	return strings.Join(names, "|")
}

// ResourceType identifies the kind of resource an entry is attached to.
type ResourceType string

const (
	// ResourceWorkspace is the root of the hierarchy.
	ResourceWorkspace ResourceType = "workspace"

	// ResourceProject is a child of exactly one workspace.
	ResourceProject ResourceType = "project"
)

// Valid reports whether t is one of the known resource types.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceWorkspace, ResourceProject:
		return true
	default:
		return false
	}
}

// String returns the string representation of the resource type.
func (t ResourceType) String() string {
	return string(t)
}

// PrincipalType identifies who an entry applies to.
type PrincipalType string

const (
	// PrincipalUser is an individual user.
	PrincipalUser PrincipalType = "user"

	// PrincipalGroup is a group of users.
	PrincipalGroup PrincipalType = "group"
)

// Valid reports whether t is one of the known principal types.
func (t PrincipalType) Valid() bool {
	switch t {
	case PrincipalUser, PrincipalGroup:
		return true
	default:
		return false
	}
}

// String returns the string representation of the principal type.
func (t PrincipalType) String() string {
	return string(t)
}

// ResourceRef points at a single resource.
type ResourceRef struct {
	Type ResourceType `json:"type"`
	ID   int64        `json:"id"`
}

// Workspace returns a reference to the workspace with the given ID.
func Workspace(id int64) ResourceRef {
	return ResourceRef{Type: ResourceWorkspace, ID: id}
}

// Project returns a reference to the project with the given ID.
func Project(id int64) ResourceRef {
	return ResourceRef{Type: ResourceProject, ID: id}
}

// String renders the reference as "type:id".
func (r ResourceRef) String() string {
	return string(r.Type) + ":" + strconv.FormatInt(r.ID, 10)
}

// PrincipalRef points at a single user or group.
type PrincipalRef struct {
	Type PrincipalType `json:"type"`
	ID   int64         `json:"id"`
}

// User returns a reference to the user with the given ID.
func User(id int64) PrincipalRef {
	return PrincipalRef{Type: PrincipalUser, ID: id}
}

// Group returns a reference to the group with the given ID.
func Group(id int64) PrincipalRef {
	return PrincipalRef{Type: PrincipalGroup, ID: id}
}

// String renders the reference as "type:id".
func (p PrincipalRef) String() string {
	return string(p.Type) + ":" + strconv.FormatInt(p.ID, 10)
}

// Entry is a single grant or deny binding a principal, a resource and a mask.
//
// For a given (Resource, Principal) pair there is at most one grant entry and
// at most one deny entry. InheritToChildren is only meaningful on grants.
type Entry struct {
	ID                uint         `json:"id"`
	Resource          ResourceRef  `json:"resource"`
	Principal         PrincipalRef `json:"principal"`
	Permissions       Permission   `json:"permissions"`
	IsDeny            bool         `json:"is_deny"`
	InheritToChildren bool         `json:"inherit_to_children"`
}

// Kind returns "deny" or "grant".
func (e *Entry) Kind() string {
	if e.IsDeny {
		return "deny"
	}
	return "grant"
}
