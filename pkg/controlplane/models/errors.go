package models

import "errors"

// Common errors for control plane operations.
var (
	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")

	// Group errors
	ErrGroupNotFound      = errors.New("group not found")
	ErrDuplicateGroup     = errors.New("group already exists")
	ErrMembershipNotFound = errors.New("group membership not found")

	// Resource errors
	ErrWorkspaceNotFound  = errors.New("workspace not found")
	ErrDuplicateWorkspace = errors.New("workspace already exists")
	ErrProjectNotFound    = errors.New("project not found")
)
