package logger

import (
	"log/slog"

	"github.com/kanbu/kanbu-acl/pkg/acl"
)

// Standard field keys for structured logging. Use these consistently so
// log queries can rely on them.
const (
	// Distributed tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Request
	KeyRequestID  = "request_id"
	KeyClientIP   = "client_ip"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyDurationMs = "duration_ms"

	// Caller
	KeyUserID   = "user_id"
	KeyUsername = "username"

	// ACL
	KeyOperation     = "operation"
	KeyResource      = "resource"
	KeyResourceType  = "resource_type"
	KeyResourceID    = "resource_id"
	KeyPrincipalType = "principal_type"
	KeyPrincipalID   = "principal_id"
	KeyPermissions   = "permissions"
	KeyRequired      = "required"
	KeyEffective     = "effective"
	KeyAllowed       = "allowed"
	KeyInherit       = "inherit_to_children"
	KeyDeny          = "is_deny"
	KeyEntryID       = "entry_id"
	KeyEntries       = "entries"
	KeyGroups        = "groups"

	// Storage
	KeyStoreType = "store_type"
	KeyPathDB    = "db_path"

	// Errors
	KeyError = "error"
)

// Resource returns the resource type and ID as a group of attrs.
func Resource(r acl.ResourceRef) slog.Attr {
	return slog.Group("", slog.String(KeyResourceType, string(r.Type)), slog.Int64(KeyResourceID, r.ID))
}

// Principal returns the principal type and ID as a group of attrs.
func Principal(p acl.PrincipalRef) slog.Attr {
	return slog.Group("", slog.String(KeyPrincipalType, string(p.Type)), slog.Int64(KeyPrincipalID, p.ID))
}

// Permissions returns a slog.Attr rendering the mask by name ("Read|Write").
func Permissions(key string, p acl.Permission) slog.Attr {
	return slog.String(key, p.String())
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
