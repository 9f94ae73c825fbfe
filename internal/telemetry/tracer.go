package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kanbu/kanbu-acl/pkg/acl"
)

// Attribute keys for ACL operations.
const (
	AttrResourceType  = "acl.resource_type"
	AttrResourceID    = "acl.resource_id"
	AttrPrincipalType = "acl.principal_type"
	AttrPrincipalID   = "acl.principal_id"
	AttrUserID        = "acl.user_id"
	AttrRequired      = "acl.required"
	AttrEffective     = "acl.effective"
	AttrAllowed       = "acl.allowed"
	AttrPermissions   = "acl.permissions"
	AttrPrincipals    = "acl.principal_count"
	AttrEntries       = "acl.entry_count"
	AttrOperation     = "acl.operation"
)

// Span names.
const (
	SpanEvaluate  = "acl.evaluate"
	SpanEffective = "acl.effective"
	SpanGrant     = "acl.grant"
	SpanDeny      = "acl.deny"
	SpanRevoke    = "acl.revoke"
)

// Resource returns the resource type and ID attributes.
func Resource(r acl.ResourceRef) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrResourceType, string(r.Type)),
		attribute.Int64(AttrResourceID, r.ID),
	}
}

// Principal returns the principal type and ID attributes.
func Principal(p acl.PrincipalRef) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrPrincipalType, string(p.Type)),
		attribute.Int64(AttrPrincipalID, p.ID),
	}
}

// UserID returns an attribute for the evaluated user.
func UserID(id int64) attribute.KeyValue {
	return attribute.Int64(AttrUserID, id)
}

// Required returns an attribute for the required mask.
func Required(p acl.Permission) attribute.KeyValue {
	return attribute.Int(AttrRequired, int(p))
}

// Effective returns an attribute for the effective mask.
func Effective(p acl.Permission) attribute.KeyValue {
	return attribute.Int(AttrEffective, int(p))
}

// Allowed returns an attribute for the evaluation outcome.
func Allowed(ok bool) attribute.KeyValue {
	return attribute.Bool(AttrAllowed, ok)
}

// Permissions returns an attribute for the mask written by a grant or deny.
func Permissions(p acl.Permission) attribute.KeyValue {
	return attribute.Int(AttrPermissions, int(p))
}

// Inputs returns the sizes of an evaluation's inputs: resolved principals
// and matching entries (direct plus inherited).
func Inputs(principals, entries int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrPrincipals, principals),
		attribute.Int(AttrEntries, entries),
	}
}

// StartEvaluationSpan starts a span for a permission check on resource.
func StartEvaluationSpan(ctx context.Context, name string, userID int64, resource acl.ResourceRef, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append(Resource(resource), UserID(userID))
	all = append(all, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(all...))
}

// StartMutationSpan starts a span for the grant, deny or revoke named by op.
func StartMutationSpan(ctx context.Context, name, op string, resource acl.ResourceRef, principal acl.PrincipalRef, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append(Resource(resource), Principal(principal)...)
	all = append(all, attribute.String(AttrOperation, op))
	all = append(all, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(all...))
}
