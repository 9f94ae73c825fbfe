package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kanbu/kanbu-acl/internal/controlplane/api/auth"
	"github.com/kanbu/kanbu-acl/internal/controlplane/api/middleware"
	"github.com/kanbu/kanbu-acl/internal/logger"
	"github.com/kanbu/kanbu-acl/pkg/acl"
	"github.com/kanbu/kanbu-acl/pkg/authz"
)

// ACLHandler serves the per-resource ACL endpoints.
//
// Admins bypass every check. Other callers need READ on the resource to list
// its entries and PERMISSIONS to change them or to evaluate someone else.
type ACLHandler struct {
	svc *authz.Service
}

// NewACLHandler creates a new ACLHandler.
func NewACLHandler(svc *authz.Service) *ACLHandler {
	return &ACLHandler{svc: svc}
}

// GrantRequest is the body of PUT .../grant. Permissions is a preset name,
// a list of bit names, letter codes or a numeric mask (string or number).
// InheritToChildren defaults to true.
type GrantRequest struct {
	Permissions       json.RawMessage `json:"permissions"`
	InheritToChildren *bool           `json:"inherit_to_children,omitempty"`
}

// DenyRequest is the body of PUT .../deny.
type DenyRequest struct {
	Permissions json.RawMessage `json:"permissions"`
}

// EntryResponse is the wire form of an ACL entry.
type EntryResponse struct {
	ID                uint     `json:"id"`
	ResourceType      string   `json:"resource_type"`
	ResourceID        int64    `json:"resource_id"`
	PrincipalType     string   `json:"principal_type"`
	PrincipalID       int64    `json:"principal_id"`
	Kind              string   `json:"kind"`
	Permissions       uint8    `json:"permissions"`
	PermissionNames   []string `json:"permission_names"`
	Preset            string   `json:"preset,omitempty"`
	InheritToChildren bool     `json:"inherit_to_children"`
}

// AccessResponse is the body of GET .../access.
type AccessResponse struct {
	UserID         int64    `json:"user_id"`
	Resource       string   `json:"resource"`
	Required       uint8    `json:"required"`
	Allowed        bool     `json:"allowed"`
	Effective      uint8    `json:"effective"`
	EffectiveNames []string `json:"effective_names"`
}

// List handles GET /api/v1/{resourceType}/{resourceID}/acl.
func (h *ACLHandler) List(w http.ResponseWriter, r *http.Request) {
	resource, err := resourceFromPath(r)
	if err != nil {
		writeACLError(w, err)
		return
	}
	r = withOperation(r, "list", resource)
	if !h.authorize(w, r, resource, acl.Read) {
		return
	}

	entries, err := h.svc.ListEntries(r.Context(), resource)
	if err != nil {
		writeACLError(w, err)
		return
	}

	resp := make([]EntryResponse, len(entries))
	for i := range entries {
		resp[i] = entryToResponse(entries[i])
	}
	WriteJSONOK(w, resp)
}

// Grant handles PUT /api/v1/{resourceType}/{resourceID}/acl/{principalType}/{principalID}/grant.
func (h *ACLHandler) Grant(w http.ResponseWriter, r *http.Request) {
	r, resource, principal, ok := h.mutationTarget(w, r, authz.OpGrant)
	if !ok {
		return
	}

	var req GrantRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	perms, err := parsePermissionField(req.Permissions)
	if err != nil {
		writeACLError(w, err)
		return
	}
	inherit := req.InheritToChildren == nil || *req.InheritToChildren

	id, err := h.svc.Grant(r.Context(), resource, principal, perms, inherit)
	if err != nil {
		writeACLError(w, err)
		return
	}
	WriteJSONOK(w, entryToResponse(acl.Entry{
		ID:                id,
		Resource:          resource,
		Principal:         principal,
		Permissions:       perms,
		InheritToChildren: inherit,
	}))
}

// Deny handles PUT /api/v1/{resourceType}/{resourceID}/acl/{principalType}/{principalID}/deny.
func (h *ACLHandler) Deny(w http.ResponseWriter, r *http.Request) {
	r, resource, principal, ok := h.mutationTarget(w, r, authz.OpDeny)
	if !ok {
		return
	}

	var req DenyRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	perms, err := parsePermissionField(req.Permissions)
	if err != nil {
		writeACLError(w, err)
		return
	}

	id, err := h.svc.Deny(r.Context(), resource, principal, perms)
	if err != nil {
		writeACLError(w, err)
		return
	}
	WriteJSONOK(w, entryToResponse(acl.Entry{
		ID:          id,
		Resource:    resource,
		Principal:   principal,
		Permissions: perms,
		IsDeny:      true,
	}))
}

// Revoke handles DELETE /api/v1/{resourceType}/{resourceID}/acl/{principalType}/{principalID}.
// With ?strict=true a pair without entries is reported as 404.
func (h *ACLHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	r, resource, principal, ok := h.mutationTarget(w, r, authz.OpRevoke)
	if !ok {
		return
	}

	var err error
	if strict, _ := strconv.ParseBool(r.URL.Query().Get("strict")); strict {
		err = h.svc.RevokeStrict(r.Context(), resource, principal)
	} else {
		err = h.svc.Revoke(r.Context(), resource, principal)
	}
	if err != nil {
		writeACLError(w, err)
		return
	}
	WriteNoContent(w)
}

// Access handles GET /api/v1/{resourceType}/{resourceID}/access?permissions=...&user=ID.
// Without user the caller is evaluated. Evaluating another user requires
// admin or PERMISSIONS on the resource.
func (h *ACLHandler) Access(w http.ResponseWriter, r *http.Request) {
	resource, err := resourceFromPath(r)
	if err != nil {
		writeACLError(w, err)
		return
	}
	r = withOperation(r, "check", resource)

	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return
	}

	var required acl.Permission
	if raw := r.URL.Query().Get("permissions"); raw != "" {
		required, err = acl.ParsePermission(raw)
		if err != nil {
			writeACLError(w, err)
			return
		}
	}

	userID, ok := h.subject(w, r, claims, resource)
	if !ok {
		return
	}

	ex, allowed, err := h.svc.Evaluate(r.Context(), userID, resource, required)
	if err != nil {
		writeACLError(w, err)
		return
	}
	effective := ex.Decision.Effective()

	WriteJSONOK(w, AccessResponse{
		UserID:         userID,
		Resource:       resource.String(),
		Required:       uint8(required),
		Allowed:        allowed,
		Effective:      uint8(effective),
		EffectiveNames: acl.Names(effective),
	})
}

// Explain handles GET /api/v1/{resourceType}/{resourceID}/explain?user=ID and
// returns the principals, entries and decision behind a user's access.
// Subject resolution and authorization follow Access.
func (h *ACLHandler) Explain(w http.ResponseWriter, r *http.Request) {
	resource, err := resourceFromPath(r)
	if err != nil {
		writeACLError(w, err)
		return
	}
	r = withOperation(r, "explain", resource)

	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return
	}
	userID, ok := h.subject(w, r, claims, resource)
	if !ok {
		return
	}

	ex, err := h.svc.Explain(r.Context(), userID, resource)
	if err != nil {
		writeACLError(w, err)
		return
	}
	WriteJSONOK(w, ex)
}

// subject returns the user named by ?user=ID, defaulting to the caller.
// Naming another user requires admin or PERMISSIONS on resource.
func (h *ACLHandler) subject(w http.ResponseWriter, r *http.Request, claims *auth.Claims, resource acl.ResourceRef) (int64, bool) {
	userID := claims.UserID
	if raw := r.URL.Query().Get("user"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			BadRequest(w, fmt.Sprintf("invalid user id %q", raw))
			return 0, false
		}
		userID = id
	}
	if userID != claims.UserID && !h.authorize(w, r, resource, acl.Permissions) {
		return 0, false
	}
	return userID, true
}

// mutationTarget parses the resource and principal of a mutation route and
// checks the caller holds PERMISSIONS on the resource.
func (h *ACLHandler) mutationTarget(w http.ResponseWriter, r *http.Request, op string) (*http.Request, acl.ResourceRef, acl.PrincipalRef, bool) {
	resource, err := resourceFromPath(r)
	if err != nil {
		writeACLError(w, err)
		return r, acl.ResourceRef{}, acl.PrincipalRef{}, false
	}
	principal, err := principalFromPath(r)
	if err != nil {
		writeACLError(w, err)
		return r, acl.ResourceRef{}, acl.PrincipalRef{}, false
	}
	r = withOperation(r, op, resource)
	if !h.authorize(w, r, resource, acl.Permissions) {
		return r, acl.ResourceRef{}, acl.PrincipalRef{}, false
	}
	return r, resource, principal, true
}

// authorize writes 401/403 and returns false unless the caller is an admin
// or holds required on resource.
func (h *ACLHandler) authorize(w http.ResponseWriter, r *http.Request, resource acl.ResourceRef, required acl.Permission) bool {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
		return false
	}
	if claims.IsAdmin() {
		return true
	}

	ok, err := h.svc.HasPermission(r.Context(), claims.UserID, resource.Type, resource.ID, required)
	if err != nil {
		writeACLError(w, err)
		return false
	}
	if !ok {
		logger.InfoCtx(r.Context(), "API caller lacks permission",
			logger.Resource(resource),
			logger.Permissions(logger.KeyRequired, required),
		)
		Forbidden(w, fmt.Sprintf("%s permission required on %s", required, resource))
		return false
	}
	return true
}

// parsePermissionField accepts a JSON string ("Editor", "read,write", "rw",
// "0x1f") or a JSON number.
func parsePermissionField(raw json.RawMessage) (acl.Permission, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: permissions is required", acl.ErrInvalidPermission)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return acl.ParsePermission(s)
	}

	var n uint64
	if err := json.Unmarshal(raw, &n); err != nil || n > 0xff {
		return 0, fmt.Errorf("%w: %s", acl.ErrInvalidPermission, raw)
	}
	p := acl.Permission(n)
	if err := acl.Validate(p); err != nil {
		return 0, err
	}
	return p, nil
}

func writeACLError(w http.ResponseWriter, err error) {
	switch {
	case acl.IsValidationError(err):
		BadRequest(w, err.Error())
	case errors.Is(err, acl.ErrEntryNotFound):
		NotFound(w, err.Error())
	default:
		InternalServerError(w, "ACL store failure")
	}
}

func withOperation(r *http.Request, op string, resource acl.ResourceRef) *http.Request {
	lc := logger.FromContext(r.Context())
	if lc == nil {
		return r
	}
	return r.WithContext(logger.WithContext(r.Context(), lc.WithOperation(op, resource.String())))
}

func entryToResponse(e acl.Entry) EntryResponse {
	preset, _ := acl.PresetName(e.Permissions)
	return EntryResponse{
		ID:                e.ID,
		ResourceType:      string(e.Resource.Type),
		ResourceID:        e.Resource.ID,
		PrincipalType:     string(e.Principal.Type),
		PrincipalID:       e.Principal.ID,
		Kind:              e.Kind(),
		Permissions:       uint8(e.Permissions),
		PermissionNames:   acl.Names(e.Permissions),
		Preset:            preset,
		InheritToChildren: e.InheritToChildren,
	}
}
