package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kanbu/kanbu-acl/pkg/acl"
)

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// resourceFromPath reads {resourceType}/{resourceID}.
func resourceFromPath(r *http.Request) (acl.ResourceRef, error) {
	return acl.ParseResourceRef(chi.URLParam(r, "resourceType") + ":" + chi.URLParam(r, "resourceID"))
}

// principalFromPath reads {principalType}/{principalID}.
func principalFromPath(r *http.Request) (acl.PrincipalRef, error) {
	pt, err := acl.ParsePrincipalType(chi.URLParam(r, "principalType"))
	if err != nil {
		return acl.PrincipalRef{}, err
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "principalID"), 10, 64)
	if err != nil {
		return acl.PrincipalRef{}, acl.ErrInvalidID
	}
	p := acl.PrincipalRef{Type: pt, ID: id}
	if err := acl.ValidatePrincipal(p); err != nil {
		return acl.PrincipalRef{}, err
	}
	return p, nil
}
