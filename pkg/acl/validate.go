package acl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidPermission is returned for masks with undefined bits and
	// for unparseable permission strings.
	ErrInvalidPermission = errors.New("invalid permission")

	// ErrInvalidResourceType is returned for resource types outside the
	// closed enumeration.
	ErrInvalidResourceType = errors.New("invalid resource type")

	// ErrInvalidPrincipalType is returned for principal types outside the
	// closed enumeration.
	ErrInvalidPrincipalType = errors.New("invalid principal type")

	// ErrInvalidID is returned for non-positive resource or principal IDs.
	ErrInvalidID = errors.New("invalid id")

	// ErrEntryNotFound is returned by strict revocation when the pair has
	// no entries.
	ErrEntryNotFound = errors.New("acl entry not found")
)

// IsValidationError reports whether err is one of the validation errors
// above (as opposed to a not-found or a store failure).
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidPermission) ||
		errors.Is(err, ErrInvalidResourceType) ||
		errors.Is(err, ErrInvalidPrincipalType) ||
		errors.Is(err, ErrInvalidID)
}

// Validate rejects masks that carry undefined bits.
func Validate(p Permission) error {
	if !p.Valid() {
		return fmt.Errorf("%w: undefined bits 0x%02x", ErrInvalidPermission, uint8(p&^AllPermissions))
	}
	return nil
}

// ValidateResource checks the resource type and ID.
func ValidateResource(r ResourceRef) error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidResourceType, r.Type)
	}
	if r.ID <= 0 {
		return fmt.Errorf("%w: resource id %d", ErrInvalidID, r.ID)
	}
	return nil
}

// ValidatePrincipal checks the principal type and ID.
func ValidatePrincipal(p PrincipalRef) error {
	if !p.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPrincipalType, p.Type)
	}
	if p.ID <= 0 {
		return fmt.Errorf("%w: principal id %d", ErrInvalidID, p.ID)
	}
	return nil
}

// ParseResourceType converts s to a ResourceType.
func ParseResourceType(s string) (ResourceType, error) {
	t := ResourceType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidResourceType, s)
	}
	return t, nil
}

// ParsePrincipalType converts s to a PrincipalType.
func ParsePrincipalType(s string) (PrincipalType, error) {
	t := PrincipalType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPrincipalType, s)
	}
	return t, nil
}

// ParseResourceRef parses "workspace:12" or "project:7".
func ParseResourceRef(s string) (ResourceRef, error) {
	typ, id, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ResourceRef{}, fmt.Errorf("%w: expected <type>:<id>, got %q", ErrInvalidResourceType, s)
	}
	rt, err := ParseResourceType(strings.ToLower(typ))
	if err != nil {
		return ResourceRef{}, err
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ResourceRef{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	ref := ResourceRef{Type: rt, ID: n}
	if err := ValidateResource(ref); err != nil {
		return ResourceRef{}, err
	}
	return ref, nil
}
