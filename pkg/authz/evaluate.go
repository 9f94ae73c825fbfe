package authz

import "github.com/kanbu/kanbu-acl/pkg/acl"

// Decision is the aggregate of every entry applying to a user on a resource.
type Decision struct {
	// Allowed is the union of all applicable grants.
	Allowed acl.Permission `json:"allowed"`

	// Denied is the union of all applicable denies.
	Denied acl.Permission `json:"denied"`
}

// Effective returns the allowed bits not covered by any deny.
func (d Decision) Effective() acl.Permission {
	return d.Allowed &^ d.Denied
}

// Permits reports whether every bit of required survives the denies.
// An empty required mask is always permitted.
func (d Decision) Permits(required acl.Permission) bool {
	return d.Effective().Has(required)
}

// Aggregate folds direct entries (grants and denies on the resource itself)
// and inherited entries (grants on the parent) into a Decision.
//
// Grants are additive and denies beat grants bit by bit. Inherited entries
// only contribute when they are grants flagged InheritToChildren; parent
// denies stay on the parent.
func Aggregate(direct, inherited []acl.Entry) Decision {
	var d Decision
	for i := range direct {
		e := &direct[i]
		if e.IsDeny {
			d.Denied |= e.Permissions
		} else {
			d.Allowed |= e.Permissions
		}
	}
	for i := range inherited {
		e := &inherited[i]
		if e.IsDeny || !e.InheritToChildren {
			continue
		}
		d.Allowed |= e.Permissions
	}
	return d
}
