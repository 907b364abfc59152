package auth

import (
	"errors"
	"slices"
)

// ErrForbidden marks an authorization failure: the caller lacks the role or
// ownership the operation requires and cannot self-correct.
var ErrForbidden = errors.New("forbidden")

// Role names as stored in the roles lookup. SuperAdmin is id 1 and is always
// excluded from role searches.
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleBusiness   = "business"
	RoleCustomer   = "customer"
)

// Actor is the authenticated caller, threaded explicitly through every core
// operation. A zero Actor (UserID == 0) means unauthenticated.
type Actor struct {
	UserID int64
	Roles  []string
}

func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// IsStaff reports whether the actor holds any role beyond customer. Listing
// scopes and the property_status filter are only honored for staff.
func (a Actor) IsStaff() bool {
	for _, r := range a.Roles {
		if r != RoleCustomer {
			return true
		}
	}
	return false
}
