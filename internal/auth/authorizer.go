// Package auth decides what an authenticated operator may do.  Decisions
// are made from the role carried in the access token, never from an e-mail
// address.
package auth

import "github.com/iliyamo/seatplan/internal/model"

// Action is a capability checked before a handler runs.
type Action string

const (
	ActionView         Action = "view"
	ActionCheckIn      Action = "check_in"
	ActionAssignSeats  Action = "assign_seats"
	ActionManageGuests Action = "manage_guests"
	ActionManageTables Action = "manage_tables"
	ActionDestructive  Action = "destructive"
	ActionManageUsers  Action = "manage_users"
)

// Principal is the caller as established by the JWT middleware.
type Principal struct {
	UserID uint64
	Role   string
}

// Authorizer answers whether a principal may perform an action.
type Authorizer interface {
	CanPerform(p Principal, a Action) bool
}

// RoleAuthorizer grants actions per role.  Unknown roles get nothing.
type RoleAuthorizer struct {
	grants map[string]map[Action]bool
}

// NewRoleAuthorizer returns the default policy: ADMIN may do everything,
// STAFF may view, check guests in and seat them.
func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{grants: map[string]map[Action]bool{
		model.RoleAdmin: {
			ActionView: true, ActionCheckIn: true, ActionAssignSeats: true,
			ActionManageGuests: true, ActionManageTables: true,
			ActionDestructive: true, ActionManageUsers: true,
		},
		model.RoleStaff: {
			ActionView: true, ActionCheckIn: true, ActionAssignSeats: true,
		},
	}}
}

func (r *RoleAuthorizer) CanPerform(p Principal, a Action) bool {
	if p.UserID == 0 {
		return false
	}
	return r.grants[p.Role][a]
}

// ValidRole reports whether role is one the policy knows.
func (r *RoleAuthorizer) ValidRole(role string) bool {
	_, ok := r.grants[role]
	return ok
}
