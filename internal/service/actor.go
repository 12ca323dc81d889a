package service

import "opensails/internal/model"

// Actor is the authenticated caller of a mutation.
type Actor struct {
	UserID uint
	Role   model.Role
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// Owns reports whether the actor may act on a resource owned by userID.
// Admins may act on anything.
func (a Actor) Owns(userID uint) bool {
	return a.IsAdmin() || (a.UserID != 0 && a.UserID == userID)
}
