package models

import "github.com/google/uuid"

// Role is a claim carried on a verified credential, never persisted
// beyond the lifetime of a request.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
	RoleOwner     Role = "OWNER"
)

// UserRef is the re-derived identity of the caller for the current
// request. It is never stored; it is reconstructed from verified
// credential claims on every call into a core component.
type UserRef struct {
	UserID      uuid.UUID
	DisplayName string
	Roles       []Role
}

// HasRole reports whether the ref carries the given role.
func (u UserRef) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}
