// Package identity defines the authenticated principal, the role model and
// the request middleware that resolves and authorizes principals.
package identity

import (
	"fmt"
)

// Role is the authorization role assigned to a user.
type Role string

const (
	// RoleAdmin grants access to administrative operations.
	RoleAdmin Role = "admin"
	// RoleUser is the default role for registered users.
	RoleUser Role = "user"
)

// ParseRole maps a stored role string onto a known Role value.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", fmt.Errorf("unknown role %q", value)
}

// Principal is the resolved authenticated user shared with other domains.
// It is a transient, possibly-stale copy of the directory record; the
// repository exclusively owns the persisted state.
type Principal struct {
	ID        int64
	Email     string
	Verified  bool
	AvatarURL *string
	Role      Role
}
