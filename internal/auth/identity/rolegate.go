package identity

import (
	"fmt"

	"contacts_backend/platform/apperr"
)

// RoleGate authorizes principals against a fixed allow-list of roles.
// Construct one per protected route group and reuse it; it is immutable.
type RoleGate struct {
	allowed map[Role]struct{}
}

func NewRoleGate(roles ...Role) *RoleGate {
	allowed := make(map[Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return &RoleGate{allowed: allowed}
}

// Check returns the principal unchanged when its role is in the allow-list.
// A role outside the known set is rejected before the membership test so a
// corrupted record never slips through on a lucky string match.
func (g *RoleGate) Check(principal Principal) (Principal, error) {
	role, err := ParseRole(string(principal.Role))
	if err != nil {
		return Principal{}, apperr.Forbidden("invalid user role")
	}

	if _, ok := g.allowed[role]; !ok {
		return Principal{}, apperr.Forbidden(fmt.Sprintf("access denied: role %s not in allowed set", role))
	}

	return principal, nil
}
