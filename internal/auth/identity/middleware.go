package identity

import (
	"context"

	"github.com/gin-gonic/gin"

	"contacts_backend/platform/apperr"
	"contacts_backend/platform/httpkit"
)

// ContextPrincipalKey is the gin context key the authenticated principal is
// stored under.
const ContextPrincipalKey = "currentUser"

// Resolver turns a raw bearer token into a principal. Implemented by the
// auth service.
type Resolver interface {
	ResolveCurrentUser(ctx context.Context, rawToken string) (Principal, error)
}

// CurrentUser extracts the bearer token, resolves it to a principal and
// stores the principal on the request context. Requests without a valid
// token are rejected before the handler runs.
func CurrentUser(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := httpkit.BearerToken(c)
		if !ok {
			httpkit.HandleError(c, apperr.Unauthorized("could not validate credentials"))
			c.Abort()
			return
		}

		principal, err := resolver.ResolveCurrentUser(c.Request.Context(), rawToken)
		if err != nil {
			httpkit.HandleError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}

// RequireRoles gates the request on the already-resolved principal's role.
// It must run after CurrentUser.
func RequireRoles(gate *RoleGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := FromContext(c)
		if !ok {
			httpkit.HandleError(c, apperr.Unauthorized("could not validate credentials"))
			c.Abort()
			return
		}

		if _, err := gate.Check(principal); err != nil {
			httpkit.HandleError(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}

// FromContext returns the principal stored by CurrentUser.
func FromContext(c *gin.Context) (Principal, bool) {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return Principal{}, false
	}
	principal, ok := value.(Principal)
	return principal, ok
}
