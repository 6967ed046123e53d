package server

import (
	"github.com/gin-gonic/gin"
	"github.com/xtreino/platform/internal/identity"
	userdomain "github.com/xtreino/platform/internal/user/domain"
)

const (
	HeaderUserEmail = "X-User-Email"
	HeaderUserUID   = "X-User-UID"
	HeaderUserRole  = "X-User-Role"
)

// IdentityFromHeaders trusts the identity headers the auth proxy sets after
// validating the caller's session token. Requests arriving without them are
// treated as anonymous; route guards decide whether that is acceptable.
func (s *Server) IdentityFromHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identity.Identity{
			UID:   c.GetHeader(HeaderUserUID),
			Email: c.GetHeader(HeaderUserEmail),
			Role:  c.GetHeader(HeaderUserRole),
		}
		if !id.IsZero() {
			c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), id))
		}
		c.Next()
	}
}

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := identity.FromContext(c.Request.Context()); !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func (s *Server) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity.FromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		role := id.Role
		if role == "" {
			role = userdomain.RoleUser
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}

// CORSOpen allows any origin. Applied only to the payment endpoints the
// gateway and the static checkout page call cross-origin.
func CORSOpen() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Next()
	}
}
