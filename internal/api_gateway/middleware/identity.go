package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// PrincipalIDHeader carries the authenticated caller's identifier.
	// Authentication itself happens upstream; the gateway trusts the
	// header as set by the edge proxy.
	PrincipalIDHeader = "X-Principal-ID"

	// PrincipalRoleHeader carries the caller's role.
	PrincipalRoleHeader = "X-Principal-Role"

	// RoleAdmin marks back-office callers who may read any account.
	RoleAdmin = "admin"

	principalIDKey   = "principal_id"
	principalRoleKey = "principal_role"
)

// Identity middleware requires a principal ID on every request and stores
// it in the context for handlers.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		principalID := c.GetHeader(PrincipalIDHeader)
		if principalID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Missing " + PrincipalIDHeader + " header",
				},
			})
			return
		}

		c.Set(principalIDKey, principalID)
		c.Set(principalRoleKey, c.GetHeader(PrincipalRoleHeader))

		c.Next()
	}
}

// RequireAdmin middleware rejects callers without the admin role. Must
// run after Identity.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetPrincipalRole(c) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Admin role required",
				},
			})
			return
		}

		c.Next()
	}
}

// GetPrincipalID retrieves the authenticated principal from the gin context
func GetPrincipalID(c *gin.Context) string {
	if id, exists := c.Get(principalIDKey); exists {
		if principalID, ok := id.(string); ok {
			return principalID
		}
	}
	return ""
}

// GetPrincipalRole retrieves the caller's role from the gin context
func GetPrincipalRole(c *gin.Context) string {
	if role, exists := c.Get(principalRoleKey); exists {
		if principalRole, ok := role.(string); ok {
			return principalRole
		}
	}
	return ""
}

// IsAdmin reports whether the caller holds the admin role
func IsAdmin(c *gin.Context) bool {
	return GetPrincipalRole(c) == RoleAdmin
}
