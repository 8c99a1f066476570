package middleware

import (
	"net/http"
	"strings"

	"github.com/Goro-naka/koepon-sub001/internal/security"
	"github.com/Goro-naka/koepon-sub001/pkg/errors"
	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	ContextUserID = "auth_user_id"
	ContextRole   = "auth_role"
)

// RequireAuth validates the bearer token and places the authenticated
// identity on the request context. The core trusts this identity and
// performs no further credential checks.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortWithCode(c, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "missing bearer token")
			return
		}

		claims, err := security.ValidateJWT(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			abortWithCode(c, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "invalid token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireAdmin allows only requests whose auth context carries the admin
// role. Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != security.RoleAdmin {
			abortWithCode(c, http.StatusForbidden, errors.ErrCodeForbidden, "admin role required")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id from the context.
func UserID(c *gin.Context) uint {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func abortWithCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"code": code, "message": message},
	})
}
