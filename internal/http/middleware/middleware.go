// Package middleware turns the token identity into the access principal the
// CRM services expect.
package middleware

import (
	"net/http"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const contextPrincipalKey = "principal"

// Principal resolves the authenticated identity into an access.Principal and
// stores it on both the gin context and the request context. It must run
// after httpkit.AuthRequired.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpkit.MustGetIdentity(c)
		if id == nil {
			return
		}
		role := access.Role(id.Role())
		if role == access.RoleSystem {
			c.AbortWithStatusJSON(http.StatusForbidden, httpkit.ErrorResponse{Error: "role not allowed"})
			return
		}
		p := &access.Principal{ID: id.UserID(), TenantID: id.TenantID(), Role: role}
		c.Set(contextPrincipalKey, p)
		c.Request = c.Request.WithContext(access.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// MustGetPrincipal returns the principal set by Principal. If it is missing
// the request is aborted with 401 and nil is returned.
func MustGetPrincipal(c *gin.Context) *access.Principal {
	if v, ok := c.Get(contextPrincipalKey); ok {
		if p, ok := v.(*access.Principal); ok && p != nil {
			return p
		}
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, httpkit.ErrorResponse{Error: "unauthenticated"})
	return nil
}
