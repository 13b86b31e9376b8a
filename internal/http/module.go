// Package http wires the gin engine and the contract every CRM module uses to
// mount its routes.
package http

import (
	"estate_crm_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module is a CRM area (contacts, deals, appointments, properties) that
// mounts its own endpoints.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the groups and auth pieces modules mount onto.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1 without authentication.
	V1 *gin.RouterGroup
	// Protected requires a bearer token; handlers can rely on a principal.
	Protected *gin.RouterGroup
	Config    config.JWTConfig
	// AuthMiddleware resolves the principal for groups created outside Protected.
	AuthMiddleware gin.HandlerFunc
}
