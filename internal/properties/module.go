// Package properties provides the property listings module.
package properties

import (
	"estate_crm_backend/internal/entity"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/internal/properties/handler"
	"estate_crm_backend/internal/properties/repository"
	"estate_crm_backend/internal/properties/service"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/validator"
)

// Module is the properties bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	lookup  entity.Lookup
}

// NewModule wires the properties repository, service and handler.
func NewModule(q db.Querier, tx db.TxRunner, deps entity.Deps, val *validator.Validator) *Module {
	repo := repository.New(q, tx, deps)
	return &Module{handler: handler.New(service.New(repo), val), lookup: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "properties"
}

// Lookup resolves properties in the caller's scope.
func (m *Module) Lookup() entity.Lookup {
	return m.lookup
}

// RegisterRoutes mounts property routes on the protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/properties"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
