// Package deals provides the deal pipeline bounded context module.
package deals

import (
	"estate_crm_backend/internal/deals/handler"
	"estate_crm_backend/internal/deals/repository"
	"estate_crm_backend/internal/deals/service"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/internal/events"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/metrics"
	"estate_crm_backend/platform/validator"
)

// Module is the deals bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the deals repository, pipeline service and handler. refs
// resolves the clients and properties deals link to.
func NewModule(q db.Querier, tx db.TxRunner, deps entity.Deps, refs service.References, bus events.Bus, val *validator.Validator, log *logger.Logger, m *metrics.Metrics) *Module {
	repo := repository.New(q, tx, deps)
	svc := service.New(repo, refs, tx, bus, log, m)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "deals"
}

// Service returns the pipeline service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts deal routes on the protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/deals"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
