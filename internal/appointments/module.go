// Package appointments provides the appointment scheduling bounded context.
package appointments

import (
	"estate_crm_backend/internal/appointments/handler"
	"estate_crm_backend/internal/appointments/repository"
	"estate_crm_backend/internal/appointments/service"
	"estate_crm_backend/internal/entity"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/validator"
)

// Module represents the appointments domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the scheduler. Optional collaborators (booking guard,
// external calendar, sync queue, activity log) travel in opts.
func NewModule(q db.Querier, tx db.TxRunner, deps entity.Deps, val *validator.Validator, opts service.Options) *Module {
	repo := repository.New(q, tx, deps)
	svc := service.New(repo, tx, deps.Bus, deps.Log, deps.Metrics, opts)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "appointments"
}

// Service returns the scheduler for the calendar sync worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts /appointments and /slots on the protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/appointments"))
	m.handler.RegisterSlotRoutes(ctx.Protected.Group("/slots"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
