// Package contacts provides the contact and lead scoring bounded context module.
package contacts

import (
	"estate_crm_backend/internal/contacts/handler"
	"estate_crm_backend/internal/contacts/repository"
	"estate_crm_backend/internal/contacts/scoring"
	"estate_crm_backend/internal/contacts/service"
	"estate_crm_backend/internal/entity"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/phone"
	"estate_crm_backend/platform/validator"
)

// Module is the contacts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	scoring *scoring.Service
	lookup  entity.Lookup
}

// NewModule wires the contacts repository, services and handler. The scoring
// engine shares the repository so score writes go through the same scope.
func NewModule(q db.Querier, tx db.TxRunner, deps entity.Deps, normalizer phone.Normalizer, val *validator.Validator) *Module {
	repo := repository.New(q, tx, deps)
	svc := service.New(repo, normalizer)
	scoringSvc := scoring.New(repo, repo, deps.Audit, deps.Bus, deps.Log, deps.Metrics)

	return &Module{
		handler: handler.New(svc, scoringSvc, val),
		service: svc,
		scoring: scoringSvc,
		lookup:  repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contacts"
}

// Service returns the contact service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Scoring returns the lead scoring engine for external use.
func (m *Module) Scoring() *scoring.Service {
	return m.scoring
}

// Lookup resolves contacts in the caller's scope for modules that link to them.
func (m *Module) Lookup() entity.Lookup {
	return m.lookup
}

// RegisterRoutes mounts contact routes on the protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/contacts"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
