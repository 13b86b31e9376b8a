package repository

import (
	"context"
	"fmt"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/contacts/domain"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/platform/db"

	"github.com/google/uuid"
)

// EntityType names contact events and audit entries.
const EntityType = "contacts"

// Table maps contacts onto the contacts table.
var Table = entity.Table[domain.Contact]{
	Name:       "contacts",
	EntityType: EntityType,
	Scoping:    access.Scoping{TenantColumn: "tenant_id", OwnerColumn: "owner_id"},
	Columns: []string{
		"first_name", "last_name", "email", "phone", "category", "status", "lead_stage",
		"lead_score", "is_qualified", "budget", "interaction_count", "last_interaction_at",
	},
	New: func() *domain.Contact { return &domain.Contact{} },
	Fields: func(c *domain.Contact) []any {
		return []any{
			&c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Category, &c.Status, &c.LeadStage,
			&c.LeadScore, &c.IsQualified, &c.Budget, &c.InteractionCount, &c.LastInteractionAt,
		}
	},
	Values: func(c *domain.Contact) []any {
		return []any{
			c.FirstName, c.LastName, c.Email, c.Phone, c.Category, c.Status, c.LeadStage,
			c.LeadScore, c.IsQualified, c.Budget, c.InteractionCount, c.LastInteractionAt,
		}
	},
	Sortable: map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"lastName":  "last_name",
		"leadScore": "lead_score",
	},
	Filterable: []string{"category", "status", "lead_stage", "is_qualified", "lead_score", "email"},
	ContactOf:  func(c *domain.Contact) *uuid.UUID { id := c.ID; return &id },
}

// Signal counts only include rows of the contact's own tenant.
const (
	countActiveDealsQuery = `
SELECT COUNT(*)
FROM deals d
JOIN contacts c ON c.id = d.client_id AND c.tenant_id = d.tenant_id
WHERE d.client_id = $1 AND d.status = 'open'`
	countAppointmentsQuery = `
SELECT COUNT(*)
FROM appointments a
JOIN contacts c ON c.id = a.contact_id AND c.tenant_id = a.tenant_id
WHERE a.contact_id = $1`
)

// Repository is the scoped contacts repository plus the scoring signal queries.
type Repository struct {
	*entity.Repository[domain.Contact]
	q db.Querier
}

// New creates a contacts repository.
func New(q db.Querier, tx db.TxRunner, deps entity.Deps) *Repository {
	return &Repository{Repository: entity.New(q, tx, Table, deps), q: q}
}

// CountActiveDeals counts open deals where the contact is the client.
func (r *Repository) CountActiveDeals(ctx context.Context, contactID uuid.UUID) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, countActiveDealsQuery, contactID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active deals: %w", err)
	}
	return n, nil
}

// CountAppointments counts appointments with the contact.
func (r *Repository) CountAppointments(ctx context.Context, contactID uuid.UUID) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, countAppointmentsQuery, contactID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count appointments: %w", err)
	}
	return n, nil
}
