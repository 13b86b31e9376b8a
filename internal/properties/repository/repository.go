package repository

import (
	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/internal/properties/domain"
	"estate_crm_backend/platform/db"
)

// EntityType names property events and audit entries.
const EntityType = "properties"

// Table maps listings onto the properties table.
var Table = entity.Table[domain.Property]{
	Name:       "properties",
	EntityType: EntityType,
	Scoping:    access.Scoping{TenantColumn: "tenant_id", OwnerColumn: "owner_id"},
	Columns:    []string{"title", "address", "city", "postal_code", "price", "status"},
	New:        func() *domain.Property { return &domain.Property{} },
	Fields: func(p *domain.Property) []any {
		return []any{&p.Title, &p.Address, &p.City, &p.PostalCode, &p.Price, &p.Status}
	},
	Values: func(p *domain.Property) []any {
		return []any{p.Title, p.Address, p.City, p.PostalCode, p.Price, p.Status}
	},
	Sortable: map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"price":     "price",
		"city":      "city",
		"title":     "title",
	},
	Filterable: []string{"status", "city", "postal_code", "price"},
}

// New creates the scoped properties repository.
func New(q db.Querier, tx db.TxRunner, deps entity.Deps) *entity.Repository[domain.Property] {
	return entity.New(q, tx, Table, deps)
}
