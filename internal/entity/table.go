package entity

import (
	"strings"

	"estate_crm_backend/internal/access"

	"github.com/google/uuid"
)

// Table describes how a record type maps onto its table.
type Table[T any] struct {
	// Name is the SQL table name.
	Name string
	// EntityType prefixes events and audit entries ("contacts.created").
	EntityType string
	Scoping    access.Scoping
	// Columns are the data columns after the meta columns, in Fields/Values order.
	Columns []string
	// New allocates an empty record for scanning.
	New func() *T
	// Fields returns scan destinations for Columns.
	Fields func(*T) []any
	// Values returns insert/update values for Columns.
	Values func(*T) []any
	// Sortable maps API sort keys to columns.
	Sortable map[string]string
	// Filterable lists the columns callers may filter on.
	Filterable []string
	// ContactOf optionally links audit entries to a contact.
	ContactOf func(*T) *uuid.UUID
}

func (t *Table[T]) metaColumns() []string {
	cols := []string{"id"}
	if t.Scoping.TenantColumn != "" {
		cols = append(cols, t.Scoping.TenantColumn)
	}
	return append(cols, t.Scoping.OwnerColumn, "created_at", "updated_at", "version")
}

func (t *Table[T]) allColumns() []string {
	return append(t.metaColumns(), t.Columns...)
}

func (t *Table[T]) selectList() string {
	return strings.Join(t.allColumns(), ", ")
}

func (t *Table[T]) metaFields(m *Meta) []any {
	fields := []any{&m.ID}
	if t.Scoping.TenantColumn != "" {
		fields = append(fields, &m.TenantID)
	}
	return append(fields, &m.OwnerID, &m.CreatedAt, &m.UpdatedAt, &m.Version)
}

func (t *Table[T]) metaValues(m *Meta) []any {
	values := []any{m.ID}
	if t.Scoping.TenantColumn != "" {
		values = append(values, m.TenantID)
	}
	return append(values, m.OwnerID, m.CreatedAt, m.UpdatedAt, m.Version)
}

func (t *Table[T]) filterable(column string) bool {
	for _, c := range t.Filterable {
		if c == column {
			return true
		}
	}
	return column == "id" || column == t.Scoping.OwnerColumn ||
		(t.Scoping.TenantColumn != "" && column == t.Scoping.TenantColumn)
}
