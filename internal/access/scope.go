package access

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Scoping names the columns an entity type carries. TenantColumn is empty for
// types that are only owned by a user (availability slots).
type Scoping struct {
	TenantColumn string
	OwnerColumn  string
}

type scopeKind int

const (
	scopeNone scopeKind = iota
	scopeAll
	scopeTenant
	scopeOwners
)

// Scope is the resolved visibility of a principal over one entity type.
// The zero value matches no rows.
type Scope struct {
	kind     scopeKind
	column   string
	tenantID uuid.UUID
	owners   []uuid.UUID
}

// AllRows matches every row.
func AllRows() Scope { return Scope{kind: scopeAll} }

// NoRows matches nothing.
func NoRows() Scope { return Scope{kind: scopeNone} }

// TenantRows matches rows whose tenant column equals tenantID.
func TenantRows(column string, tenantID uuid.UUID) Scope {
	return Scope{kind: scopeTenant, column: column, tenantID: tenantID}
}

// OwnedBy matches rows whose owner column is one of owners.
func OwnedBy(column string, owners ...uuid.UUID) Scope {
	return Scope{kind: scopeOwners, column: column, owners: slices.Clone(owners)}
}

// Unrestricted reports whether the scope matches every row.
func (s Scope) Unrestricted() bool { return s.kind == scopeAll }

// Where renders the scope as a SQL predicate. Placeholders start at argIndex.
func (s Scope) Where(argIndex int) (string, []any) {
	switch s.kind {
	case scopeAll:
		return "TRUE", nil
	case scopeTenant:
		return fmt.Sprintf("%s = $%d", s.column, argIndex), []any{s.tenantID}
	case scopeOwners:
		if len(s.owners) == 0 {
			return "FALSE", nil
		}
		if len(s.owners) == 1 {
			return fmt.Sprintf("%s = $%d", s.column, argIndex), []any{s.owners[0]}
		}
		return fmt.Sprintf("%s = ANY($%d)", s.column, argIndex), []any{s.owners}
	default:
		return "FALSE", nil
	}
}

// Allows evaluates the same predicate as Where against a record's tenant and
// owner. tenantID is ignored for types without a tenant column.
func (s Scope) Allows(tenantID, ownerID uuid.UUID) bool {
	switch s.kind {
	case scopeAll:
		return true
	case scopeTenant:
		return tenantID == s.tenantID
	case scopeOwners:
		return slices.Contains(s.owners, ownerID)
	default:
		return false
	}
}
