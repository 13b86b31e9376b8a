// Package access resolves which records the acting principal may see.
// Every repository in the CRM filters through a Scope produced here.
package access

import (
	"context"

	"github.com/google/uuid"
)

// Role is the principal's role. The set is closed.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleTenantAdmin Role = "tenant_admin"
	RoleAgent       Role = "agent"

	// RoleSystem is assigned in process only, by SystemPrincipal. It is not a
	// Valid role, so tokens and task payloads cannot carry it.
	RoleSystem Role = "system"
)

// Valid reports whether r is one of the roles a user can hold.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleTenantAdmin, RoleAgent:
		return true
	}
	return false
}

// Principal is the authenticated actor of an operation. It is supplied per
// call and never persisted by the core.
type Principal struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Role     Role
}

// SystemPrincipal is the actor of in-process reactions to another user's
// action, such as lead score changes after a deal moves. It sees the whole
// tenant; ID stays the triggering user so activity entries name who caused it.
func SystemPrincipal(tenantID, triggeredBy uuid.UUID) *Principal {
	return &Principal{ID: triggeredBy, TenantID: tenantID, Role: RoleSystem}
}

// IsSystem reports whether p acts for the system rather than a signed-in user.
func (p *Principal) IsSystem() bool { return p != nil && p.Role == RoleSystem }

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
