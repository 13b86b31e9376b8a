package access

import (
	"context"
	"fmt"
	"slices"

	"estate_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// AgentDirectory lists the active members of a tenant.
type AgentDirectory interface {
	MemberIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
}

// Resolver turns a principal into a Scope for a given entity type.
type Resolver struct {
	dir AgentDirectory
}

// NewResolver creates a Resolver. dir is only consulted for tenant admins on
// entity types without a tenant column.
func NewResolver(dir AgentDirectory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the visibility scope of p over rows described by scoping.
// A missing principal fails before any lookup; an unknown role yields a scope
// that matches nothing.
func (r *Resolver) Resolve(ctx context.Context, p *Principal, scoping Scoping) (Scope, error) {
	if p == nil || p.ID == uuid.Nil {
		return NoRows(), apperr.Unauthorized("Unauthenticated")
	}

	switch p.Role {
	case RoleSuperAdmin:
		return AllRows(), nil

	case RoleTenantAdmin, RoleSystem:
		if p.TenantID == uuid.Nil {
			return NoRows(), nil
		}
		if scoping.TenantColumn != "" {
			return TenantRows(scoping.TenantColumn, p.TenantID), nil
		}
		if r.dir == nil {
			return NoRows(), apperr.Internal("agent directory not configured")
		}
		members, err := r.dir.MemberIDs(ctx, p.TenantID)
		if err != nil {
			return NoRows(), fmt.Errorf("resolve tenant members: %w", err)
		}
		return OwnedBy(scoping.OwnerColumn, members...), nil

	case RoleAgent:
		return OwnedBy(scoping.OwnerColumn, p.ID), nil

	default:
		return NoRows(), nil
	}
}

// CheckOwner verifies that ownerID may own a record of tenantID written by p.
// Owners must be active members of the record's tenant; a principal assigning
// a record of its own tenant to itself needs no lookup.
func (r *Resolver) CheckOwner(ctx context.Context, p *Principal, tenantID, ownerID uuid.UUID) error {
	if p == nil || p.ID == uuid.Nil {
		return apperr.Unauthorized("Unauthenticated")
	}
	if ownerID == p.ID && tenantID == p.TenantID {
		return nil
	}
	if r.dir == nil {
		return apperr.Internal("agent directory not configured")
	}
	members, err := r.dir.MemberIDs(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("resolve tenant members: %w", err)
	}
	if !slices.Contains(members, ownerID) {
		return apperr.Forbidden("owner is not a member of the record's tenant").
			WithDetails(map[string]any{"ownerId": ownerID})
	}
	return nil
}
