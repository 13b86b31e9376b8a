package entity

import (
	"context"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// Lookup confirms that a record exists inside the principal's scope.
type Lookup interface {
	Exists(ctx context.Context, p *access.Principal, id uuid.UUID) error
}

// Exists implements Lookup with a scoped read.
func (r *Repository[T]) Exists(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	_, err := r.FindByID(ctx, p, id)
	return err
}

// CheckReference resolves a linked record through l before it is stored on
// another record. Missing and out-of-scope records look the same to the
// caller: both are an InvalidReference.
func CheckReference(ctx context.Context, l Lookup, p *access.Principal, id uuid.UUID, what string) error {
	if l == nil {
		return apperr.Internal(what + " lookup not configured")
	}
	err := l.Exists(ctx, p, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return apperr.InvalidReference(what + " not found").WithDetails(map[string]any{"id": id})
	}
	return err
}
