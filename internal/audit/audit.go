// Package audit appends activity entries to the activity_log table.
// Entries are never updated or deleted.
package audit

import (
	"context"
	"fmt"
	"time"

	"estate_crm_backend/platform/db"

	"github.com/google/uuid"
)

// Entry is one activity log row.
type Entry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Type       string
	EntityType string
	EntityID   uuid.UUID
	ActorID    uuid.UUID
	ContactID  *uuid.UUID
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Writer records activity entries.
type Writer interface {
	Record(ctx context.Context, entry Entry) error
}

// Reader lists activity entries.
type Reader interface {
	ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]Entry, error)
	ListForContact(ctx context.Context, contactID uuid.UUID, limit int) ([]Entry, error)
}

const insertEntryQuery = `
INSERT INTO activity_log (id, tenant_id, type, entity_type, entity_id, actor_id, contact_id, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const selectEntryColumns = `id, tenant_id, type, entity_type, entity_id, actor_id, contact_id, metadata, created_at`

// Repository stores entries in Postgres.
type Repository struct {
	q   db.Querier
	now func() time.Time
}

// New creates an audit repository.
func New(q db.Querier) *Repository {
	return &Repository{q: q, now: time.Now}
}

// Record implements Writer.
func (r *Repository) Record(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}

	_, err := r.q.Exec(ctx, insertEntryQuery,
		entry.ID, entry.TenantID, entry.Type, entry.EntityType, entry.EntityID,
		entry.ActorID, entry.ContactID, entry.Metadata, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity %s: %w", entry.Type, err)
	}
	return nil
}

// ListForEntity returns the newest entries of one entity.
func (r *Repository) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]Entry, error) {
	query := `SELECT ` + selectEntryColumns + ` FROM activity_log
		WHERE entity_type = $1 AND entity_id = $2 ORDER BY created_at DESC LIMIT $3`
	return r.list(ctx, query, entityType, entityID, clampLimit(limit))
}

// ListForContact returns the newest entries that concern a contact, across entity types.
func (r *Repository) ListForContact(ctx context.Context, contactID uuid.UUID, limit int) ([]Entry, error) {
	query := `SELECT ` + selectEntryColumns + ` FROM activity_log
		WHERE contact_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, contactID, clampLimit(limit))
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Type, &e.EntityType, &e.EntityID,
			&e.ActorID, &e.ContactID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
