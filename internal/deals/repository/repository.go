package repository

import (
	"context"
	"fmt"
	"time"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/deals/domain"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/platform/db"

	"github.com/google/uuid"
)

// EntityType names deal events and audit entries.
const EntityType = "deals"

// Table maps deals onto the deals table.
var Table = entity.Table[domain.Deal]{
	Name:       "deals",
	EntityType: EntityType,
	Scoping:    access.Scoping{TenantColumn: "tenant_id", OwnerColumn: "owner_id"},
	Columns: []string{
		"title", "value", "stage", "status", "client_id", "property_id", "expected_close_date", "closed_at",
	},
	New: func() *domain.Deal { return &domain.Deal{} },
	Fields: func(d *domain.Deal) []any {
		return []any{&d.Title, &d.Value, &d.Stage, &d.Status, &d.ClientID, &d.PropertyID, &d.ExpectedCloseDate, &d.ClosedAt}
	},
	Values: func(d *domain.Deal) []any {
		return []any{d.Title, d.Value, d.Stage, d.Status, d.ClientID, d.PropertyID, d.ExpectedCloseDate, d.ClosedAt}
	},
	Sortable: map[string]string{
		"createdAt":         "created_at",
		"value":             "value",
		"stage":             "stage",
		"expectedCloseDate": "expected_close_date",
	},
	Filterable: []string{"stage", "status", "client_id", "property_id", "value", "closed_at"},
	ContactOf:  func(d *domain.Deal) *uuid.UUID { id := d.ClientID; return &id },
}

const (
	insertHistoryQuery = `
INSERT INTO deal_stage_history (id, deal_id, from_stage, to_stage, changed_at, changed_by, days_in_stage, reason)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	lastTransitionQuery = `
SELECT changed_at FROM deal_stage_history
WHERE deal_id = $1
ORDER BY changed_at DESC
LIMIT 1`

	stageEnteredQuery = `
SELECT deal_id, MAX(changed_at) FROM deal_stage_history
WHERE deal_id = ANY($1)
GROUP BY deal_id`

	listHistoryQuery = `
SELECT id, deal_id, from_stage, to_stage, changed_at, changed_by, days_in_stage, reason
FROM deal_stage_history
WHERE deal_id = $1
ORDER BY changed_at ASC`
)

// Store is the deal persistence used by the pipeline service.
type Store interface {
	FindAll(ctx context.Context, p *access.Principal, params entity.ListParams) (entity.ListResult[domain.Deal], error)
	FindByID(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Deal, error)
	Create(ctx context.Context, p *access.Principal, d *domain.Deal) error
	Update(ctx context.Context, p *access.Principal, id uuid.UUID, mutate func(*domain.Deal) error) (*domain.Deal, error)
	Save(ctx context.Context, p *access.Principal, d *domain.Deal) error
	Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error
	Notify(ctx context.Context, p *access.Principal, action string, d *domain.Deal)

	AppendHistory(ctx context.Context, h domain.StageHistory) error
	LastTransitionAt(ctx context.Context, dealID uuid.UUID) (*time.Time, error)
	StageEnteredAt(ctx context.Context, dealIDs []uuid.UUID) (map[uuid.UUID]time.Time, error)
	History(ctx context.Context, dealID uuid.UUID) ([]domain.StageHistory, error)

	WithQuerier(q db.Querier) Store
}

// Repository is the scoped deals repository plus stage history.
type Repository struct {
	*entity.Repository[domain.Deal]
	q db.Querier
}

// New creates a deals repository.
func New(q db.Querier, tx db.TxRunner, deps entity.Deps) *Repository {
	return &Repository{Repository: entity.New(q, tx, Table, deps), q: q}
}

// WithQuerier binds the repository to a transaction.
func (r *Repository) WithQuerier(q db.Querier) Store {
	return &Repository{Repository: r.Repository.WithQuerier(q), q: q}
}

// AppendHistory inserts one transition record.
func (r *Repository) AppendHistory(ctx context.Context, h domain.StageHistory) error {
	_, err := r.q.Exec(ctx, insertHistoryQuery,
		h.ID, h.DealID, h.FromStage, h.ToStage, h.ChangedAt, h.ChangedBy, h.DaysInStage, h.Reason)
	if err != nil {
		return db.MapError(err, "deal stage history")
	}
	return nil
}

// LastTransitionAt returns when the deal last changed stage, or nil if never.
func (r *Repository) LastTransitionAt(ctx context.Context, dealID uuid.UUID) (*time.Time, error) {
	rows, err := r.q.Query(ctx, lastTransitionQuery, dealID)
	if err != nil {
		return nil, fmt.Errorf("last transition: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var at time.Time
	if err := rows.Scan(&at); err != nil {
		return nil, fmt.Errorf("scan last transition: %w", err)
	}
	return &at, nil
}

// StageEnteredAt returns the latest transition time per deal.
func (r *Repository) StageEnteredAt(ctx context.Context, dealIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	out := make(map[uuid.UUID]time.Time, len(dealIDs))
	if len(dealIDs) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, stageEnteredQuery, dealIDs)
	if err != nil {
		return nil, fmt.Errorf("stage entered: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("scan stage entered: %w", err)
		}
		out[id] = at
	}
	return out, rows.Err()
}

// History lists a deal's transitions oldest first.
func (r *Repository) History(ctx context.Context, dealID uuid.UUID) ([]domain.StageHistory, error) {
	rows, err := r.q.Query(ctx, listHistoryQuery, dealID)
	if err != nil {
		return nil, fmt.Errorf("list stage history: %w", err)
	}
	defer rows.Close()

	items := make([]domain.StageHistory, 0)
	for rows.Next() {
		var h domain.StageHistory
		if err := rows.Scan(&h.ID, &h.DealID, &h.FromStage, &h.ToStage, &h.ChangedAt, &h.ChangedBy, &h.DaysInStage, &h.Reason); err != nil {
			return nil, fmt.Errorf("scan stage history: %w", err)
		}
		items = append(items, h)
	}
	return items, rows.Err()
}
