package entity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/audit"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/events"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ScopeResolver resolves a principal's visibility scope and vets owners
// assigned to tenant records.
type ScopeResolver interface {
	Resolve(ctx context.Context, p *access.Principal, scoping access.Scoping) (access.Scope, error)
	CheckOwner(ctx context.Context, p *access.Principal, tenantID, ownerID uuid.UUID) error
}

// Deps are the collaborators shared by every entity repository.
type Deps struct {
	Resolver ScopeResolver
	Bus      events.Bus
	Audit    audit.Writer
	Log      *logger.Logger
	Metrics  *metrics.Metrics
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Repository is the generic scoped CRUD repository. T must embed Meta.
type Repository[T any] struct {
	table Table[T]
	q     db.Querier
	tx    db.TxRunner
	deps  Deps
	// bound is set on copies returned by WithQuerier; they skip events and audit.
	bound bool
}

// New creates a repository for table. tx may be nil when CreateMany is never used.
func New[T any](q db.Querier, tx db.TxRunner, table Table[T], deps Deps) *Repository[T] {
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Repository[T]{table: table, q: q, tx: tx, deps: deps}
}

// WithQuerier returns a copy that runs its statements on q, typically a
// transaction. The copy does not publish events or write audit entries; the
// caller emits them with Notify once the transaction has committed.
func (r *Repository[T]) WithQuerier(q db.Querier) *Repository[T] {
	cp := *r
	cp.q = q
	cp.bound = true
	return &cp
}

// Table returns the table descriptor.
func (r *Repository[T]) Table() Table[T] { return r.table }

// Scope resolves the principal's scope for this entity type.
func (r *Repository[T]) Scope(ctx context.Context, p *access.Principal) (access.Scope, error) {
	if r.deps.Resolver == nil {
		return access.NoRows(), apperr.Internal("scope resolver not configured")
	}
	return r.deps.Resolver.Resolve(ctx, p, r.table.Scoping)
}

func metaOf[T any](rec *T) *Meta {
	return any(rec).(Record).GetMeta()
}

func (r *Repository[T]) dest(rec *T) []any {
	return append(r.table.metaFields(metaOf(rec)), r.table.Fields(rec)...)
}

func (r *Repository[T]) values(rec *T) []any {
	return append(r.table.metaValues(metaOf(rec)), r.table.Values(rec)...)
}

func (r *Repository[T]) observe(op string, start time.Time) {
	r.deps.Metrics.ObserveRepository(r.table.EntityType, op, time.Since(start))
}

func (r *Repository[T]) notFound() error {
	return apperr.NotFound(r.table.EntityType + " not found")
}

// FindAll lists records in the principal's scope matching params.
func (r *Repository[T]) FindAll(ctx context.Context, p *access.Principal, params ListParams) (ListResult[T], error) {
	defer r.observe("find_all", time.Now())

	scope, err := r.Scope(ctx, p)
	if err != nil {
		return ListResult[T]{}, err
	}
	lq, err := r.table.buildList(scope, params)
	if err != nil {
		return ListResult[T]{}, err
	}

	var total int
	if err := r.q.QueryRow(ctx, lq.count, lq.args...).Scan(&total); err != nil {
		return ListResult[T]{}, fmt.Errorf("count %s: %w", r.table.EntityType, err)
	}

	rows, err := r.q.Query(ctx, lq.sel, lq.args...)
	if err != nil {
		return ListResult[T]{}, fmt.Errorf("list %s: %w", r.table.EntityType, err)
	}
	items, err := r.collect(rows)
	if err != nil {
		return ListResult[T]{}, err
	}

	totalPages := 1
	if lq.size > 0 {
		totalPages = (total + lq.size - 1) / lq.size
	}
	return ListResult[T]{
		Items:      items,
		Total:      total,
		Page:       lq.page,
		PageSize:   lq.size,
		TotalPages: totalPages,
	}, nil
}

// List is FindAll without paging metadata.
func (r *Repository[T]) List(ctx context.Context, p *access.Principal, filters ...Filter) ([]*T, error) {
	res, err := r.FindAll(ctx, p, ListParams{Filters: filters})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (r *Repository[T]) collect(rows pgx.Rows) ([]*T, error) {
	defer rows.Close()
	items := make([]*T, 0)
	for rows.Next() {
		rec := r.table.New()
		if err := rows.Scan(r.dest(rec)...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table.EntityType, err)
		}
		m := metaOf(rec)
		m.storedOwner = m.OwnerID
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", r.table.EntityType, err)
	}
	return items, nil
}

// FindByID returns the record if it exists inside the principal's scope.
// Records outside the scope are reported as not found.
func (r *Repository[T]) FindByID(ctx context.Context, p *access.Principal, id uuid.UUID) (*T, error) {
	defer r.observe("find_by_id", time.Now())

	scope, err := r.Scope(ctx, p)
	if err != nil {
		return nil, err
	}
	query, scopeArgs := r.table.buildFindByID(scope)
	args := append([]any{id}, scopeArgs...)

	rec := r.table.New()
	if err := r.q.QueryRow(ctx, query, args...).Scan(r.dest(rec)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.notFound()
		}
		return nil, fmt.Errorf("get %s: %w", r.table.EntityType, err)
	}
	m := metaOf(rec)
	m.storedOwner = m.OwnerID
	return rec, nil
}

// prepareCreate fills identity, tenant, owner, timestamps and version, then
// checks the result lies inside the principal's scope and its owner belongs
// to its tenant.
func (r *Repository[T]) prepareCreate(ctx context.Context, p *access.Principal, scope access.Scope, rec *T) error {
	m := metaOf(rec)
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.TenantID == uuid.Nil {
		m.TenantID = p.TenantID
	}
	if m.OwnerID == uuid.Nil {
		m.OwnerID = p.ID
	}
	now := r.deps.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Version = 1

	if p.Role != access.RoleSuperAdmin && m.TenantID != p.TenantID {
		return apperr.Forbidden("cannot create " + r.table.EntityType + " in another tenant")
	}
	if !scope.Allows(m.TenantID, m.OwnerID) {
		return apperr.Forbidden("cannot create " + r.table.EntityType + " outside your scope")
	}
	return r.checkOwner(ctx, p, m)
}

// checkOwner rejects owners from outside the record's tenant. Types without a
// tenant column are owner-scoped, so Scope.Allows already bounds them.
func (r *Repository[T]) checkOwner(ctx context.Context, p *access.Principal, m *Meta) error {
	if r.table.Scoping.TenantColumn == "" {
		return nil
	}
	return r.deps.Resolver.CheckOwner(ctx, p, m.TenantID, m.OwnerID)
}

// Create inserts rec. Zero tenant and owner are taken from the principal.
func (r *Repository[T]) Create(ctx context.Context, p *access.Principal, rec *T) error {
	defer r.observe("create", time.Now())

	scope, err := r.Scope(ctx, p)
	if err != nil {
		return err
	}
	if err := r.prepareCreate(ctx, p, scope, rec); err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, r.table.buildInsert(), r.values(rec)...); err != nil {
		return db.MapError(err, r.table.EntityType)
	}
	metaOf(rec).storedOwner = metaOf(rec).OwnerID

	r.afterWrite(ctx, p, "created", rec)
	return nil
}

// CreateMany inserts every record in one transaction. Either all rows are
// written or none are, and the first failure is reported for the batch.
func (r *Repository[T]) CreateMany(ctx context.Context, p *access.Principal, recs []*T) error {
	defer r.observe("create_many", time.Now())

	scope, err := r.Scope(ctx, p)
	if err != nil {
		return err
	}
	for i, rec := range recs {
		if err := r.prepareCreate(ctx, p, scope, rec); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}

	insertAll := func(q db.Querier) error {
		for i, rec := range recs {
			if _, err := q.Exec(ctx, r.table.buildInsert(), r.values(rec)...); err != nil {
				return fmt.Errorf("item %d: %w", i, db.MapError(err, r.table.EntityType))
			}
		}
		return nil
	}

	if r.bound {
		return insertAll(r.q)
	}
	if r.tx == nil {
		return apperr.Internal("transactions not configured for " + r.table.EntityType)
	}
	if err := r.tx.WithTx(ctx, insertAll); err != nil {
		return err
	}

	for _, rec := range recs {
		metaOf(rec).storedOwner = metaOf(rec).OwnerID
		r.afterWrite(ctx, p, "created", rec)
	}
	return nil
}

// Update re-reads the record in scope, applies mutate and writes it back
// guarded by the version read. A concurrent write yields a Conflict.
// ID, tenant and creation time cannot be changed by mutate.
func (r *Repository[T]) Update(ctx context.Context, p *access.Principal, id uuid.UUID, mutate func(*T) error) (*T, error) {
	rec, err := r.FindByID(ctx, p, id)
	if err != nil {
		return nil, err
	}
	before := *metaOf(rec)
	if err := mutate(rec); err != nil {
		return nil, err
	}
	m := metaOf(rec)
	m.ID = before.ID
	m.TenantID = before.TenantID
	m.CreatedAt = before.CreatedAt
	m.Version = before.Version
	m.storedOwner = before.storedOwner

	if err := r.Save(ctx, p, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Save writes rec if its Version still matches the stored row and the row is
// inside the principal's scope. A changed owner must belong to the record's
// tenant. On success Version and UpdatedAt are advanced.
func (r *Repository[T]) Save(ctx context.Context, p *access.Principal, rec *T) error {
	defer r.observe("update", time.Now())

	scope, err := r.Scope(ctx, p)
	if err != nil {
		return err
	}
	m := metaOf(rec)
	if !scope.Allows(m.TenantID, m.OwnerID) {
		return apperr.Forbidden("cannot assign " + r.table.EntityType + " outside your scope")
	}
	if m.OwnerID != m.storedOwner {
		if err := r.checkOwner(ctx, p, m); err != nil {
			return err
		}
	}

	updatedAt := r.deps.Now().UTC()
	args := append([]any{m.ID, m.Version, m.OwnerID, updatedAt}, r.table.Values(rec)...)
	scopeClause, scopeArgs := scope.Where(len(args) + 1)
	query := r.table.buildUpdate() + " AND " + scopeClause
	args = append(args, scopeArgs...)

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return db.MapError(err, r.table.EntityType)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict(r.table.EntityType + " was modified by someone else").
			WithDetails(map[string]any{"id": m.ID, "version": m.Version})
	}
	m.Version++
	m.UpdatedAt = updatedAt
	m.storedOwner = m.OwnerID

	r.afterWrite(ctx, p, "updated", rec)
	return nil
}

// Delete removes the record after a scoped read.
func (r *Repository[T]) Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	rec, err := r.FindByID(ctx, p, id)
	if err != nil {
		return err
	}
	defer r.observe("delete", time.Now())

	m := metaOf(rec)
	tag, err := r.q.Exec(ctx, r.table.buildDelete(), m.ID, m.Version)
	if err != nil {
		return db.MapError(err, r.table.EntityType)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict(r.table.EntityType + " was modified by someone else")
	}

	r.afterWrite(ctx, p, "deleted", rec)
	return nil
}

func (r *Repository[T]) afterWrite(ctx context.Context, p *access.Principal, action string, rec *T) {
	if r.bound {
		return
	}
	r.Notify(ctx, p, action, rec)
}

// Notify publishes "<type>.<action>" and appends an audit entry. Both are
// best effort: failures are logged and counted, never returned.
func (r *Repository[T]) Notify(ctx context.Context, p *access.Principal, action string, rec *T) {
	m := metaOf(rec)
	name := r.table.EntityType + "." + action
	tenantID := m.TenantID
	if tenantID == uuid.Nil {
		tenantID = p.TenantID
	}

	if r.deps.Bus != nil {
		r.deps.Bus.Publish(ctx, events.Named{
			BaseEvent: events.NewBaseEvent(),
			Name:      name,
			TenantID:  tenantID,
			EntityID:  m.ID,
			ActorID:   p.ID,
			Payload:   rec,
		})
	}

	if r.deps.Audit == nil {
		return
	}
	entry := audit.Entry{
		TenantID:   tenantID,
		Type:       name,
		EntityType: r.table.EntityType,
		EntityID:   m.ID,
		ActorID:    p.ID,
		Metadata:   map[string]any{"version": m.Version},
	}
	if r.table.ContactOf != nil {
		entry.ContactID = r.table.ContactOf(rec)
	}
	if err := r.deps.Audit.Record(ctx, entry); err != nil {
		r.deps.Log.WithContext(ctx).AuditFailure(r.table.EntityType, m.ID.String(), action, err)
		r.deps.Metrics.IncAuditFailure(r.table.EntityType)
	}
}
