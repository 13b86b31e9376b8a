package entity

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/audit"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/events"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type widget struct {
	Meta
	Name  string
	Count int
}

var widgetTable = Table[widget]{
	Name:       "widgets",
	EntityType: "widgets",
	Scoping:    access.Scoping{TenantColumn: "tenant_id", OwnerColumn: "owner_id"},
	Columns:    []string{"name", "count"},
	New:        func() *widget { return &widget{} },
	Fields:     func(w *widget) []any { return []any{&w.Name, &w.Count} },
	Values:     func(w *widget) []any { return []any{w.Name, w.Count} },
	Sortable:   map[string]string{"name": "name", "createdAt": "created_at"},
	Filterable: []string{"name", "count"},
}

// fakeRow copies values into scan destinations by position.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

type execCall struct {
	sql  string
	args []any
}

type fakeQuerier struct {
	mu       sync.Mutex
	row      fakeRow
	execs    []execCall
	execTags []string
	execErrs []error
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := len(q.execs)
	q.execs = append(q.execs, execCall{sql: sql, args: args})
	if i < len(q.execErrs) && q.execErrs[i] != nil {
		return pgconn.CommandTag{}, q.execErrs[i]
	}
	tag := "INSERT 0 1"
	if i < len(q.execTags) {
		tag = q.execTags[i]
	} else if strings.HasPrefix(sql, "UPDATE") {
		tag = "UPDATE 1"
	} else if strings.HasPrefix(sql, "DELETE") {
		tag = "DELETE 1"
	}
	return pgconn.NewCommandTag(tag), nil
}

func (q *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported by fake")
}

func (q *fakeQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return q.row
}

type fakeTx struct {
	q   db.Querier
	err error
}

func (t *fakeTx) WithTx(_ context.Context, fn func(q db.Querier) error) error {
	t.err = fn(t.q)
	return t.err
}

type recordingBus struct {
	mu    sync.Mutex
	names []string
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.names = append(b.names, e.EventName())
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}
func (b *recordingBus) SubscribeAll(events.Handler)      {}

type recordingAudit struct {
	entries []audit.Entry
	err     error
}

func (a *recordingAudit) Record(_ context.Context, e audit.Entry) error {
	a.entries = append(a.entries, e)
	return a.err
}

type memberDirectory struct {
	members map[uuid.UUID][]uuid.UUID
	calls   int
}

func (d *memberDirectory) MemberIDs(_ context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	d.calls++
	return d.members[tenantID], nil
}
