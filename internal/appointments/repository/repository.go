package repository

import (
	"context"
	"time"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/appointments/domain"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/db"

	"github.com/google/uuid"
)

// Entity types name events and audit entries.
const (
	AppointmentEntityType = "appointments"
	SlotEntityType        = "slots"
)

// AppointmentTable maps appointments onto the appointments table.
var AppointmentTable = entity.Table[domain.Appointment]{
	Name:       "appointments",
	EntityType: AppointmentEntityType,
	Scoping:    access.Scoping{TenantColumn: "tenant_id", OwnerColumn: "owner_id"},
	Columns: []string{
		"contact_id", "property_id", "type", "priority", "title", "date", "start_minute",
		"estimated_duration", "actual_duration", "status", "availability_slot_id",
		"rescheduling_count", "last_rescheduled_at", "completed_at", "canceled_at", "notes",
		"sync_status", "sync_attempts", "last_sync_at", "sync_error", "external_event_id",
	},
	New: func() *domain.Appointment { return &domain.Appointment{} },
	Fields: func(a *domain.Appointment) []any {
		return []any{
			&a.ContactID, &a.PropertyID, &a.Type, &a.Priority, &a.Title, &a.Date, (*int)(&a.StartTime),
			&a.EstimatedDuration, &a.ActualDuration, &a.Status, &a.AvailabilitySlotID,
			&a.ReschedulingCount, &a.LastRescheduledAt, &a.CompletedAt, &a.CanceledAt, &a.Notes,
			&a.SyncStatus, &a.SyncAttempts, &a.LastSyncAt, &a.SyncError, &a.ExternalEventID,
		}
	},
	Values: func(a *domain.Appointment) []any {
		return []any{
			a.ContactID, a.PropertyID, a.Type, a.Priority, a.Title, a.Date, int(a.StartTime),
			a.EstimatedDuration, a.ActualDuration, a.Status, a.AvailabilitySlotID,
			a.ReschedulingCount, a.LastRescheduledAt, a.CompletedAt, a.CanceledAt, a.Notes,
			a.SyncStatus, a.SyncAttempts, a.LastSyncAt, a.SyncError, a.ExternalEventID,
		}
	},
	Sortable: map[string]string{
		"createdAt": "created_at",
		"date":      "date",
		"startTime": "start_minute",
		"priority":  "priority",
		"status":    "status",
	},
	Filterable: []string{"contact_id", "property_id", "type", "priority", "status", "date", "sync_status"},
	ContactOf:  func(a *domain.Appointment) *uuid.UUID { id := a.ContactID; return &id },
}

// SlotTable maps availability slots. Slots have no tenant column.
var SlotTable = entity.Table[domain.Slot]{
	Name:       "availability_slots",
	EntityType: SlotEntityType,
	Scoping:    access.Scoping{OwnerColumn: "owner_id"},
	Columns:    []string{"date", "start_minute", "end_minute", "duration", "status", "appointment_id"},
	New:        func() *domain.Slot { return &domain.Slot{} },
	Fields: func(s *domain.Slot) []any {
		return []any{&s.Date, (*int)(&s.StartTime), (*int)(&s.EndTime), &s.Duration, &s.Status, &s.AppointmentID}
	},
	Values: func(s *domain.Slot) []any {
		return []any{s.Date, int(s.StartTime), int(s.EndTime), s.Duration, s.Status, s.AppointmentID}
	},
	Sortable: map[string]string{
		"createdAt": "created_at",
		"date":      "date",
		"startTime": "start_minute",
	},
	Filterable: []string{"date", "status", "start_minute", "appointment_id"},
}

const (
	bookSlotQuery = `
UPDATE availability_slots
SET status = 'booked', appointment_id = $3, updated_at = $4, version = version + 1
WHERE id = $1 AND owner_id = $2 AND status = 'available'`

	releaseSlotQuery = `
UPDATE availability_slots
SET status = 'available', appointment_id = NULL, updated_at = $3, version = version + 1
WHERE id = $1 AND appointment_id = $2`

	failStaleSyncsQuery = `
UPDATE appointments
SET sync_status = 'failed', sync_error = 'sync attempt did not finish', updated_at = $2, version = version + 1
WHERE sync_status = 'syncing' AND last_sync_at < $1`
)

var activeStatuses = []string{string(domain.StatusPending), string(domain.StatusConfirmed)}

// Store is the persistence used by the scheduler.
type Store interface {
	ListAppointments(ctx context.Context, p *access.Principal, params entity.ListParams) (entity.ListResult[domain.Appointment], error)
	ActiveForAgent(ctx context.Context, p *access.Principal, agentID uuid.UUID, date time.Time) ([]*domain.Appointment, error)
	FindAppointment(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Appointment, error)
	CreateAppointment(ctx context.Context, p *access.Principal, a *domain.Appointment) error
	SaveAppointment(ctx context.Context, p *access.Principal, a *domain.Appointment) error
	DeleteAppointment(ctx context.Context, p *access.Principal, id uuid.UUID) error
	NotifyAppointment(ctx context.Context, p *access.Principal, action string, a *domain.Appointment)

	ListSlots(ctx context.Context, p *access.Principal, params entity.ListParams) (entity.ListResult[domain.Slot], error)
	AvailableSlots(ctx context.Context, p *access.Principal, agentID uuid.UUID, date time.Time) ([]*domain.Slot, error)
	FindSlot(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Slot, error)
	CreateSlot(ctx context.Context, p *access.Principal, s *domain.Slot) error
	DeleteSlot(ctx context.Context, p *access.Principal, id uuid.UUID) error
	BookSlot(ctx context.Context, slotID, agentID, appointmentID uuid.UUID) error
	ReleaseSlot(ctx context.Context, slotID, appointmentID uuid.UUID) error

	WithQuerier(q db.Querier) Store
}

// Repository persists appointments and availability slots.
type Repository struct {
	appointments *entity.Repository[domain.Appointment]
	slots        *entity.Repository[domain.Slot]
	q            db.Querier
	now          func() time.Time
}

// New creates the scheduler repository.
func New(q db.Querier, tx db.TxRunner, deps entity.Deps) *Repository {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Repository{
		appointments: entity.New(q, tx, AppointmentTable, deps),
		slots:        entity.New(q, tx, SlotTable, deps),
		q:            q,
		now:          now,
	}
}

// WithQuerier binds the repository to a transaction.
func (r *Repository) WithQuerier(q db.Querier) Store {
	return &Repository{
		appointments: r.appointments.WithQuerier(q),
		slots:        r.slots.WithQuerier(q),
		q:            q,
		now:          r.now,
	}
}

func (r *Repository) ListAppointments(ctx context.Context, p *access.Principal, params entity.ListParams) (entity.ListResult[domain.Appointment], error) {
	return r.appointments.FindAll(ctx, p, params)
}

// ActiveForAgent lists the agent's pending and confirmed appointments on date.
func (r *Repository) ActiveForAgent(ctx context.Context, p *access.Principal, agentID uuid.UUID, date time.Time) ([]*domain.Appointment, error) {
	return r.appointments.List(ctx, p,
		entity.Eq("owner_id", agentID),
		entity.Eq("date", domain.DateOnly(date)),
		entity.Filter{Column: "status", Op: entity.OpIn, Value: activeStatuses},
	)
}

func (r *Repository) FindAppointment(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Appointment, error) {
	return r.appointments.FindByID(ctx, p, id)
}

func (r *Repository) CreateAppointment(ctx context.Context, p *access.Principal, a *domain.Appointment) error {
	return r.appointments.Create(ctx, p, a)
}

func (r *Repository) SaveAppointment(ctx context.Context, p *access.Principal, a *domain.Appointment) error {
	return r.appointments.Save(ctx, p, a)
}

func (r *Repository) DeleteAppointment(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	return r.appointments.Delete(ctx, p, id)
}

func (r *Repository) NotifyAppointment(ctx context.Context, p *access.Principal, action string, a *domain.Appointment) {
	r.appointments.Notify(ctx, p, action, a)
}

func (r *Repository) ListSlots(ctx context.Context, p *access.Principal, params entity.ListParams) (entity.ListResult[domain.Slot], error) {
	return r.slots.FindAll(ctx, p, params)
}

// AvailableSlots lists the agent's unbooked slots on date.
func (r *Repository) AvailableSlots(ctx context.Context, p *access.Principal, agentID uuid.UUID, date time.Time) ([]*domain.Slot, error) {
	return r.slots.List(ctx, p,
		entity.Eq("owner_id", agentID),
		entity.Eq("date", domain.DateOnly(date)),
		entity.Eq("status", string(domain.SlotAvailable)),
	)
}

func (r *Repository) FindSlot(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Slot, error) {
	return r.slots.FindByID(ctx, p, id)
}

func (r *Repository) CreateSlot(ctx context.Context, p *access.Principal, s *domain.Slot) error {
	return r.slots.Create(ctx, p, s)
}

func (r *Repository) DeleteSlot(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	return r.slots.Delete(ctx, p, id)
}

// BookSlot claims an available slot for an appointment. The update only
// matches while the slot is still available, so two bookings can never both
// succeed.
func (r *Repository) BookSlot(ctx context.Context, slotID, agentID, appointmentID uuid.UUID) error {
	tag, err := r.q.Exec(ctx, bookSlotQuery, slotID, agentID, appointmentID, r.now().UTC())
	if err != nil {
		return db.MapError(err, SlotEntityType)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("slot is no longer available").WithDetails(map[string]any{"slotId": slotID})
	}
	return nil
}

// ReleaseSlot makes the slot bookable again if it is still held by the
// appointment. A slot that was deleted or rebooked meanwhile is left alone.
func (r *Repository) ReleaseSlot(ctx context.Context, slotID, appointmentID uuid.UUID) error {
	if _, err := r.q.Exec(ctx, releaseSlotQuery, slotID, appointmentID, r.now().UTC()); err != nil {
		return db.MapError(err, SlotEntityType)
	}
	return nil
}

// FailStaleSyncs marks attempts started before startedBefore that never
// reported back as failed. It runs outside any principal's scope.
func (r *Repository) FailStaleSyncs(ctx context.Context, startedBefore time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, failStaleSyncsQuery, startedBefore, r.now().UTC())
	if err != nil {
		return 0, db.MapError(err, AppointmentEntityType)
	}
	return tag.RowsAffected(), nil
}
