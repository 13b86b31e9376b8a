package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/appointments/calendar"
	"estate_crm_backend/internal/appointments/domain"
	"estate_crm_backend/internal/appointments/repository"
	"estate_crm_backend/internal/appointments/transport"
	"estate_crm_backend/internal/audit"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

type memoryStore struct {
	mu       sync.Mutex
	appts    map[uuid.UUID]*domain.Appointment
	slots    map[uuid.UUID]*domain.Slot
	notified []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{appts: map[uuid.UUID]*domain.Appointment{}, slots: map[uuid.UUID]*domain.Slot{}}
}

func (m *memoryStore) WithQuerier(db.Querier) repository.Store { return m }

func (m *memoryStore) ListAppointments(_ context.Context, _ *access.Principal, _ entity.ListParams) (entity.ListResult[domain.Appointment], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]*domain.Appointment, 0, len(m.appts))
	for _, a := range m.appts {
		cp := *a
		items = append(items, &cp)
	}
	return entity.ListResult[domain.Appointment]{Items: items, Total: len(items), Page: 1, PageSize: len(items), TotalPages: 1}, nil
}

func (m *memoryStore) ActiveForAgent(_ context.Context, _ *access.Principal, agentID uuid.UUID, date time.Time) ([]*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Appointment
	for _, a := range m.appts {
		if a.OwnerID == agentID && a.Date.Equal(date) && a.Status.Active() {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memoryStore) FindAppointment(_ context.Context, _ *access.Principal, id uuid.UUID) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, apperr.NotFound("appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *memoryStore) CreateAppointment(_ context.Context, p *access.Principal, a *domain.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.TenantID = p.TenantID
	if a.OwnerID == uuid.Nil {
		a.OwnerID = p.ID
	}
	a.Version = 1
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *memoryStore) SaveAppointment(_ context.Context, _ *access.Principal, a *domain.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.appts[a.ID]
	if !ok {
		return apperr.NotFound("appointment not found")
	}
	if cur.Version != a.Version {
		return apperr.Conflict("appointment was modified concurrently")
	}
	a.Version++
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *memoryStore) DeleteAppointment(_ context.Context, _ *access.Principal, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.appts, id)
	return nil
}

func (m *memoryStore) NotifyAppointment(_ context.Context, _ *access.Principal, action string, _ *domain.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = append(m.notified, action)
}

func (m *memoryStore) ListSlots(_ context.Context, _ *access.Principal, _ entity.ListParams) (entity.ListResult[domain.Slot], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]*domain.Slot, 0, len(m.slots))
	for _, s := range m.slots {
		cp := *s
		items = append(items, &cp)
	}
	return entity.ListResult[domain.Slot]{Items: items, Total: len(items)}, nil
}

func (m *memoryStore) AvailableSlots(_ context.Context, _ *access.Principal, agentID uuid.UUID, date time.Time) ([]*domain.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Slot
	for _, s := range m.slots {
		if s.OwnerID == agentID && s.Date.Equal(date) && s.Status == domain.SlotAvailable {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (m *memoryStore) FindSlot(_ context.Context, _ *access.Principal, id uuid.UUID) (*domain.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, apperr.NotFound("slot not found")
	}
	cp := *s
	return &cp, nil
}

func (m *memoryStore) CreateSlot(_ context.Context, p *access.Principal, s *domain.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	s.TenantID = p.TenantID
	s.Version = 1
	cp := *s
	m.slots[s.ID] = &cp
	return nil
}

func (m *memoryStore) DeleteSlot(_ context.Context, _ *access.Principal, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, id)
	return nil
}

func (m *memoryStore) BookSlot(_ context.Context, slotID, agentID, appointmentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotID]
	if !ok || s.Status != domain.SlotAvailable || s.OwnerID != agentID {
		return apperr.Conflict("slot is no longer available")
	}
	s.Status = domain.SlotBooked
	s.AppointmentID = &appointmentID
	s.Version++
	return nil
}

func (m *memoryStore) ReleaseSlot(_ context.Context, slotID, appointmentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotID]
	if ok && s.AppointmentID != nil && *s.AppointmentID == appointmentID {
		s.Status = domain.SlotAvailable
		s.AppointmentID = nil
		s.Version++
	}
	return nil
}

func (m *memoryStore) slot(id uuid.UUID) domain.Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.slots[id]
}

type directTx struct{}

func (directTx) WithTx(_ context.Context, fn func(q db.Querier) error) error { return fn(nil) }

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}
func (b *recordingBus) SubscribeAll(events.Handler)      {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

type recordingActivity struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingActivity) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

type fakeCalendar struct {
	err   error
	calls int
}

func (c *fakeCalendar) Upsert(_ context.Context, ev calendar.Event) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return "evt-123", nil
}

type fixture struct {
	svc      *Service
	store    *memoryStore
	bus      *recordingBus
	activity *recordingActivity
	cal      *fakeCalendar
	agent    *access.Principal
	foreign  map[uuid.UUID]bool
}

// visibleUnlessForeign is a contact and property lookup for the fixture.
type visibleUnlessForeign map[uuid.UUID]bool

func (v visibleUnlessForeign) Exists(_ context.Context, _ *access.Principal, id uuid.UUID) error {
	if v[id] {
		return apperr.NotFound("record not found")
	}
	return nil
}

func newFixture() *fixture {
	f := &fixture{
		store:    newMemoryStore(),
		bus:      &recordingBus{},
		activity: &recordingActivity{},
		cal:      &fakeCalendar{},
		agent:    &access.Principal{ID: uuid.New(), TenantID: uuid.New(), Role: access.RoleAgent},
		foreign:  map[uuid.UUID]bool{},
	}
	refs := visibleUnlessForeign(f.foreign)
	f.svc = New(f.store, directTx{}, f.bus, nil, nil, Options{
		Calendar:   f.cal,
		Activity:   f.activity,
		Contacts:   refs,
		Properties: refs,
	})
	f.svc.now = func() time.Time { return now }
	return f
}

func (f *fixture) book(t *testing.T, start string, duration int, slotID *uuid.UUID) *domain.Appointment {
	t.Helper()
	a, err := f.svc.CreateWithValidation(context.Background(), f.agent, transport.CreateAppointmentRequest{
		ContactID:          uuid.New(),
		Type:               domain.TypeViewing,
		Date:               "2025-06-03",
		StartTime:          start,
		EstimatedDuration:  duration,
		AvailabilitySlotID: slotID,
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) openSlot(t *testing.T, date, start, end string) *domain.Slot {
	t.Helper()
	s, err := f.svc.CreateSlot(context.Background(), f.agent, transport.CreateSlotRequest{Date: date, StartTime: start, EndTime: end})
	require.NoError(t, err)
	return s
}

func TestCreateDetectsOverlap(t *testing.T) {
	f := newFixture()
	first := f.book(t, "10:00", 60, nil)
	free := f.openSlot(t, "2025-06-03", "14:00", "15:00")

	_, err := f.svc.CreateWithValidation(context.Background(), f.agent, transport.CreateAppointmentRequest{
		ContactID:         uuid.New(),
		Type:              domain.TypeViewing,
		Date:              "2025-06-03",
		StartTime:         "10:30",
		EstimatedDuration: 60,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindSchedulingConflict))

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	details, ok := appErr.Details.(domain.ConflictDetails)
	require.True(t, ok)
	require.Len(t, details.Conflicts, 1)
	assert.Equal(t, first.ID, details.Conflicts[0].AppointmentID)
	require.Len(t, details.Suggestions, 1)
	assert.Equal(t, free.ID, details.Suggestions[0].SlotID)
}

func TestBackToBackIsNotAConflict(t *testing.T) {
	f := newFixture()
	f.book(t, "10:00", 60, nil)
	f.book(t, "11:00", 30, nil)
}

func TestCheckConflictsWithoutOverlapReturnsNoSuggestions(t *testing.T) {
	f := newFixture()
	f.book(t, "09:00", 30, nil)

	resp, err := f.svc.CheckConflictsRequest(context.Background(), f.agent, transport.CheckConflictsRequest{
		Date: "2025-06-03", StartTime: "12:00", Duration: 30,
	})
	require.NoError(t, err)
	assert.False(t, resp.HasConflict)
	assert.Empty(t, resp.Suggestions)
}

func TestCreateBooksSlotAndRecordsActivity(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(t, "2025-06-03", "10:00", "11:00")

	a := f.book(t, "10:00", 45, &slot.ID)

	booked := f.store.slot(slot.ID)
	assert.Equal(t, domain.SlotBooked, booked.Status)
	require.NotNil(t, booked.AppointmentID)
	assert.Equal(t, a.ID, *booked.AppointmentID)
	assert.Contains(t, f.bus.names(), events.NameAppointmentCreated)
	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, activityCreated, f.activity.entries[0].Type)
	assert.Equal(t, a.ContactID, *f.activity.entries[0].ContactID)
}

func TestSlotCannotBeBookedTwice(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(t, "2025-06-03", "10:00", "12:00")
	f.book(t, "10:00", 30, &slot.ID)

	_, err := f.svc.CreateWithValidation(context.Background(), f.agent, transport.CreateAppointmentRequest{
		ContactID:          uuid.New(),
		Type:               domain.TypeCall,
		Date:               "2025-06-03",
		StartTime:          "11:00",
		EstimatedDuration:  30,
		AvailabilitySlotID: &slot.ID,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestCreateRejectsAppointmentOutsideSlot(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(t, "2025-06-03", "10:00", "11:00")

	_, err := f.svc.CreateWithValidation(context.Background(), f.agent, transport.CreateAppointmentRequest{
		ContactID:          uuid.New(),
		Type:               domain.TypeViewing,
		Date:               "2025-06-03",
		StartTime:          "10:30",
		EstimatedDuration:  60,
		AvailabilitySlotID: &slot.ID,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCancelReleasesSlot(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(t, "2025-06-03", "10:00", "11:00")
	a := f.book(t, "10:00", 60, &slot.ID)

	updated, err := f.svc.UpdateStatus(context.Background(), f.agent, a.ID, transport.UpdateStatusRequest{Status: domain.StatusCanceled})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCanceled, updated.Status)
	assert.NotNil(t, updated.CanceledAt)
	released := f.store.slot(slot.ID)
	assert.Equal(t, domain.SlotAvailable, released.Status)
	assert.Nil(t, released.AppointmentID)
	assert.Contains(t, f.bus.names(), events.NameAppointmentCanceled)
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	f := newFixture()
	a := f.book(t, "10:00", 60, nil)
	_, err := f.svc.UpdateStatus(context.Background(), f.agent, a.ID, transport.UpdateStatusRequest{Status: domain.StatusCompleted})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), f.agent, a.ID, transport.UpdateStatusRequest{Status: domain.StatusPending})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	f := newFixture()
	a := f.book(t, "10:00", 60, nil)
	before := len(f.bus.names())

	got, err := f.svc.UpdateStatus(context.Background(), f.agent, a.ID, transport.UpdateStatusRequest{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, a.Version, got.Version)
	assert.Len(t, f.bus.names(), before)
}

func TestRescheduleExcludesItself(t *testing.T) {
	f := newFixture()
	a := f.book(t, "10:00", 60, nil)

	moved, err := f.svc.Reschedule(context.Background(), f.agent, a.ID, transport.RescheduleRequest{
		Date:      "2025-06-03",
		StartTime: ptr("10:30"),
		Reason:    "client running late",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, moved.ReschedulingCount)
	assert.Equal(t, "10:30", moved.StartTime.String())
	require.NotNil(t, moved.LastRescheduledAt)
	assert.Contains(t, f.bus.names(), events.NameAppointmentRescheduled)

	last := f.activity.entries[len(f.activity.entries)-1]
	assert.Equal(t, activityRescheduled, last.Type)
	assert.Equal(t, "10:00", last.Metadata["oldStartTime"])
	assert.Equal(t, "client running late", last.Metadata["reason"])
}

func TestRescheduleMovesSlotBooking(t *testing.T) {
	f := newFixture()
	oldSlot := f.openSlot(t, "2025-06-03", "10:00", "11:00")
	newSlot := f.openSlot(t, "2025-06-04", "10:00", "11:00")
	a := f.book(t, "10:00", 60, &oldSlot.ID)

	moved, err := f.svc.Reschedule(context.Background(), f.agent, a.ID, transport.RescheduleRequest{Date: "2025-06-04"})
	require.NoError(t, err)

	require.NotNil(t, moved.AvailabilitySlotID)
	assert.Equal(t, newSlot.ID, *moved.AvailabilitySlotID)
	assert.Equal(t, domain.SlotAvailable, f.store.slot(oldSlot.ID).Status)
	assert.Equal(t, domain.SlotBooked, f.store.slot(newSlot.ID).Status)
}

func TestRescheduleRejectsClosedAppointment(t *testing.T) {
	f := newFixture()
	a := f.book(t, "10:00", 60, nil)
	_, err := f.svc.UpdateStatus(context.Background(), f.agent, a.ID, transport.UpdateStatusRequest{Status: domain.StatusCanceled})
	require.NoError(t, err)

	_, err = f.svc.Reschedule(context.Background(), f.agent, a.ID, transport.RescheduleRequest{Date: "2025-06-05"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
}

func TestSyncSuccessStoresExternalID(t *testing.T) {
	f := newFixture()
	a := f.book(t, "10:00", 60, nil)

	synced, err := f.svc.SyncWithExternalCalendar(context.Background(), f.agent, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncSynced, synced.SyncStatus)
	assert.Equal(t, 1, synced.SyncAttempts)
	require.NotNil(t, synced.ExternalEventID)
	assert.Equal(t, "evt-123", *synced.ExternalEventID)
	assert.Contains(t, f.bus.names(), events.NameAppointmentSynced)
}

func TestSyncFailureIsRecorded(t *testing.T) {
	f := newFixture()
	f.cal.err = errors.New("calendar unavailable")
	a := f.book(t, "10:00", 60, nil)

	failed, err := f.svc.SyncWithExternalCalendar(context.Background(), f.agent, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncFailed, failed.SyncStatus)
	assert.Equal(t, 1, failed.SyncAttempts)
	require.NotNil(t, failed.SyncError)
	assert.Equal(t, "calendar unavailable", *failed.SyncError)
	assert.Contains(t, f.bus.names(), events.NameAppointmentSyncFailed)

	f.cal.err = nil
	retried, err := f.svc.SyncWithExternalCalendar(context.Background(), f.agent, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncSynced, retried.SyncStatus)
	assert.Equal(t, 2, retried.SyncAttempts)
	assert.Nil(t, retried.SyncError)
}

func TestSyncWhileInFlightCountsTheAttempt(t *testing.T) {
	f := newFixture()
	a := f.book(t, "10:00", 60, nil)
	started := now.Add(-time.Minute)
	f.store.mu.Lock()
	f.store.appts[a.ID].SyncStatus = domain.SyncSyncing
	f.store.appts[a.ID].SyncAttempts = 1
	f.store.appts[a.ID].LastSyncAt = &started
	f.store.mu.Unlock()

	_, err := f.svc.SyncWithExternalCalendar(context.Background(), f.agent, a.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	stored, err := f.svc.Get(context.Background(), f.agent, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.SyncAttempts)
	assert.Equal(t, domain.SyncSyncing, stored.SyncStatus)
	assert.Equal(t, started, *stored.LastSyncAt)
}

type recordingEnqueuer struct{ ids []uuid.UUID }

func (e *recordingEnqueuer) EnqueueCalendarSync(_ context.Context, _ *access.Principal, id uuid.UUID) error {
	e.ids = append(e.ids, id)
	return nil
}

func TestEnqueueSyncUsesQueueWhenConfigured(t *testing.T) {
	f := newFixture()
	q := &recordingEnqueuer{}
	f.svc.enqueuer = q
	a := f.book(t, "10:00", 60, nil)

	got, err := f.svc.EnqueueSync(context.Background(), f.agent, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, q.ids)
	assert.Equal(t, domain.SyncIdle, got.SyncStatus)
	assert.Zero(t, f.cal.calls)
}

func TestDeleteBookedSlotConflicts(t *testing.T) {
	f := newFixture()
	slot := f.openSlot(t, "2025-06-03", "10:00", "11:00")
	f.book(t, "10:00", 60, &slot.ID)

	err := f.svc.DeleteSlot(context.Background(), f.agent, slot.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestAvailableSlotsSkipBookedTime(t *testing.T) {
	f := newFixture()
	f.openSlot(t, "2025-06-03", "09:00", "10:00")
	open := f.openSlot(t, "2025-06-03", "13:00", "14:00")
	f.book(t, "09:15", 30, nil)

	slots, err := f.svc.AvailableSlotsRequest(context.Background(), f.agent, transport.AvailableSlotsRequest{Date: "2025-06-03", Duration: 45})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, open.ID, slots[0].ID)
}

func ptr[T any](v T) *T { return &v }

func TestCreateRejectsContactOrPropertyOutsideScope(t *testing.T) {
	f := newFixture()
	foreignContact, foreignProperty := uuid.New(), uuid.New()
	f.foreign[foreignContact] = true
	f.foreign[foreignProperty] = true

	req := transport.CreateAppointmentRequest{
		ContactID:         foreignContact,
		Type:              domain.TypeViewing,
		Date:              "2025-06-03",
		StartTime:         "09:00",
		EstimatedDuration: 30,
	}
	_, err := f.svc.CreateWithValidation(context.Background(), f.agent, req)
	assert.True(t, apperr.Is(err, apperr.KindInvalidReference))

	req.ContactID = uuid.New()
	req.PropertyID = &foreignProperty
	_, err = f.svc.CreateWithValidation(context.Background(), f.agent, req)
	assert.True(t, apperr.Is(err, apperr.KindInvalidReference))

	assert.Empty(t, f.store.appts)
	assert.Empty(t, f.activity.entries)
}
