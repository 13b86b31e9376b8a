package service

import (
	"context"
	"fmt"
	"time"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/appointments/calendar"
	"estate_crm_backend/internal/appointments/domain"
	"estate_crm_backend/internal/appointments/guard"
	"estate_crm_backend/internal/appointments/repository"
	"estate_crm_backend/internal/appointments/transport"
	"estate_crm_backend/internal/audit"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/metrics"
	"estate_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

const dateFormat = "2006-01-02"

// Activity types written to the contact's log.
const (
	activityCreated     = "appointment_created"
	activityRescheduled = "appointment_rescheduled"
)

// SyncEnqueuer schedules a calendar sync attempt in the background.
type SyncEnqueuer interface {
	EnqueueCalendarSync(ctx context.Context, p *access.Principal, appointmentID uuid.UUID) error
}

// Options carries the optional collaborators. Zero values fall back to a
// no-op guard, a disabled calendar, inline sync and UTC. Contacts and
// Properties are required to create appointments.
type Options struct {
	Guard      guard.Guard
	Calendar   calendar.Client
	Enqueuer   SyncEnqueuer
	Activity   audit.Writer
	Location   *time.Location
	Contacts   entity.Lookup
	Properties entity.Lookup
}

// Service is the appointment scheduler.
type Service struct {
	repo       repository.Store
	tx         db.TxRunner
	guard      guard.Guard
	calendar   calendar.Client
	enqueuer   SyncEnqueuer
	activity   audit.Writer
	contacts   entity.Lookup
	properties entity.Lookup
	bus        events.Bus
	log        *logger.Logger
	metrics    *metrics.Metrics
	loc        *time.Location
	now        func() time.Time
}

// New creates the scheduler service.
func New(repo repository.Store, tx db.TxRunner, bus events.Bus, log *logger.Logger, m *metrics.Metrics, opts Options) *Service {
	if log == nil {
		log = logger.Discard()
	}
	s := &Service{
		repo:       repo,
		tx:         tx,
		guard:      opts.Guard,
		calendar:   opts.Calendar,
		enqueuer:   opts.Enqueuer,
		activity:   opts.Activity,
		contacts:   opts.Contacts,
		properties: opts.Properties,
		bus:        bus,
		log:        log,
		metrics:    m,
		loc:        opts.Location,
		now:        time.Now,
	}
	if s.guard == nil {
		s.guard = guard.Noop{}
	}
	if s.calendar == nil {
		s.calendar = calendar.Disabled{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	return s
}

// ConflictQuery describes a candidate booking.
type ConflictQuery struct {
	AgentID   uuid.UUID
	Date      time.Time
	Start     domain.Clock
	Duration  int
	ExcludeID uuid.UUID
}

// CheckConflicts reports active appointments of the agent overlapping the
// candidate, plus up to three free slots when there is an overlap. It never
// writes.
func (s *Service) CheckConflicts(ctx context.Context, p *access.Principal, q ConflictQuery) (domain.ConflictDetails, error) {
	existing, err := s.repo.ActiveForAgent(ctx, p, q.AgentID, q.Date)
	if err != nil {
		return domain.ConflictDetails{}, err
	}
	details := domain.ConflictDetails{
		Conflicts:   domain.FindConflicts(existing, q.Date, q.Start, q.Duration, q.ExcludeID),
		Suggestions: []domain.Suggestion{},
	}
	if !details.HasConflict() {
		return details, nil
	}

	slots, err := s.repo.AvailableSlots(ctx, p, q.AgentID, q.Date)
	if err != nil {
		return domain.ConflictDetails{}, err
	}
	details.Suggestions = domain.Suggest(domain.FreeSlots(slots, existing, q.Duration, q.ExcludeID), q.Duration)
	return details, nil
}

// CheckConflictsRequest parses a transport request and runs CheckConflicts.
func (s *Service) CheckConflictsRequest(ctx context.Context, p *access.Principal, req transport.CheckConflictsRequest) (transport.ConflictCheckResponse, error) {
	date, start, err := parseDateTime(req.Date, req.StartTime)
	if err != nil {
		return transport.ConflictCheckResponse{}, err
	}
	q := ConflictQuery{AgentID: agentOr(req.AgentID, p), Date: date, Start: start, Duration: req.Duration}
	if req.ExcludeID != nil {
		q.ExcludeID = *req.ExcludeID
	}
	details, err := s.CheckConflicts(ctx, p, q)
	if err != nil {
		return transport.ConflictCheckResponse{}, err
	}
	return transport.ConflictCheckResponse{HasConflict: details.HasConflict(), ConflictDetails: details}, nil
}

// CreateWithValidation books an appointment after conflict detection. The
// booking guard serializes concurrent requests for the same agent and day; the
// conditional slot update is the final arbiter for the slot itself.
func (s *Service) CreateWithValidation(ctx context.Context, p *access.Principal, req transport.CreateAppointmentRequest) (*domain.Appointment, error) {
	date, start, err := parseDateTime(req.Date, req.StartTime)
	if err != nil {
		return nil, err
	}
	if int(start)+req.EstimatedDuration > domain.MinutesPerDay {
		return nil, apperr.Validation("appointment must end on the same day")
	}
	agentID := agentOr(req.AgentID, p)

	if err := entity.CheckReference(ctx, s.contacts, p, req.ContactID, "contact"); err != nil {
		return nil, err
	}
	if req.PropertyID != nil {
		if err := entity.CheckReference(ctx, s.properties, p, *req.PropertyID, "property"); err != nil {
			return nil, err
		}
	}

	release, err := s.guard.Acquire(ctx, agentID, date)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.rejectConflicts(ctx, p, ConflictQuery{AgentID: agentID, Date: date, Start: start, Duration: req.EstimatedDuration}); err != nil {
		return nil, err
	}

	appt := &domain.Appointment{
		ContactID:          req.ContactID,
		PropertyID:         req.PropertyID,
		Type:               req.Type,
		Priority:           req.Priority,
		Title:              sanitize.Text(req.Title),
		Date:               date,
		StartTime:          start,
		EstimatedDuration:  req.EstimatedDuration,
		Status:             domain.StatusPending,
		AvailabilitySlotID: req.AvailabilitySlotID,
		Notes:              sanitize.Optional(req.Notes),
		SyncStatus:         domain.SyncIdle,
	}
	appt.OwnerID = agentID
	if appt.Priority == "" {
		appt.Priority = domain.PriorityNormal
	}

	if req.AvailabilitySlotID != nil {
		slot, err := s.repo.FindSlot(ctx, p, *req.AvailabilitySlotID)
		if err != nil {
			return nil, err
		}
		if err := slotAccepts(slot, appt); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithTx(ctx, func(q db.Querier) error {
		repo := s.repo.WithQuerier(q)
		if err := repo.CreateAppointment(ctx, p, appt); err != nil {
			return err
		}
		if appt.AvailabilitySlotID != nil {
			return repo.BookSlot(ctx, *appt.AvailabilitySlotID, agentID, appt.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.repo.NotifyAppointment(ctx, p, "created", appt)
	s.publish(ctx, events.AppointmentCreated{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: appt.ID,
		TenantID:      appt.TenantID,
		AgentID:       agentID,
		ContactID:     appt.ContactID,
		SlotID:        appt.AvailabilitySlotID,
		Date:          appt.Date,
		StartMinute:   int(appt.StartTime),
		Duration:      appt.EstimatedDuration,
	})
	s.recordActivity(ctx, p, appt, activityCreated, map[string]any{
		"date":      appt.Date.Format(dateFormat),
		"startTime": appt.StartTime.String(),
		"type":      appt.Type,
	})
	return appt, nil
}

func (s *Service) rejectConflicts(ctx context.Context, p *access.Principal, q ConflictQuery) error {
	details, err := s.CheckConflicts(ctx, p, q)
	if err != nil {
		return err
	}
	if details.HasConflict() {
		s.metrics.IncSchedulingConflict()
		return apperr.SchedulingConflict("the requested time overlaps another appointment", details)
	}
	return nil
}

// slotAccepts checks that appt fits inside slot and the slot is still free.
func slotAccepts(slot *domain.Slot, appt *domain.Appointment) error {
	if slot.OwnerID != appt.OwnerID {
		return apperr.Validation("slot belongs to another agent")
	}
	if !domain.DateOnly(slot.Date).Equal(domain.DateOnly(appt.Date)) ||
		appt.StartTime < slot.StartTime || appt.EndTime() > slot.EndTime {
		return apperr.Validation("appointment does not fit inside the slot")
	}
	if slot.Status != domain.SlotAvailable {
		return apperr.Conflict("slot is no longer available").WithDetails(map[string]any{"slotId": slot.ID})
	}
	return nil
}

// UpdateStatus moves an appointment along its lifecycle. Setting the current
// status again is a no-op. Canceling releases the slot in the same
// transaction.
func (s *Service) UpdateStatus(ctx context.Context, p *access.Principal, id uuid.UUID, req transport.UpdateStatusRequest) (*domain.Appointment, error) {
	if !req.Status.Valid() {
		return nil, apperr.Validation("unknown status " + string(req.Status))
	}
	now := s.now().UTC()

	var (
		appt    *domain.Appointment
		from    domain.Status
		changed bool
	)
	err := s.tx.WithTx(ctx, func(q db.Querier) error {
		repo := s.repo.WithQuerier(q)
		a, err := repo.FindAppointment(ctx, p, id)
		if err != nil {
			return err
		}
		appt, from = a, a.Status
		if from == req.Status {
			return nil
		}
		if !domain.CanTransition(from, req.Status) {
			return apperr.InvalidTransition(fmt.Sprintf("cannot move appointment from %s to %s", from, req.Status)).
				WithDetails(map[string]any{"from": from, "to": req.Status, "allowed": domain.NextStatuses(from)})
		}

		a.ApplyStatus(req.Status, now)
		if req.Notes != nil {
			a.Notes = sanitize.Optional(req.Notes)
		}
		if err := repo.SaveAppointment(ctx, p, a); err != nil {
			return err
		}
		if req.Status == domain.StatusCanceled && a.AvailabilitySlotID != nil {
			if err := repo.ReleaseSlot(ctx, *a.AvailabilitySlotID, a.ID); err != nil {
				return err
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return appt, nil
	}

	s.repo.NotifyAppointment(ctx, p, "updated", appt)
	evt := events.AppointmentStatusChanged{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: appt.ID,
		TenantID:      appt.TenantID,
		ActorID:       p.ID,
		ContactID:     appt.ContactID,
		From:          string(from),
		To:            string(appt.Status),
	}
	s.publish(ctx, evt)
	s.recordActivity(ctx, p, appt, "appointment_"+string(appt.Status), map[string]any{
		"from": from,
		"to":   appt.Status,
	})
	return appt, nil
}

// Reschedule moves a pending or confirmed appointment to a new date and
// optionally a new start time. The old slot is released and a free slot
// starting at the new time is booked when one exists.
func (s *Service) Reschedule(ctx context.Context, p *access.Principal, id uuid.UUID, req transport.RescheduleRequest) (*domain.Appointment, error) {
	current, err := s.repo.FindAppointment(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.Active() {
		return nil, apperr.InvalidTransition("only pending or confirmed appointments can be rescheduled").
			WithDetails(map[string]any{"status": current.Status})
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	start := current.StartTime
	if req.StartTime != nil {
		if start, err = domain.ParseClock(*req.StartTime); err != nil {
			return nil, apperr.Validation(err.Error())
		}
	}
	if int(start)+current.EstimatedDuration > domain.MinutesPerDay {
		return nil, apperr.Validation("appointment must end on the same day")
	}
	agentID := current.AgentID()

	release, err := s.guard.Acquire(ctx, agentID, date)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.rejectConflicts(ctx, p, ConflictQuery{
		AgentID: agentID, Date: date, Start: start, Duration: current.EstimatedDuration, ExcludeID: id,
	}); err != nil {
		return nil, err
	}

	reason := sanitize.Text(req.Reason)
	now := s.now().UTC()
	var (
		appt     *domain.Appointment
		oldDate  time.Time
		oldStart domain.Clock
	)
	err = s.tx.WithTx(ctx, func(q db.Querier) error {
		repo := s.repo.WithQuerier(q)
		a, err := repo.FindAppointment(ctx, p, id)
		if err != nil {
			return err
		}
		if !a.Status.Active() {
			return apperr.InvalidTransition("only pending or confirmed appointments can be rescheduled")
		}
		oldDate, oldStart = a.Date, a.StartTime

		if a.AvailabilitySlotID != nil {
			if err := repo.ReleaseSlot(ctx, *a.AvailabilitySlotID, a.ID); err != nil {
				return err
			}
			a.AvailabilitySlotID = nil
		}

		a.Date = date
		a.StartTime = start
		a.ReschedulingCount++
		a.LastRescheduledAt = &now

		slots, err := repo.AvailableSlots(ctx, p, agentID, date)
		if err != nil {
			return err
		}
		for _, slot := range slots {
			if slot.StartTime == start && slot.Fits(a.EstimatedDuration) {
				if err := repo.BookSlot(ctx, slot.ID, agentID, a.ID); err != nil {
					return err
				}
				slotID := slot.ID
				a.AvailabilitySlotID = &slotID
				break
			}
		}

		if err := repo.SaveAppointment(ctx, p, a); err != nil {
			return err
		}
		appt = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.repo.NotifyAppointment(ctx, p, "updated", appt)
	s.publish(ctx, events.AppointmentRescheduled{
		BaseEvent:      events.NewBaseEvent(),
		AppointmentID:  appt.ID,
		TenantID:       appt.TenantID,
		ActorID:        p.ID,
		ContactID:      appt.ContactID,
		OldDate:        oldDate,
		OldStartMinute: int(oldStart),
		NewDate:        appt.Date,
		NewStartMinute: int(appt.StartTime),
		Reason:         reason,
	})
	s.recordActivity(ctx, p, appt, activityRescheduled, map[string]any{
		"oldDate":      oldDate.Format(dateFormat),
		"oldStartTime": oldStart.String(),
		"newDate":      appt.Date.Format(dateFormat),
		"newStartTime": appt.StartTime.String(),
		"reason":       reason,
	})
	return appt, nil
}

// SyncWithExternalCalendar pushes the appointment to the external calendar.
// The attempt is always recorded. A remote failure is stored on the
// appointment and announced with an event, never returned.
func (s *Service) SyncWithExternalCalendar(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Appointment, error) {
	appt, err := s.repo.FindAppointment(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !appt.BeginSync(s.now().UTC()) {
		if err := s.repo.SaveAppointment(ctx, p, appt); err != nil {
			return nil, err
		}
		return nil, apperr.Conflict("a calendar sync is already in progress").
			WithDetails(map[string]any{"syncAttempts": appt.SyncAttempts})
	}
	if err := s.repo.SaveAppointment(ctx, p, appt); err != nil {
		return nil, err
	}

	externalID, syncErr := s.calendar.Upsert(ctx, s.calendarEvent(appt))
	if syncErr != nil {
		appt.FailSync(syncErr.Error())
		s.metrics.IncCalendarSync("failed")
		s.log.WithContext(ctx).Warn("calendar sync failed", "appointmentId", appt.ID, "attempts", appt.SyncAttempts, "error", syncErr)
	} else {
		appt.CompleteSync(externalID)
		s.metrics.IncCalendarSync("synced")
	}
	if err := s.repo.SaveAppointment(ctx, p, appt); err != nil {
		return nil, err
	}

	result := events.AppointmentSyncResult{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: appt.ID,
		TenantID:      appt.TenantID,
		Succeeded:     syncErr == nil,
		Attempts:      appt.SyncAttempts,
	}
	if appt.ExternalEventID != nil {
		result.ExternalEventID = *appt.ExternalEventID
	}
	if syncErr != nil {
		result.Error = syncErr.Error()
	}
	s.publish(ctx, result)
	return appt, nil
}

func (s *Service) calendarEvent(a *domain.Appointment) calendar.Event {
	y, m, d := a.Date.Date()
	start := time.Date(y, m, d, int(a.StartTime)/60, int(a.StartTime)%60, 0, 0, s.loc)
	ev := calendar.Event{
		Summary:  a.Title,
		Start:    start,
		End:      start.Add(time.Duration(a.EstimatedDuration) * time.Minute),
		Canceled: a.Status == domain.StatusCanceled,
	}
	if ev.Summary == "" {
		ev.Summary = string(a.Type)
	}
	if a.Notes != nil {
		ev.Description = *a.Notes
	}
	if a.ExternalEventID != nil {
		ev.ExternalID = *a.ExternalEventID
	}
	return ev
}

// EnqueueSync schedules a single sync attempt in the background. Without a
// queue the attempt runs inline.
func (s *Service) EnqueueSync(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Appointment, error) {
	appt, err := s.repo.FindAppointment(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if s.enqueuer == nil {
		return s.SyncWithExternalCalendar(ctx, p, id)
	}
	if err := s.enqueuer.EnqueueCalendarSync(ctx, p, appt.ID); err != nil {
		return nil, fmt.Errorf("enqueue calendar sync: %w", err)
	}
	return appt, nil
}

// GetAvailableSlots lists the agent's free slots on date that can hold duration.
func (s *Service) GetAvailableSlots(ctx context.Context, p *access.Principal, agentID uuid.UUID, date time.Time, duration int) ([]*domain.Slot, error) {
	slots, err := s.repo.AvailableSlots(ctx, p, agentID, date)
	if err != nil {
		return nil, err
	}
	booked, err := s.repo.ActiveForAgent(ctx, p, agentID, date)
	if err != nil {
		return nil, err
	}
	return domain.FreeSlots(slots, booked, duration, uuid.Nil), nil
}

// AvailableSlotsRequest parses a transport request and runs GetAvailableSlots.
func (s *Service) AvailableSlotsRequest(ctx context.Context, p *access.Principal, req transport.AvailableSlotsRequest) ([]*domain.Slot, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	return s.GetAvailableSlots(ctx, p, agentOr(req.AgentID, p), date, req.Duration)
}

// GetStats aggregates every appointment in scope.
func (s *Service) GetStats(ctx context.Context, p *access.Principal) (domain.Stats, error) {
	all, err := s.repo.ListAppointments(ctx, p, entity.ListParams{})
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.ComputeStats(all.Items, s.now().In(s.loc)), nil
}

// List returns one page of appointments in scope.
func (s *Service) List(ctx context.Context, p *access.Principal, req transport.ListAppointmentsRequest) (entity.ListResult[domain.Appointment], error) {
	params := entity.ListParams{SortBy: req.SortBy, SortOrder: req.SortOrder, Page: req.Page, PageSize: req.PageSize}
	if params.PageSize == 0 {
		params.PageSize = 25
	}
	if req.AgentID != nil {
		params.Filters = append(params.Filters, entity.Eq("owner_id", *req.AgentID))
	}
	if req.ContactID != nil {
		params.Filters = append(params.Filters, entity.Eq("contact_id", *req.ContactID))
	}
	if req.Status != "" {
		params.Filters = append(params.Filters, entity.Eq("status", req.Status))
	}
	if req.Type != "" {
		params.Filters = append(params.Filters, entity.Eq("type", req.Type))
	}
	if req.SyncStatus != "" {
		params.Filters = append(params.Filters, entity.Eq("sync_status", req.SyncStatus))
	}
	if req.From != "" {
		from, err := parseDate(req.From)
		if err != nil {
			return entity.ListResult[domain.Appointment]{}, err
		}
		params.Filters = append(params.Filters, entity.Filter{Column: "date", Op: entity.OpGte, Value: from})
	}
	if req.To != "" {
		to, err := parseDate(req.To)
		if err != nil {
			return entity.ListResult[domain.Appointment]{}, err
		}
		params.Filters = append(params.Filters, entity.Filter{Column: "date", Op: entity.OpLte, Value: to})
	}
	return s.repo.ListAppointments(ctx, p, params)
}

// Get returns one appointment in scope.
func (s *Service) Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Appointment, error) {
	return s.repo.FindAppointment(ctx, p, id)
}

// Delete removes an appointment and frees its slot.
func (s *Service) Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	var appt *domain.Appointment
	err := s.tx.WithTx(ctx, func(q db.Querier) error {
		repo := s.repo.WithQuerier(q)
		a, err := repo.FindAppointment(ctx, p, id)
		if err != nil {
			return err
		}
		if a.AvailabilitySlotID != nil {
			if err := repo.ReleaseSlot(ctx, *a.AvailabilitySlotID, a.ID); err != nil {
				return err
			}
		}
		appt = a
		return repo.DeleteAppointment(ctx, p, id)
	})
	if err != nil {
		return err
	}
	s.repo.NotifyAppointment(ctx, p, "deleted", appt)
	return nil
}

// CreateSlot opens a bookable window for an agent.
func (s *Service) CreateSlot(ctx context.Context, p *access.Principal, req transport.CreateSlotRequest) (*domain.Slot, error) {
	date, start, err := parseDateTime(req.Date, req.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseClock(req.EndTime)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if end <= start {
		return nil, apperr.Validation("endTime must be after startTime")
	}

	slot := &domain.Slot{
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Duration:  int(end - start),
		Status:    domain.SlotAvailable,
	}
	slot.OwnerID = agentOr(req.AgentID, p)
	if err := s.repo.CreateSlot(ctx, p, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// ListSlots returns slots in scope.
func (s *Service) ListSlots(ctx context.Context, p *access.Principal, req transport.ListSlotsRequest) (entity.ListResult[domain.Slot], error) {
	params := entity.ListParams{SortBy: "date", SortOrder: "asc", Page: req.Page, PageSize: req.PageSize}
	if params.PageSize == 0 {
		params.PageSize = 50
	}
	if req.AgentID != nil {
		params.Filters = append(params.Filters, entity.Eq("owner_id", *req.AgentID))
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			return entity.ListResult[domain.Slot]{}, err
		}
		params.Filters = append(params.Filters, entity.Eq("date", date))
	}
	if req.Status != "" {
		params.Filters = append(params.Filters, entity.Eq("status", req.Status))
	}
	return s.repo.ListSlots(ctx, p, params)
}

// DeleteSlot removes an unbooked slot. Booked slots must be freed by
// canceling or rescheduling their appointment first.
func (s *Service) DeleteSlot(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	slot, err := s.repo.FindSlot(ctx, p, id)
	if err != nil {
		return err
	}
	if slot.Status == domain.SlotBooked {
		return apperr.Conflict("slot is booked").WithDetails(map[string]any{"appointmentId": slot.AppointmentID})
	}
	return s.repo.DeleteSlot(ctx, p, id)
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, e)
}

func (s *Service) recordActivity(ctx context.Context, p *access.Principal, a *domain.Appointment, kind string, metadata map[string]any) {
	if s.activity == nil {
		return
	}
	contactID := a.ContactID
	metadata["appointmentId"] = a.ID
	err := s.activity.Record(ctx, audit.Entry{
		TenantID:   a.TenantID,
		Type:       kind,
		EntityType: repository.AppointmentEntityType,
		EntityID:   a.ID,
		ActorID:    p.ID,
		ContactID:  &contactID,
		Metadata:   metadata,
	})
	if err != nil {
		s.log.WithContext(ctx).AuditFailure(repository.AppointmentEntityType, a.ID.String(), kind, err)
		s.metrics.IncAuditFailure(repository.AppointmentEntityType)
	}
}

func agentOr(agentID *uuid.UUID, p *access.Principal) uuid.UUID {
	if agentID != nil && *agentID != uuid.Nil {
		return *agentID
	}
	if p == nil {
		return uuid.Nil
	}
	return p.ID
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(dateFormat, value)
	if err != nil {
		return time.Time{}, apperr.Validation("dates must use YYYY-MM-DD")
	}
	return date, nil
}

func parseDateTime(dateValue, clockValue string) (time.Time, domain.Clock, error) {
	date, err := parseDate(dateValue)
	if err != nil {
		return time.Time{}, 0, err
	}
	start, err := domain.ParseClock(clockValue)
	if err != nil {
		return time.Time{}, 0, apperr.Validation(err.Error())
	}
	return date, start, nil
}
