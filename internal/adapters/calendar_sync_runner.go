package adapters

import (
	"context"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/appointments/domain"
	"estate_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// AppointmentSyncer runs one sync attempt and returns the recorded outcome.
type AppointmentSyncer interface {
	SyncWithExternalCalendar(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Appointment, error)
}

// CalendarSyncRunner lets the task worker drive the scheduler. A recorded
// failure is surfaced as an external_sync_failure so the worker can report it.
type CalendarSyncRunner struct {
	syncer AppointmentSyncer
}

// NewCalendarSyncRunner creates the runner.
func NewCalendarSyncRunner(s AppointmentSyncer) *CalendarSyncRunner {
	return &CalendarSyncRunner{syncer: s}
}

// SyncAppointment implements scheduler.CalendarSyncer.
func (r *CalendarSyncRunner) SyncAppointment(ctx context.Context, p *access.Principal, appointmentID uuid.UUID) error {
	appt, err := r.syncer.SyncWithExternalCalendar(ctx, p, appointmentID)
	if err != nil {
		return err
	}
	if appt.SyncStatus != domain.SyncFailed {
		return nil
	}
	msg := "calendar sync failed"
	if appt.SyncError != nil {
		msg = *appt.SyncError
	}
	return apperr.New(apperr.KindExternalSyncFailure, msg).
		WithDetails(map[string]any{"appointmentId": appt.ID, "attempts": appt.SyncAttempts})
}
