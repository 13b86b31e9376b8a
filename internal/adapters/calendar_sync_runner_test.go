package adapters

import (
	"context"
	"testing"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/appointments/domain"
	"estate_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

type stubSyncer struct {
	appt *domain.Appointment
	err  error
}

func (s stubSyncer) SyncWithExternalCalendar(context.Context, *access.Principal, uuid.UUID) (*domain.Appointment, error) {
	return s.appt, s.err
}

func TestCalendarSyncRunnerReportsRecordedFailure(t *testing.T) {
	msg := "quota exceeded"
	appt := &domain.Appointment{SyncStatus: domain.SyncFailed, SyncError: &msg, SyncAttempts: 2}
	runner := NewCalendarSyncRunner(stubSyncer{appt: appt})

	err := runner.SyncAppointment(context.Background(), &access.Principal{}, uuid.New())
	if !apperr.Is(err, apperr.KindExternalSyncFailure) {
		t.Fatalf("expected external sync failure, got %v", err)
	}
}

func TestCalendarSyncRunnerSuccess(t *testing.T) {
	runner := NewCalendarSyncRunner(stubSyncer{appt: &domain.Appointment{SyncStatus: domain.SyncSynced}})

	if err := runner.SyncAppointment(context.Background(), &access.Principal{}, uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCalendarSyncRunnerPassesThroughErrors(t *testing.T) {
	runner := NewCalendarSyncRunner(stubSyncer{err: apperr.Conflict("a calendar sync is already in progress")})

	err := runner.SyncAppointment(context.Background(), &access.Principal{}, uuid.New())
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
