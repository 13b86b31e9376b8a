package scheduler

import (
	"encoding/json"
	"fmt"

	"estate_crm_backend/internal/access"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskCalendarSync = "appointments.calendar_sync"

// CalendarSyncPayload carries the appointment and the principal that
// requested the sync. The worker replays the request with that principal so
// visibility rules still apply.
type CalendarSyncPayload struct {
	AppointmentID string `json:"appointmentId"`
	TenantID      string `json:"tenantId"`
	ActorID       string `json:"actorId"`
	Role          string `json:"role"`
}

func NewCalendarSyncTask(payload CalendarSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCalendarSync, data), nil
}

func ParseCalendarSyncPayload(task *asynq.Task) (CalendarSyncPayload, error) {
	var payload CalendarSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CalendarSyncPayload{}, err
	}
	return payload, nil
}

// Decode validates the payload and returns the principal and appointment ID.
func (p CalendarSyncPayload) Decode() (*access.Principal, uuid.UUID, error) {
	apptID, err := uuid.Parse(p.AppointmentID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("appointment id: %w", err)
	}
	tenantID, err := uuid.Parse(p.TenantID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("tenant id: %w", err)
	}
	actorID, err := uuid.Parse(p.ActorID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("actor id: %w", err)
	}
	role := access.Role(p.Role)
	if !role.Valid() {
		return nil, uuid.Nil, fmt.Errorf("unknown role %q", p.Role)
	}
	return &access.Principal{ID: actorID, TenantID: tenantID, Role: role}, apptID, nil
}
