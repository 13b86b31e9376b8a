// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"estate_crm_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	Named       = events.Named
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// Event names used by subscribers.
const (
	NameContactScoreUpdated = "contacts.score_updated"

	NameDealStageChanged = "deals.stage_changed"
	NameDealWon          = "deals.won"
	NameDealLost         = "deals.lost"

	NameAppointmentCreated       = "appointments.created"
	NameAppointmentConfirmed     = "appointments.confirmed"
	NameAppointmentCompleted     = "appointments.completed"
	NameAppointmentCanceled      = "appointments.canceled"
	NameAppointmentStatusChanged = "appointments.status_changed"
	NameAppointmentRescheduled   = "appointments.rescheduled"
	NameAppointmentSynced        = "appointments.synced"
	NameAppointmentSyncFailed    = "appointments.sync_failed"
)

// =============================================================================
// Contact Domain Events
// =============================================================================

// ContactScoreUpdated is published after every lead score write.
type ContactScoreUpdated struct {
	BaseEvent
	ContactID uuid.UUID `json:"contactId"`
	TenantID  uuid.UUID `json:"tenantId"`
	ActorID   uuid.UUID `json:"actorId"`
	Score     int       `json:"score"`
	Previous  int       `json:"previous"`
	Reason    string    `json:"reason"`
}

func (e ContactScoreUpdated) EventName() string { return NameContactScoreUpdated }

// =============================================================================
// Deal Domain Events
// =============================================================================

// DealStageChanged is published after a committed stage transition.
type DealStageChanged struct {
	BaseEvent
	DealID     uuid.UUID `json:"dealId"`
	TenantID   uuid.UUID `json:"tenantId"`
	ActorID    uuid.UUID `json:"actorId"`
	ClientID   uuid.UUID `json:"clientId"`
	PropertyID uuid.UUID `json:"propertyId"`
	AgentID    uuid.UUID `json:"agentId"`
	FromStage  string    `json:"fromStage"`
	ToStage    string    `json:"toStage"`
	Value      float64   `json:"value"`
	Reason     string    `json:"reason,omitempty"`
}

func (e DealStageChanged) EventName() string { return NameDealStageChanged }

// DealClosed carries the deal facts downstream consumers need when a deal is
// won or lost. Won selects the event name.
type DealClosed struct {
	BaseEvent
	Won        bool      `json:"won"`
	DealID     uuid.UUID `json:"dealId"`
	TenantID   uuid.UUID `json:"tenantId"`
	Value      float64   `json:"value"`
	ClientID   uuid.UUID `json:"clientId"`
	PropertyID uuid.UUID `json:"propertyId"`
	AgentID    uuid.UUID `json:"agentId"`
	ClosedAt   time.Time `json:"closedAt"`
}

func (e DealClosed) EventName() string {
	if e.Won {
		return NameDealWon
	}
	return NameDealLost
}

// =============================================================================
// Appointment Domain Events
// =============================================================================

// AppointmentCreated is published after a booking is committed.
type AppointmentCreated struct {
	BaseEvent
	AppointmentID uuid.UUID  `json:"appointmentId"`
	TenantID      uuid.UUID  `json:"tenantId"`
	AgentID       uuid.UUID  `json:"agentId"`
	ContactID     uuid.UUID  `json:"contactId"`
	SlotID        *uuid.UUID `json:"slotId,omitempty"`
	Date          time.Time  `json:"date"`
	StartMinute   int        `json:"startMinute"`
	Duration      int        `json:"duration"`
}

func (e AppointmentCreated) EventName() string { return NameAppointmentCreated }

// AppointmentStatusChanged is published after a status change. The event name
// is specific for confirmed, completed and canceled.
type AppointmentStatusChanged struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	TenantID      uuid.UUID `json:"tenantId"`
	ActorID       uuid.UUID `json:"actorId"`
	ContactID     uuid.UUID `json:"contactId"`
	From          string    `json:"from"`
	To            string    `json:"to"`
}

func (e AppointmentStatusChanged) EventName() string {
	switch e.To {
	case "confirmed":
		return NameAppointmentConfirmed
	case "completed":
		return NameAppointmentCompleted
	case "canceled":
		return NameAppointmentCanceled
	default:
		return NameAppointmentStatusChanged
	}
}

// AppointmentRescheduled is published after a reschedule is committed.
type AppointmentRescheduled struct {
	BaseEvent
	AppointmentID  uuid.UUID `json:"appointmentId"`
	TenantID       uuid.UUID `json:"tenantId"`
	ActorID        uuid.UUID `json:"actorId"`
	ContactID      uuid.UUID `json:"contactId"`
	OldDate        time.Time `json:"oldDate"`
	OldStartMinute int       `json:"oldStartMinute"`
	NewDate        time.Time `json:"newDate"`
	NewStartMinute int       `json:"newStartMinute"`
	Reason         string    `json:"reason,omitempty"`
}

func (e AppointmentRescheduled) EventName() string { return NameAppointmentRescheduled }

// AppointmentSyncResult is published after an external calendar sync attempt.
type AppointmentSyncResult struct {
	BaseEvent
	AppointmentID   uuid.UUID `json:"appointmentId"`
	TenantID        uuid.UUID `json:"tenantId"`
	Succeeded       bool      `json:"succeeded"`
	ExternalEventID string    `json:"externalEventId,omitempty"`
	Error           string    `json:"error,omitempty"`
	Attempts        int       `json:"attempts"`
}

func (e AppointmentSyncResult) EventName() string {
	if e.Succeeded {
		return NameAppointmentSynced
	}
	return NameAppointmentSyncFailed
}
