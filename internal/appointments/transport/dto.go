package transport

import (
	"estate_crm_backend/internal/appointments/domain"

	"github.com/google/uuid"
)

// CreateAppointmentRequest books an appointment. AgentID defaults to the caller.
type CreateAppointmentRequest struct {
	AgentID            *uuid.UUID      `json:"agentId,omitempty"`
	ContactID          uuid.UUID       `json:"contactId" validate:"required"`
	PropertyID         *uuid.UUID      `json:"propertyId,omitempty"`
	Type               domain.Type     `json:"type" validate:"required,oneof=viewing valuation meeting call signing"`
	Priority           domain.Priority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Title              string          `json:"title" validate:"max=200"`
	Date               string          `json:"date" validate:"required,isodate"`
	StartTime          string          `json:"startTime" validate:"required,clock"`
	EstimatedDuration  int             `json:"estimatedDuration" validate:"required,min=5,max=720"`
	AvailabilitySlotID *uuid.UUID      `json:"availabilitySlotId,omitempty"`
	Notes              *string         `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// CheckConflictsRequest asks whether a booking would overlap.
type CheckConflictsRequest struct {
	AgentID   *uuid.UUID `form:"agentId"`
	Date      string     `form:"date" validate:"required,isodate"`
	StartTime string     `form:"startTime" validate:"required,clock"`
	Duration  int        `form:"duration" validate:"required,min=5,max=720"`
	ExcludeID *uuid.UUID `form:"excludeId"`
}

// UpdateStatusRequest changes an appointment's status.
type UpdateStatusRequest struct {
	Status domain.Status `json:"status" validate:"required,oneof=pending confirmed completed canceled"`
	Notes  *string       `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// RescheduleRequest moves an appointment. StartTime defaults to the current one.
type RescheduleRequest struct {
	Date      string  `json:"date" validate:"required,isodate"`
	StartTime *string `json:"startTime,omitempty" validate:"omitempty,clock"`
	Reason    string  `json:"reason,omitempty" validate:"max=500"`
}

// ListAppointmentsRequest is the query parameters for listing appointments.
type ListAppointmentsRequest struct {
	AgentID    *uuid.UUID `form:"agentId"`
	ContactID  *uuid.UUID `form:"contactId"`
	Status     string     `form:"status" validate:"omitempty,oneof=pending confirmed completed canceled"`
	Type       string     `form:"type" validate:"omitempty,oneof=viewing valuation meeting call signing"`
	SyncStatus string     `form:"syncStatus" validate:"omitempty,oneof=idle syncing synced failed"`
	From       string     `form:"from" validate:"omitempty,isodate"`
	To         string     `form:"to" validate:"omitempty,isodate"`
	SortBy     string     `form:"sortBy" validate:"omitempty,oneof=createdAt date startTime priority status"`
	SortOrder  string     `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page       int        `form:"page" validate:"omitempty,min=1"`
	PageSize   int        `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// AvailableSlotsRequest lists bookable slots for an agent and date.
type AvailableSlotsRequest struct {
	AgentID  *uuid.UUID `form:"agentId"`
	Date     string     `form:"date" validate:"required,isodate"`
	Duration int        `form:"duration" validate:"required,min=5,max=720"`
}

// CreateSlotRequest opens a bookable window. AgentID defaults to the caller.
type CreateSlotRequest struct {
	AgentID   *uuid.UUID `json:"agentId,omitempty"`
	Date      string     `json:"date" validate:"required,isodate"`
	StartTime string     `json:"startTime" validate:"required,clock"`
	EndTime   string     `json:"endTime" validate:"required,clock"`
}

// ListSlotsRequest is the query parameters for listing slots.
type ListSlotsRequest struct {
	AgentID  *uuid.UUID `form:"agentId"`
	Date     string     `form:"date" validate:"omitempty,isodate"`
	Status   string     `form:"status" validate:"omitempty,oneof=available booked"`
	Page     int        `form:"page" validate:"omitempty,min=1"`
	PageSize int        `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ConflictCheckResponse reports overlaps and alternatives.
type ConflictCheckResponse struct {
	HasConflict bool `json:"hasConflict"`
	domain.ConflictDetails
}
