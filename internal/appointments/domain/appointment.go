// Package domain holds the appointment scheduling rules: clock arithmetic,
// overlap detection, status and calendar sync state machines, and statistics.
package domain

import (
	"slices"
	"time"

	"estate_crm_backend/internal/entity"

	"github.com/google/uuid"
)

// Type is the kind of appointment.
type Type string

const (
	TypeViewing   Type = "viewing"
	TypeValuation Type = "valuation"
	TypeMeeting   Type = "meeting"
	TypeCall      Type = "call"
	TypeSigning   Type = "signing"
)

// Priority orders appointments for the agent.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// SyncStatus tracks the external calendar copy.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCompleted, StatusCanceled},
	StatusConfirmed: {StatusCompleted, StatusCanceled},
	StatusCompleted: {},
	StatusCanceled:  {},
}

var syncTransitions = map[SyncStatus][]SyncStatus{
	SyncIdle:    {SyncSyncing},
	SyncSyncing: {SyncSynced, SyncFailed},
	SyncSynced:  {SyncSyncing},
	SyncFailed:  {SyncSyncing},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Active reports whether the appointment still occupies the agent's time.
func (s Status) Active() bool { return s == StatusPending || s == StatusConfirmed }

// CanTransition reports whether an appointment may move from one status to another.
func CanTransition(from, to Status) bool {
	return slices.Contains(statusTransitions[from], to)
}

// NextStatuses lists the statuses reachable from s.
func NextStatuses(s Status) []Status { return slices.Clone(statusTransitions[s]) }

// CanSync reports whether the sync state may move from one value to another.
func CanSync(from, to SyncStatus) bool {
	return slices.Contains(syncTransitions[from], to)
}

// Appointment is a booked meeting between an agent and a contact. The owner is
// the agent.
type Appointment struct {
	entity.Meta
	ContactID          uuid.UUID  `json:"contactId"`
	PropertyID         *uuid.UUID `json:"propertyId,omitempty"`
	Type               Type       `json:"type"`
	Priority           Priority   `json:"priority"`
	Title              string     `json:"title"`
	Date               time.Time  `json:"date"`
	StartTime          Clock      `json:"startTime"`
	EstimatedDuration  int        `json:"estimatedDuration"`
	ActualDuration     *int       `json:"actualDuration,omitempty"`
	Status             Status     `json:"status"`
	AvailabilitySlotID *uuid.UUID `json:"availabilitySlotId,omitempty"`
	ReschedulingCount  int        `json:"reschedulingCount"`
	LastRescheduledAt  *time.Time `json:"lastRescheduledAt,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	CanceledAt         *time.Time `json:"canceledAt,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	SyncStatus         SyncStatus `json:"syncStatus"`
	SyncAttempts       int        `json:"syncAttempts"`
	LastSyncAt         *time.Time `json:"lastSyncAt,omitempty"`
	SyncError          *string    `json:"syncError,omitempty"`
	ExternalEventID    *string    `json:"externalEventId,omitempty"`
}

// AgentID is the responsible agent.
func (a *Appointment) AgentID() uuid.UUID { return a.OwnerID }

// EndTime is the end of the booked interval.
func (a *Appointment) EndTime() Clock { return a.StartTime.Add(a.EstimatedDuration) }

// Overlaps reports whether the appointment intersects [start, end) on date.
func (a *Appointment) Overlaps(date time.Time, start, end Clock) bool {
	return DateOnly(a.Date).Equal(DateOnly(date)) && Overlaps(a.StartTime, a.EndTime(), start, end)
}

// ApplyStatus moves the appointment to status and stamps the matching
// timestamps. Completing freezes the actual duration from the estimate unless
// one was recorded.
func (a *Appointment) ApplyStatus(status Status, at time.Time) {
	a.Status = status
	switch status {
	case StatusCompleted:
		a.CompletedAt = &at
		if a.ActualDuration == nil {
			d := a.EstimatedDuration
			a.ActualDuration = &d
		}
	case StatusCanceled:
		a.CanceledAt = &at
	}
}

// BeginSync starts a sync attempt. Every attempt is counted, including one
// rejected because another is still in flight; a rejected attempt leaves
// LastSyncAt alone so the in-flight sync can still be detected as stale.
func (a *Appointment) BeginSync(at time.Time) bool {
	a.SyncAttempts++
	if !CanSync(a.SyncStatus, SyncSyncing) {
		return false
	}
	a.SyncStatus = SyncSyncing
	a.LastSyncAt = &at
	return true
}

// CompleteSync records a successful attempt.
func (a *Appointment) CompleteSync(externalEventID string) {
	a.SyncStatus = SyncSynced
	a.SyncError = nil
	if externalEventID != "" {
		a.ExternalEventID = &externalEventID
	}
}

// FailSync records a failed attempt and its message.
func (a *Appointment) FailSync(message string) {
	a.SyncStatus = SyncFailed
	a.SyncError = &message
}
