package domain

import (
	"time"

	"estate_crm_backend/internal/entity"

	"github.com/google/uuid"
)

// SlotStatus tells whether a slot can still be booked.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
)

// Slot is a bookable window owned by an agent. Slots carry no tenant column;
// tenant admins reach them through the agents of their tenant.
type Slot struct {
	entity.Meta
	Date          time.Time  `json:"date"`
	StartTime     Clock      `json:"startTime"`
	EndTime       Clock      `json:"endTime"`
	Duration      int        `json:"duration"`
	Status        SlotStatus `json:"status"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
}

// AgentID is the owning agent.
func (s *Slot) AgentID() uuid.UUID { return s.OwnerID }

// Fits reports whether a booking of duration minutes fits in the slot.
func (s *Slot) Fits(duration int) bool {
	return s.Status == SlotAvailable && int(s.EndTime-s.StartTime) >= duration
}
