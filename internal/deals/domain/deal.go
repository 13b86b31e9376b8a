// Package domain holds the deal pipeline state machine and the pure
// computations built on it. Nothing here performs I/O.
package domain

import (
	"time"

	"estate_crm_backend/internal/entity"

	"github.com/google/uuid"
)

// Stage is a position in the sales pipeline.
type Stage string

const (
	StageLeadIn        Stage = "lead_in"
	StageQualification Stage = "qualification"
	StageProposal      Stage = "proposal"
	StageNegotiation   Stage = "negotiation"
	StageWon           Stage = "won"
	StageLost          Stage = "lost"
)

// Status is derived from the stage: closed exactly when won or lost.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Deal is a sale in progress. The owner is the responsible agent.
type Deal struct {
	entity.Meta
	Title             string     `json:"title"`
	Value             float64    `json:"value"`
	Stage             Stage      `json:"stage"`
	Status            Status     `json:"status"`
	ClientID          uuid.UUID  `json:"clientId"`
	PropertyID        uuid.UUID  `json:"propertyId"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate,omitempty"`
	ClosedAt          *time.Time `json:"closedAt,omitempty"`
}

// AgentID is the responsible agent.
func (d *Deal) AgentID() uuid.UUID { return d.OwnerID }

// Terminal reports whether the stage closes the deal.
func (s Stage) Terminal() bool { return s == StageWon || s == StageLost }

// ApplyStage moves the deal to stage and keeps status and ClosedAt consistent:
// ClosedAt is set iff the stage is won or lost. Reopening clears it.
func (d *Deal) ApplyStage(stage Stage, at time.Time) {
	d.Stage = stage
	if stage.Terminal() {
		d.Status = StatusClosed
		d.ClosedAt = &at
		return
	}
	d.Status = StatusOpen
	d.ClosedAt = nil
}

// StageHistory is one append-only transition record.
type StageHistory struct {
	ID          uuid.UUID `json:"id"`
	DealID      uuid.UUID `json:"dealId"`
	FromStage   Stage     `json:"fromStage"`
	ToStage     Stage     `json:"toStage"`
	ChangedAt   time.Time `json:"changedAt"`
	ChangedBy   uuid.UUID `json:"changedBy"`
	DaysInStage int       `json:"daysInStage"`
	Reason      *string   `json:"reason,omitempty"`
}
