// Package domain holds the contact model and its invariants.
package domain

import (
	"time"

	"estate_crm_backend/internal/entity"
	"estate_crm_backend/platform/apperr"
)

// Category classifies a contact.
type Category string

const (
	CategoryClient  Category = "client"
	CategoryLead    Category = "lead"
	CategoryPartner Category = "partner"
)

// LeadStage is the contact's position in the lead funnel.
type LeadStage string

const (
	StageNew         LeadStage = "new"
	StageContacted   LeadStage = "contacted"
	StageQualified   LeadStage = "qualified"
	StageInterested  LeadStage = "interested"
	StageNegotiating LeadStage = "negotiating"
	StageConverted   LeadStage = "converted"
	StageLost        LeadStage = "lost"
)

// Valid reports whether s is a known stage.
func (s LeadStage) Valid() bool {
	switch s {
	case StageNew, StageContacted, StageQualified, StageInterested, StageNegotiating, StageConverted, StageLost:
		return true
	}
	return false
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryClient || c == CategoryLead || c == CategoryPartner
}

const (
	MinScore = 0
	MaxScore = 100
)

// Contact is a person the agency deals with.
type Contact struct {
	entity.Meta
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	Email             *string    `json:"email,omitempty"`
	Phone             *string    `json:"phone,omitempty"`
	Category          Category   `json:"category"`
	Status            string     `json:"status"`
	LeadStage         LeadStage  `json:"leadStage"`
	LeadScore         int        `json:"leadScore"`
	IsQualified       bool       `json:"isQualified"`
	Budget            *float64   `json:"budget,omitempty"`
	InteractionCount  int        `json:"interactionCount"`
	LastInteractionAt *time.Time `json:"lastInteractionAt,omitempty"`
}

// ClampScore bounds a score to [MinScore, MaxScore].
func ClampScore(score int) int {
	return min(max(score, MinScore), MaxScore)
}

// SetStage moves the contact to stage. Converting promotes the contact to a
// client; leaving converted demotes a client back to a lead.
func (c *Contact) SetStage(stage LeadStage) {
	c.LeadStage = stage
	if stage == StageConverted {
		c.Category = CategoryClient
		return
	}
	if c.Category == CategoryClient {
		c.Category = CategoryLead
	}
}

// RecordInteraction counts one interaction at t.
func (c *Contact) RecordInteraction(t time.Time) {
	c.InteractionCount++
	c.LastInteractionAt = &t
}

// Validate checks the contact invariants.
func (c *Contact) Validate() error {
	if c.FirstName == "" {
		return apperr.Validation("first name is required")
	}
	if !c.Category.Valid() {
		return apperr.Validation("invalid category " + string(c.Category))
	}
	if !c.LeadStage.Valid() {
		return apperr.Validation("invalid lead stage " + string(c.LeadStage))
	}
	if c.Category == CategoryClient && c.LeadStage != StageConverted {
		return apperr.Validation("only converted contacts can be clients")
	}
	if c.LeadScore != ClampScore(c.LeadScore) {
		return apperr.Validation("lead score must be between 0 and 100")
	}
	if c.Budget != nil && *c.Budget < 0 {
		return apperr.Validation("budget cannot be negative")
	}
	return nil
}
