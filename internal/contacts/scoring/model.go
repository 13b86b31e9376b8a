// Package scoring computes and persists the bounded lead score of a contact.
package scoring

import (
	"time"

	"estate_crm_backend/internal/contacts/domain"
)

const (
	baseScore            = 10
	pointsPerInteraction = 2
	maxInteractionPoints = 20
	qualifiedBonus       = 10
	budgetBonus          = 10
	activeDealBonus      = 15
	appointmentBonus     = 10
	decayStep            = 10
)

var stageWeights = map[domain.LeadStage]int{
	domain.StageNew:         0,
	domain.StageContacted:   15,
	domain.StageQualified:   25,
	domain.StageInterested:  35,
	domain.StageNegotiating: 40,
	domain.StageConverted:   50,
	domain.StageLost:        -50,
}

// inactivity thresholds in days; each one crossed costs decayStep points.
var decayThresholds = []int{30, 60, 90}

// Inputs are the signals a recalculation reads.
type Inputs struct {
	Stage             domain.LeadStage
	InteractionCount  int
	IsQualified       bool
	HasBudget         bool
	ActiveDeals       int
	Appointments      int
	LastInteractionAt *time.Time
}

// InputsFor extracts the contact-owned signals.
func InputsFor(c *domain.Contact, activeDeals, appointments int) Inputs {
	return Inputs{
		Stage:             c.LeadStage,
		InteractionCount:  c.InteractionCount,
		IsQualified:       c.IsQualified,
		HasBudget:         c.Budget != nil,
		ActiveDeals:       activeDeals,
		Appointments:      appointments,
		LastInteractionAt: c.LastInteractionAt,
	}
}

// Breakdown itemises a computed score.
type Breakdown struct {
	Base         int `json:"base"`
	Stage        int `json:"stage"`
	Interactions int `json:"interactions"`
	Qualified    int `json:"qualified"`
	Budget       int `json:"budget"`
	ActiveDeal   int `json:"activeDeal"`
	Appointment  int `json:"appointment"`
	Decay        int `json:"decay"`
	Total        int `json:"total"`
}

// Compute derives a score from scratch. It is pure: equal inputs and now give
// equal results. A contact that never interacted does not decay.
func Compute(in Inputs, now time.Time) Breakdown {
	b := Breakdown{
		Base:         baseScore,
		Stage:        stageWeights[in.Stage],
		Interactions: min(max(in.InteractionCount, 0)*pointsPerInteraction, maxInteractionPoints),
	}
	if in.IsQualified {
		b.Qualified = qualifiedBonus
	}
	if in.HasBudget {
		b.Budget = budgetBonus
	}
	if in.ActiveDeals > 0 {
		b.ActiveDeal = activeDealBonus
	}
	if in.Appointments > 0 {
		b.Appointment = appointmentBonus
	}
	if in.LastInteractionAt != nil {
		days := int(now.Sub(*in.LastInteractionAt).Hours() / 24)
		for _, threshold := range decayThresholds {
			if days >= threshold {
				b.Decay -= decayStep
			}
		}
	}

	raw := b.Base + b.Stage + b.Interactions + b.Qualified + b.Budget + b.ActiveDeal + b.Appointment + b.Decay
	b.Total = domain.ClampScore(raw)
	return b
}
