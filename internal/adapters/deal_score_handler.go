package adapters

import (
	"context"
	"fmt"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/contacts/scoring"
	"estate_crm_backend/internal/deals/domain"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// ScoreAdjuster applies a relative lead score change.
type ScoreAdjuster interface {
	AdjustScore(ctx context.Context, p *access.Principal, contactID uuid.UUID, delta int, reason string) (*scoring.Result, error)
}

// DealScoreHandler moves the client's lead score when a deal changes stage.
// The client may be owned by another agent of the tenant, so the adjustment
// runs as the tenant's system principal, triggered by the acting user.
type DealScoreHandler struct {
	scoring ScoreAdjuster
	log     *logger.Logger
}

// NewDealScoreHandler creates the handler.
func NewDealScoreHandler(s ScoreAdjuster, log *logger.Logger) *DealScoreHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &DealScoreHandler{scoring: s, log: log}
}

// Subscribe registers the handler for deal stage changes.
func (h *DealScoreHandler) Subscribe(bus events.Bus) {
	bus.Subscribe(events.NameDealStageChanged, h)
}

// Handle implements events.Handler.
func (h *DealScoreHandler) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DealStageChanged)
	if !ok {
		return nil
	}
	delta := domain.ScoreDelta(domain.Stage(e.ToStage))
	if delta == 0 {
		return nil
	}

	p := access.SystemPrincipal(e.TenantID, e.ActorID)
	reason := fmt.Sprintf("deal moved to %s", e.ToStage)
	if _, err := h.scoring.AdjustScore(ctx, p, e.ClientID, delta, reason); err != nil {
		h.log.WithContext(ctx).Error("lead score adjustment failed", "error", err, "dealId", e.DealID, "clientId", e.ClientID)
		return err
	}
	return nil
}

// Compile-time check.
var _ events.Handler = (*DealScoreHandler)(nil)
