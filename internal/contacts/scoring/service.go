package scoring

import (
	"context"
	"log/slog"
	"time"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/audit"
	"estate_crm_backend/internal/contacts/domain"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RecalculationReason is recorded for every automatic recomputation.
const RecalculationReason = "automatic recalculation"

const activityScoreUpdated = "lead_score_updated"

// ContactStore reads and writes contacts within the principal's scope.
type ContactStore interface {
	FindByID(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Contact, error)
	Update(ctx context.Context, p *access.Principal, id uuid.UUID, mutate func(*domain.Contact) error) (*domain.Contact, error)
}

// SignalStore counts the related records that feed the score.
type SignalStore interface {
	CountActiveDeals(ctx context.Context, contactID uuid.UUID) (int, error)
	CountAppointments(ctx context.Context, contactID uuid.UUID) (int, error)
}

// Result is the outcome of a score write.
type Result struct {
	ContactID uuid.UUID  `json:"contactId"`
	Score     int        `json:"score"`
	Previous  int        `json:"previous"`
	Reason    string     `json:"reason"`
	Breakdown *Breakdown `json:"breakdown,omitempty"`
}

// Service is the lead scoring engine.
type Service struct {
	contacts ContactStore
	signals  SignalStore
	activity audit.Writer
	bus      events.Bus
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New creates a scoring service. activity, bus and m may be nil.
func New(contacts ContactStore, signals SignalStore, activity audit.Writer, bus events.Bus, log *logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		contacts: contacts,
		signals:  signals,
		activity: activity,
		bus:      bus,
		log:      log,
		metrics:  m,
		now:      time.Now,
	}
}

// UpdateScore sets the score, clamped to [0,100]. No recomputation happens.
func (s *Service) UpdateScore(ctx context.Context, p *access.Principal, contactID uuid.UUID, score int, reason string) (*Result, error) {
	return s.write(ctx, p, contactID, "manual", reason, func(int) int { return score })
}

// AdjustScore adds delta to the current score and clamps the result.
func (s *Service) AdjustScore(ctx context.Context, p *access.Principal, contactID uuid.UUID, delta int, reason string) (*Result, error) {
	return s.write(ctx, p, contactID, "adjust", reason, func(current int) int { return current + delta })
}

// Recalculate derives the score from the contact's current signals and writes
// it through the same path as UpdateScore. Running it twice without an
// intervening change yields the same score.
func (s *Service) Recalculate(ctx context.Context, p *access.Principal, contactID uuid.UUID) (*Result, error) {
	var (
		contact      *domain.Contact
		activeDeals  int
		appointments int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.contacts.FindByID(gctx, p, contactID)
		contact = c
		return err
	})
	g.Go(func() error {
		n, err := s.signals.CountActiveDeals(gctx, contactID)
		activeDeals = n
		return err
	})
	g.Go(func() error {
		n, err := s.signals.CountAppointments(gctx, contactID)
		appointments = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	breakdown := Compute(InputsFor(contact, activeDeals, appointments), s.now())
	res, err := s.write(ctx, p, contactID, "recalculate", RecalculationReason, func(int) int { return breakdown.Total })
	if err != nil {
		return nil, err
	}
	res.Breakdown = &breakdown
	return res, nil
}

func (s *Service) write(ctx context.Context, p *access.Principal, contactID uuid.UUID, kind, reason string, next func(current int) int) (*Result, error) {
	var previous int
	contact, err := s.contacts.Update(ctx, p, contactID, func(c *domain.Contact) error {
		previous = c.LeadScore
		c.LeadScore = domain.ClampScore(next(c.LeadScore))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncScoreWrite(kind)

	res := &Result{ContactID: contact.ID, Score: contact.LeadScore, Previous: previous, Reason: reason}
	s.recordActivity(ctx, p, contact, res)

	if s.bus != nil {
		s.bus.Publish(ctx, events.ContactScoreUpdated{
			BaseEvent: events.NewBaseEvent(),
			ContactID: contact.ID,
			TenantID:  contact.TenantID,
			ActorID:   p.ID,
			Score:     res.Score,
			Previous:  previous,
			Reason:    reason,
		})
	}
	return res, nil
}

func (s *Service) recordActivity(ctx context.Context, p *access.Principal, c *domain.Contact, res *Result) {
	if s.activity == nil {
		return
	}
	contactID := c.ID
	err := s.activity.Record(ctx, audit.Entry{
		TenantID:   c.TenantID,
		Type:       activityScoreUpdated,
		EntityType: "contacts",
		EntityID:   c.ID,
		ActorID:    p.ID,
		ContactID:  &contactID,
		Metadata:   activityMetadata(p, res),
	})
	if err != nil {
		s.log.WithContext(ctx).AuditFailure("contacts", c.ID.String(), activityScoreUpdated, err)
		s.metrics.IncAuditFailure("contacts")
		return
	}
	s.log.WithContext(ctx).Debug("lead score updated",
		slog.String("contact_id", c.ID.String()),
		slog.Int("score", res.Score),
		slog.Int("previous", res.Previous))
}

func activityMetadata(p *access.Principal, res *Result) map[string]any {
	meta := map[string]any{
		"score":    res.Score,
		"previous": res.Previous,
		"reason":   res.Reason,
	}
	if p.IsSystem() {
		meta["triggeredBy"] = p.ID
		meta["system"] = true
	}
	return meta
}
