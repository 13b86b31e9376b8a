package service

import (
	"context"
	"time"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/deals/domain"
	"estate_crm_backend/internal/deals/repository"
	"estate_crm_backend/internal/deals/transport"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/metrics"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// References resolves the contact and property a deal links to.
type References struct {
	Contacts   entity.Lookup
	Properties entity.Lookup
}

// Service is the deal pipeline engine. Stage changes publish events; the
// client's lead score is adjusted by a subscriber, not here.
type Service struct {
	repo    repository.Store
	refs    References
	tx      db.TxRunner
	bus     events.Bus
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a deal service.
func New(repo repository.Store, refs References, tx db.TxRunner, bus events.Bus, log *logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, refs: refs, tx: tx, bus: bus, log: log, metrics: m, now: time.Now}
}

// List returns one page of deals in scope.
func (s *Service) List(ctx context.Context, p *access.Principal, req transport.ListDealsRequest) (entity.ListResult[domain.Deal], error) {
	params := entity.ListParams{SortBy: req.SortBy, SortOrder: req.SortOrder, Page: req.Page, PageSize: req.PageSize}
	if params.PageSize == 0 {
		params.PageSize = 25
	}
	if req.Stage != "" {
		params.Filters = append(params.Filters, entity.Eq("stage", req.Stage))
	}
	if req.Status != "" {
		params.Filters = append(params.Filters, entity.Eq("status", req.Status))
	}
	if req.ClientID != nil {
		params.Filters = append(params.Filters, entity.Eq("client_id", *req.ClientID))
	}
	return s.repo.FindAll(ctx, p, params)
}

// Get returns one deal in scope.
func (s *Service) Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Deal, error) {
	return s.repo.FindByID(ctx, p, id)
}

// Create opens a new deal in lead_in. The client and property must be
// visible to the caller.
func (s *Service) Create(ctx context.Context, p *access.Principal, req transport.CreateDealRequest) (*domain.Deal, error) {
	if req.Value <= 0 {
		return nil, apperr.Validation("deal value must be positive")
	}
	if err := entity.CheckReference(ctx, s.refs.Contacts, p, req.ClientID, "client"); err != nil {
		return nil, err
	}
	if err := entity.CheckReference(ctx, s.refs.Properties, p, req.PropertyID, "property"); err != nil {
		return nil, err
	}
	d := &domain.Deal{
		Title:      req.Title,
		Value:      req.Value,
		ClientID:   req.ClientID,
		PropertyID: req.PropertyID,
	}
	d.ApplyStage(domain.StageLeadIn, s.now().UTC())
	if req.OwnerID != nil {
		d.OwnerID = *req.OwnerID
	}
	if req.ExpectedCloseDate != "" {
		date, err := parseDate(req.ExpectedCloseDate)
		if err != nil {
			return nil, err
		}
		d.ExpectedCloseDate = &date
	}
	if err := s.repo.Create(ctx, p, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Update changes deal attributes other than the stage.
func (s *Service) Update(ctx context.Context, p *access.Principal, id uuid.UUID, req transport.UpdateDealRequest) (*domain.Deal, error) {
	var closeDate *time.Time
	if req.ExpectedCloseDate != nil && *req.ExpectedCloseDate != "" {
		date, err := parseDate(*req.ExpectedCloseDate)
		if err != nil {
			return nil, err
		}
		closeDate = &date
	}
	return s.repo.Update(ctx, p, id, func(d *domain.Deal) error {
		if req.OwnerID != nil {
			d.OwnerID = *req.OwnerID
		}
		if req.Title != nil {
			d.Title = *req.Title
		}
		if req.Value != nil {
			if *req.Value <= 0 {
				return apperr.Validation("deal value must be positive")
			}
			d.Value = *req.Value
		}
		if req.ExpectedCloseDate != nil {
			d.ExpectedCloseDate = closeDate
		}
		return nil
	})
}

// Delete removes a deal and, through the foreign key, its history.
func (s *Service) Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	return s.repo.Delete(ctx, p, id)
}

// MoveToStage performs one pipeline transition. The read, the history row and
// the versioned deal write share one transaction; events are published after
// commit. An edge missing from the pipeline leaves the deal untouched.
func (s *Service) MoveToStage(ctx context.Context, p *access.Principal, id uuid.UUID, to domain.Stage, reason string) (*transport.StageChangeResponse, error) {
	if !to.Valid() {
		return nil, apperr.Validation("unknown stage " + string(to))
	}
	now := s.now().UTC()

	var (
		deal    *domain.Deal
		from    domain.Stage
		history domain.StageHistory
	)
	err := s.tx.WithTx(ctx, func(q db.Querier) error {
		repo := s.repo.WithQuerier(q)

		d, err := repo.FindByID(ctx, p, id)
		if err != nil {
			return err
		}
		from = d.Stage
		if !domain.CanTransition(from, to) {
			return apperr.InvalidTransition("cannot move deal from "+string(from)+" to "+string(to)).
				WithDetails(map[string]any{"from": from, "to": to, "allowed": domain.NextStages(from)})
		}

		since := d.CreatedAt
		last, err := repo.LastTransitionAt(ctx, id)
		if err != nil {
			return err
		}
		if last != nil {
			since = *last
		}

		history = domain.StageHistory{
			ID:          uuid.New(),
			DealID:      d.ID,
			FromStage:   from,
			ToStage:     to,
			ChangedAt:   now,
			ChangedBy:   p.ID,
			DaysInStage: domain.DaysInStage(since, now),
		}
		if reason != "" {
			history.Reason = &reason
		}
		if err := repo.AppendHistory(ctx, history); err != nil {
			return err
		}

		d.ApplyStage(to, now)
		if err := repo.Save(ctx, p, d); err != nil {
			return err
		}
		deal = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncStageTransition(string(from), string(to))
	s.repo.Notify(ctx, p, "updated", deal)
	s.publishTransition(ctx, p, deal, from, reason)

	return &transport.StageChangeResponse{
		Deal:          deal,
		History:       history,
		Probability:   domain.Probability(deal.Stage),
		ExpectedValue: domain.ExpectedValue(deal.Value, deal.Stage),
	}, nil
}

func (s *Service) publishTransition(ctx context.Context, p *access.Principal, d *domain.Deal, from domain.Stage, reason string) {
	if s.bus == nil {
		return
	}
	changed := events.DealStageChanged{
		BaseEvent:  events.NewBaseEvent(),
		DealID:     d.ID,
		TenantID:   d.TenantID,
		ActorID:    p.ID,
		ClientID:   d.ClientID,
		PropertyID: d.PropertyID,
		AgentID:    d.AgentID(),
		FromStage:  string(from),
		ToStage:    string(d.Stage),
		Value:      d.Value,
		Reason:     reason,
	}
	if err := s.bus.PublishSync(ctx, changed); err != nil {
		s.log.WithContext(ctx).EventFailure(changed.EventName(), err)
	}

	if d.Stage.Terminal() && d.ClosedAt != nil {
		s.bus.Publish(ctx, events.DealClosed{
			BaseEvent:  events.NewBaseEvent(),
			Won:        d.Stage == domain.StageWon,
			DealID:     d.ID,
			TenantID:   d.TenantID,
			Value:      d.Value,
			ClientID:   d.ClientID,
			PropertyID: d.PropertyID,
			AgentID:    d.AgentID(),
			ClosedAt:   *d.ClosedAt,
		})
	}
}

// GetForecast projects every open deal in scope.
func (s *Service) GetForecast(ctx context.Context, p *access.Principal) (domain.Forecast, error) {
	open, err := s.repo.FindAll(ctx, p, entity.ListParams{Filters: []entity.Filter{entity.Eq("status", string(domain.StatusOpen))}})
	if err != nil {
		return domain.Forecast{}, err
	}
	ids := make([]uuid.UUID, 0, len(open.Items))
	for _, d := range open.Items {
		ids = append(ids, d.ID)
	}
	since, err := s.repo.StageEnteredAt(ctx, ids)
	if err != nil {
		return domain.Forecast{}, err
	}
	return domain.BuildForecast(open.Items, since, s.now().UTC()), nil
}

// GetStats aggregates every deal in scope.
func (s *Service) GetStats(ctx context.Context, p *access.Principal) (domain.Stats, error) {
	all, err := s.repo.FindAll(ctx, p, entity.ListParams{})
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.ComputeStats(all.Items, s.now().UTC()), nil
}

// History lists the transitions of a deal in scope.
func (s *Service) History(ctx context.Context, p *access.Principal, id uuid.UUID) ([]domain.StageHistory, error) {
	if _, err := s.repo.FindByID(ctx, p, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, apperr.Validation("dates must use YYYY-MM-DD")
	}
	return date, nil
}
