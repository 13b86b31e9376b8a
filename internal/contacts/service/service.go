package service

import (
	"context"
	"strings"
	"time"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/contacts/domain"
	"estate_crm_backend/internal/contacts/transport"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/phone"

	"github.com/google/uuid"
)

// Store is the scoped contacts repository.
type Store interface {
	FindAll(ctx context.Context, p *access.Principal, params entity.ListParams) (entity.ListResult[domain.Contact], error)
	FindByID(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Contact, error)
	Create(ctx context.Context, p *access.Principal, c *domain.Contact) error
	CreateMany(ctx context.Context, p *access.Principal, cs []*domain.Contact) error
	Update(ctx context.Context, p *access.Principal, id uuid.UUID, mutate func(*domain.Contact) error) (*domain.Contact, error)
	Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error
}

// Service handles contact CRUD and funnel updates.
type Service struct {
	repo  Store
	phone phone.Normalizer
	now   func() time.Time
}

// New creates a contacts service.
func New(repo Store, normalizer phone.Normalizer) *Service {
	return &Service{repo: repo, phone: normalizer, now: time.Now}
}

// List returns one page of contacts in scope.
func (s *Service) List(ctx context.Context, p *access.Principal, req transport.ListContactsRequest) (entity.ListResult[domain.Contact], error) {
	params := entity.ListParams{
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if params.PageSize == 0 {
		params.PageSize = 25
	}
	if req.Category != "" {
		params.Filters = append(params.Filters, entity.Eq("category", req.Category))
	}
	if req.LeadStage != "" {
		params.Filters = append(params.Filters, entity.Eq("lead_stage", req.LeadStage))
	}
	return s.repo.FindAll(ctx, p, params)
}

// Get returns one contact in scope.
func (s *Service) Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Contact, error) {
	return s.repo.FindByID(ctx, p, id)
}

func (s *Service) build(req transport.CreateContactRequest) (*domain.Contact, error) {
	c := &domain.Contact{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       normalizeEmail(req.Email),
		Phone:       s.normalizePhone(req.Phone),
		Category:    req.Category,
		Status:      "active",
		LeadStage:   req.LeadStage,
		IsQualified: req.IsQualified,
		Budget:      req.Budget,
	}
	if c.Category == "" {
		c.Category = domain.CategoryLead
	}
	if c.LeadStage == "" {
		c.LeadStage = domain.StageNew
	}
	if req.OwnerID != nil {
		c.OwnerID = *req.OwnerID
	}
	return c, c.Validate()
}

// Create adds a contact owned by the principal unless another owner is given.
func (s *Service) Create(ctx context.Context, p *access.Principal, req transport.CreateContactRequest) (*domain.Contact, error) {
	c, err := s.build(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Import creates every contact or none.
func (s *Service) Import(ctx context.Context, p *access.Principal, reqs []transport.CreateContactRequest) ([]*domain.Contact, error) {
	if len(reqs) == 0 {
		return nil, apperr.Validation("nothing to import")
	}
	contacts := make([]*domain.Contact, 0, len(reqs))
	for _, req := range reqs {
		c, err := s.build(req)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := s.repo.CreateMany(ctx, p, contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// Update applies a partial update. A non-zero Version must match the stored one.
func (s *Service) Update(ctx context.Context, p *access.Principal, id uuid.UUID, req transport.UpdateContactRequest) (*domain.Contact, error) {
	return s.repo.Update(ctx, p, id, func(c *domain.Contact) error {
		if req.Version != 0 && req.Version != c.Version {
			return apperr.Conflict("contact was modified by someone else")
		}
		if req.OwnerID != nil {
			c.OwnerID = *req.OwnerID
		}
		if req.FirstName != nil {
			c.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			c.LastName = strings.TrimSpace(*req.LastName)
		}
		if req.Email != nil {
			c.Email = normalizeEmail(req.Email)
		}
		if req.Phone != nil {
			c.Phone = s.normalizePhone(req.Phone)
		}
		if req.Category != nil {
			if c.Category == domain.CategoryClient && *req.Category != domain.CategoryClient {
				return apperr.Validation("clients can only be demoted by changing the lead stage")
			}
			c.Category = *req.Category
		}
		if req.Status != nil {
			c.Status = *req.Status
		}
		if req.IsQualified != nil {
			c.IsQualified = *req.IsQualified
		}
		if req.Budget != nil {
			c.Budget = req.Budget
		}
		return c.Validate()
	})
}

// Delete removes a contact.
func (s *Service) Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	return s.repo.Delete(ctx, p, id)
}

// RecordInteraction counts an interaction with the contact now.
func (s *Service) RecordInteraction(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Contact, error) {
	at := s.now().UTC()
	return s.repo.Update(ctx, p, id, func(c *domain.Contact) error {
		c.RecordInteraction(at)
		return nil
	})
}

// SetLeadStage moves the contact in the funnel. Converting makes it a client.
func (s *Service) SetLeadStage(ctx context.Context, p *access.Principal, id uuid.UUID, stage domain.LeadStage) (*domain.Contact, error) {
	if !stage.Valid() {
		return nil, apperr.Validation("invalid lead stage " + string(stage))
	}
	return s.repo.Update(ctx, p, id, func(c *domain.Contact) error {
		c.SetStage(stage)
		return c.Validate()
	})
}

func (s *Service) normalizePhone(raw *string) *string {
	if raw == nil {
		return nil
	}
	normalized := s.phone.E164(*raw)
	if normalized == "" {
		return nil
	}
	return &normalized
}

func normalizeEmail(raw *string) *string {
	if raw == nil {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(*raw))
	if email == "" {
		return nil
	}
	return &email
}
