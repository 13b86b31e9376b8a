package service

import (
	"context"
	"strings"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/internal/properties/domain"
	"estate_crm_backend/internal/properties/transport"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Store is the scoped properties repository.
type Store interface {
	FindAll(ctx context.Context, p *access.Principal, params entity.ListParams) (entity.ListResult[domain.Property], error)
	FindByID(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Property, error)
	Create(ctx context.Context, p *access.Principal, prop *domain.Property) error
	Update(ctx context.Context, p *access.Principal, id uuid.UUID, mutate func(*domain.Property) error) (*domain.Property, error)
	Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error
}

// Service handles property listings.
type Service struct {
	repo Store
}

// New creates a properties service.
func New(repo Store) *Service {
	return &Service{repo: repo}
}

// List returns one page of properties in scope.
func (s *Service) List(ctx context.Context, p *access.Principal, req transport.ListPropertiesRequest) (entity.ListResult[domain.Property], error) {
	params := entity.ListParams{SortBy: req.SortBy, SortOrder: req.SortOrder, Page: req.Page, PageSize: req.PageSize}
	if params.PageSize == 0 {
		params.PageSize = 25
	}
	if req.Status != "" {
		params.Filters = append(params.Filters, entity.Eq("status", req.Status))
	}
	if city := strings.TrimSpace(req.City); city != "" {
		params.Filters = append(params.Filters, entity.Eq("city", city))
	}
	if req.MinPrice != nil {
		params.Filters = append(params.Filters, entity.Filter{Column: "price", Op: entity.OpGte, Value: *req.MinPrice})
	}
	if req.MaxPrice != nil {
		if req.MinPrice != nil && *req.MaxPrice < *req.MinPrice {
			return entity.ListResult[domain.Property]{}, apperr.Validation("maxPrice must not be below minPrice")
		}
		params.Filters = append(params.Filters, entity.Filter{Column: "price", Op: entity.OpLte, Value: *req.MaxPrice})
	}
	return s.repo.FindAll(ctx, p, params)
}

// Get returns one property in scope.
func (s *Service) Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*domain.Property, error) {
	return s.repo.FindByID(ctx, p, id)
}

// Create adds a listing. Status defaults to available.
func (s *Service) Create(ctx context.Context, p *access.Principal, req transport.CreatePropertyRequest) (*domain.Property, error) {
	if req.Price < 0 {
		return nil, apperr.Validation("price must not be negative")
	}
	prop := &domain.Property{
		Title:      sanitize.Text(req.Title),
		Address:    sanitize.Text(req.Address),
		City:       strings.TrimSpace(req.City),
		PostalCode: strings.ToUpper(strings.TrimSpace(req.PostalCode)),
		Price:      req.Price,
		Status:     req.Status,
	}
	if prop.Status == "" {
		prop.Status = domain.StatusAvailable
	}
	if req.OwnerID != nil {
		prop.OwnerID = *req.OwnerID
	}
	if err := s.repo.Create(ctx, p, prop); err != nil {
		return nil, err
	}
	return prop, nil
}

// Update applies a partial update. A non-zero Version must match the stored one.
func (s *Service) Update(ctx context.Context, p *access.Principal, id uuid.UUID, req transport.UpdatePropertyRequest) (*domain.Property, error) {
	return s.repo.Update(ctx, p, id, func(prop *domain.Property) error {
		if req.Version != 0 && req.Version != prop.Version {
			return apperr.Conflict("property was modified by someone else")
		}
		if req.OwnerID != nil {
			prop.OwnerID = *req.OwnerID
		}
		if req.Title != nil {
			prop.Title = sanitize.Text(*req.Title)
		}
		if req.Address != nil {
			prop.Address = sanitize.Text(*req.Address)
		}
		if req.City != nil {
			prop.City = strings.TrimSpace(*req.City)
		}
		if req.PostalCode != nil {
			prop.PostalCode = strings.ToUpper(strings.TrimSpace(*req.PostalCode))
		}
		if req.Price != nil {
			if *req.Price < 0 {
				return apperr.Validation("price must not be negative")
			}
			prop.Price = *req.Price
		}
		if req.Status != nil {
			if !req.Status.Valid() {
				return apperr.Validation("unknown status " + string(*req.Status))
			}
			prop.Status = *req.Status
		}
		return nil
	})
}

// Delete removes a property.
func (s *Service) Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	return s.repo.Delete(ctx, p, id)
}
