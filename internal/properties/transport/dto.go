package transport

import (
	"estate_crm_backend/internal/properties/domain"

	"github.com/google/uuid"
)

// CreatePropertyRequest is the request body for creating a listing.
type CreatePropertyRequest struct {
	OwnerID    *uuid.UUID    `json:"ownerId,omitempty"`
	Title      string        `json:"title" validate:"required,min=1,max=200"`
	Address    string        `json:"address" validate:"required,max=300"`
	City       string        `json:"city" validate:"required,max=100"`
	PostalCode string        `json:"postalCode" validate:"max=20"`
	Price      float64       `json:"price" validate:"gte=0"`
	Status     domain.Status `json:"status" validate:"omitempty,oneof=available under_offer sold withdrawn"`
}

// UpdatePropertyRequest is the request body for updating a listing.
type UpdatePropertyRequest struct {
	OwnerID    *uuid.UUID     `json:"ownerId,omitempty"`
	Title      *string        `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Address    *string        `json:"address,omitempty" validate:"omitempty,max=300"`
	City       *string        `json:"city,omitempty" validate:"omitempty,max=100"`
	PostalCode *string        `json:"postalCode,omitempty" validate:"omitempty,max=20"`
	Price      *float64       `json:"price,omitempty" validate:"omitempty,gte=0"`
	Status     *domain.Status `json:"status,omitempty" validate:"omitempty,oneof=available under_offer sold withdrawn"`
	Version    int64          `json:"version" validate:"min=0"`
}

// ListPropertiesRequest is the query parameters for listing properties.
type ListPropertiesRequest struct {
	Status    string   `form:"status" validate:"omitempty,oneof=available under_offer sold withdrawn"`
	City      string   `form:"city" validate:"max=100"`
	MinPrice  *float64 `form:"minPrice" validate:"omitempty,gte=0"`
	MaxPrice  *float64 `form:"maxPrice" validate:"omitempty,gte=0"`
	SortBy    string   `form:"sortBy" validate:"omitempty,oneof=createdAt updatedAt price city title"`
	SortOrder string   `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      int      `form:"page" validate:"omitempty,min=1"`
	PageSize  int      `form:"pageSize" validate:"omitempty,min=1,max=100"`
}
