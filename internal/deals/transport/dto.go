package transport

import (
	"estate_crm_backend/internal/deals/domain"

	"github.com/google/uuid"
)

// CreateDealRequest is the request body for creating a deal. New deals always
// start in lead_in.
type CreateDealRequest struct {
	OwnerID           *uuid.UUID `json:"ownerId,omitempty"`
	Title             string     `json:"title" validate:"required,min=1,max=200"`
	Value             float64    `json:"value" validate:"gt=0"`
	ClientID          uuid.UUID  `json:"clientId" validate:"required"`
	PropertyID        uuid.UUID  `json:"propertyId" validate:"required"`
	ExpectedCloseDate string     `json:"expectedCloseDate,omitempty" validate:"omitempty,isodate"`
}

// UpdateDealRequest is the request body for updating deal attributes.
// The stage only changes through MoveStageRequest.
type UpdateDealRequest struct {
	OwnerID           *uuid.UUID `json:"ownerId,omitempty"`
	Title             *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Value             *float64   `json:"value,omitempty" validate:"omitempty,gt=0"`
	ExpectedCloseDate *string    `json:"expectedCloseDate,omitempty" validate:"omitempty,isodate"`
}

// MoveStageRequest is the request body for a pipeline transition.
type MoveStageRequest struct {
	Stage  domain.Stage `json:"stage" validate:"required,oneof=lead_in qualification proposal negotiation won lost"`
	Reason string       `json:"reason,omitempty" validate:"max=500"`
}

// ListDealsRequest is the query parameters for listing deals.
type ListDealsRequest struct {
	Stage     string     `form:"stage" validate:"omitempty,oneof=lead_in qualification proposal negotiation won lost"`
	Status    string     `form:"status" validate:"omitempty,oneof=open closed"`
	ClientID  *uuid.UUID `form:"clientId"`
	SortBy    string     `form:"sortBy" validate:"omitempty,oneof=createdAt value stage expectedCloseDate"`
	SortOrder string     `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      int        `form:"page" validate:"omitempty,min=1"`
	PageSize  int        `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// StageChangeResponse reports a committed transition.
type StageChangeResponse struct {
	Deal          *domain.Deal        `json:"deal"`
	History       domain.StageHistory `json:"history"`
	Probability   int                 `json:"probability"`
	ExpectedValue float64             `json:"expectedValue"`
}
