package transport

import (
	"estate_crm_backend/internal/contacts/domain"

	"github.com/google/uuid"
)

// CreateContactRequest is the request body for creating a contact
type CreateContactRequest struct {
	OwnerID     *uuid.UUID       `json:"ownerId,omitempty"`
	FirstName   string           `json:"firstName" validate:"required,min=1,max=100"`
	LastName    string           `json:"lastName" validate:"max=100"`
	Email       *string          `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone       *string          `json:"phone,omitempty" validate:"omitempty,max=32"`
	Category    domain.Category  `json:"category" validate:"omitempty,oneof=lead partner"`
	LeadStage   domain.LeadStage `json:"leadStage" validate:"omitempty,oneof=new contacted qualified interested negotiating"`
	IsQualified bool             `json:"isQualified"`
	Budget      *float64         `json:"budget,omitempty" validate:"omitempty,gte=0"`
}

// UpdateContactRequest is the request body for updating a contact
type UpdateContactRequest struct {
	OwnerID     *uuid.UUID       `json:"ownerId,omitempty"`
	FirstName   *string          `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName    *string          `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Email       *string          `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone       *string          `json:"phone,omitempty" validate:"omitempty,max=32"`
	Category    *domain.Category `json:"category,omitempty" validate:"omitempty,oneof=lead partner"`
	Status      *string          `json:"status,omitempty" validate:"omitempty,oneof=active inactive archived"`
	IsQualified *bool            `json:"isQualified,omitempty"`
	Budget      *float64         `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Version     int64            `json:"version" validate:"min=0"`
}

// SetLeadStageRequest moves a contact through the lead funnel
type SetLeadStageRequest struct {
	Stage domain.LeadStage `json:"stage" validate:"required,oneof=new contacted qualified interested negotiating converted lost"`
}

// UpdateScoreRequest sets a lead score directly; out-of-range values are clamped
type UpdateScoreRequest struct {
	Score  int    `json:"score"`
	Reason string `json:"reason" validate:"max=500"`
}

// ListContactsRequest is the query parameters for listing contacts
type ListContactsRequest struct {
	Category  string `form:"category" validate:"omitempty,oneof=client lead partner"`
	LeadStage string `form:"leadStage" validate:"omitempty,oneof=new contacted qualified interested negotiating converted lost"`
	SortBy    string `form:"sortBy" validate:"omitempty,oneof=createdAt updatedAt lastName leadScore"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ImportContactsRequest creates a batch of contacts atomically
type ImportContactsRequest struct {
	Contacts []CreateContactRequest `json:"contacts" validate:"required,min=1,max=500,dive"`
}
