package handler

import (
	"net/http"

	"estate_crm_backend/internal/contacts/scoring"
	"estate_crm_backend/internal/contacts/service"
	"estate_crm_backend/internal/contacts/transport"
	"estate_crm_backend/internal/http/middleware"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for contacts and their lead scores.
type Handler struct {
	svc     *service.Service
	scoring *scoring.Service
	val     *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid contact id"
	manualScoreReason   = "manual update"
)

// New creates a new contacts handler.
func New(svc *service.Service, scoringSvc *scoring.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, scoring: scoringSvc, val: val}
}

// RegisterRoutes mounts contact routes on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.POST("/import", h.Import)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/lead-stage", h.SetLeadStage)
	rg.POST("/:id/interactions", h.RecordInteraction)
	rg.PUT("/:id/score", h.UpdateScore)
	rg.POST("/:id/score/recalculate", h.RecalculateScore)
}

// List retrieves contacts in the caller's scope.
// GET /api/v1/contacts
func (h *Handler) List(c *gin.Context) {
	var req transport.ListContactsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	result, err := h.svc.List(c.Request.Context(), p, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create adds a contact.
// POST /api/v1/contacts
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	contact, err := h.svc.Create(c.Request.Context(), p, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, contact)
}

// Import adds a batch of contacts; either all are created or none.
// POST /api/v1/contacts/import
func (h *Handler) Import(c *gin.Context) {
	var req transport.ImportContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	contacts, err := h.svc.Import(c.Request.Context(), p, req.Contacts)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, gin.H{"items": contacts, "total": len(contacts)})
}

// GetByID retrieves one contact.
// GET /api/v1/contacts/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	contact, err := h.svc.Get(c.Request.Context(), p, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, contact)
}

// Update changes contact attributes.
// PUT /api/v1/contacts/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	contact, err := h.svc.Update(c.Request.Context(), p, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, contact)
}

// Delete removes a contact.
// DELETE /api/v1/contacts/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), p, id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// SetLeadStage moves the contact through the lead funnel.
// PATCH /api/v1/contacts/:id/lead-stage
func (h *Handler) SetLeadStage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.SetLeadStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	contact, err := h.svc.SetLeadStage(c.Request.Context(), p, id, req.Stage)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, contact)
}

// RecordInteraction counts one touchpoint with the contact.
// POST /api/v1/contacts/:id/interactions
func (h *Handler) RecordInteraction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	contact, err := h.svc.RecordInteraction(c.Request.Context(), p, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, contact)
}

// UpdateScore sets the lead score directly.
// PUT /api/v1/contacts/:id/score
func (h *Handler) UpdateScore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = manualScoreReason
	}

	result, err := h.scoring.UpdateScore(c.Request.Context(), p, id, req.Score, reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RecalculateScore derives the lead score from the contact's signals.
// POST /api/v1/contacts/:id/score/recalculate
func (h *Handler) RecalculateScore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	result, err := h.scoring.Recalculate(c.Request.Context(), p, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}
