package handler

import (
	"net/http"

	"estate_crm_backend/internal/http/middleware"
	"estate_crm_backend/internal/properties/service"
	"estate_crm_backend/internal/properties/transport"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for property listings.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid property id"
)

// New creates a new properties handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

// GET /api/v1/properties
func (h *Handler) List(c *gin.Context) {
	var req transport.ListPropertiesRequest
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

// POST /api/v1/properties
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreatePropertyRequest
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

	prop, err := h.svc.Create(c.Request.Context(), p, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, prop)
}

// GET /api/v1/properties/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	prop, err := h.svc.Get(c.Request.Context(), p, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, prop)
}

// PUT /api/v1/properties/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.UpdatePropertyRequest
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

	prop, err := h.svc.Update(c.Request.Context(), p, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, prop)
}

// DELETE /api/v1/properties/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
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
