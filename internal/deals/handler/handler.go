package handler

import (
	"net/http"

	"estate_crm_backend/internal/deals/service"
	"estate_crm_backend/internal/deals/transport"
	"estate_crm_backend/internal/http/middleware"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for deals.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid deal id"
)

// New creates a new deals handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts deal routes on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/forecast", h.Forecast)
	rg.GET("/stats", h.Stats)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/stage", h.MoveStage)
	rg.GET("/:id/history", h.History)
}

// List retrieves deals in the caller's scope.
// GET /api/v1/deals
func (h *Handler) List(c *gin.Context) {
	var req transport.ListDealsRequest
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

// Create opens a deal.
// POST /api/v1/deals
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateDealRequest
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

	deal, err := h.svc.Create(c.Request.Context(), p, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, deal)
}

// GetByID retrieves one deal.
// GET /api/v1/deals/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	deal, err := h.svc.Get(c.Request.Context(), p, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, deal)
}

// Update changes deal attributes.
// PUT /api/v1/deals/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateDealRequest
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

	deal, err := h.svc.Update(c.Request.Context(), p, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, deal)
}

// Delete removes a deal.
// DELETE /api/v1/deals/:id
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

// MoveStage moves a deal along the pipeline.
// POST /api/v1/deals/:id/stage
func (h *Handler) MoveStage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.MoveStageRequest
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

	result, err := h.svc.MoveToStage(c.Request.Context(), p, id, req.Stage, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// History lists the stage transitions of a deal.
// GET /api/v1/deals/:id/history
func (h *Handler) History(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	items, err := h.svc.History(c.Request.Context(), p, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}

// Forecast projects the open pipeline.
// GET /api/v1/deals/forecast
func (h *Handler) Forecast(c *gin.Context) {
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}
	forecast, err := h.svc.GetForecast(c.Request.Context(), p)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, forecast)
}

// Stats aggregates deals in scope.
// GET /api/v1/deals/stats
func (h *Handler) Stats(c *gin.Context) {
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}
	stats, err := h.svc.GetStats(c.Request.Context(), p)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}
