package handler

import (
	"net/http"

	"estate_crm_backend/internal/appointments/service"
	"estate_crm_backend/internal/appointments/transport"
	"estate_crm_backend/internal/http/middleware"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for appointments and availability slots.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// New creates a new appointments handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the appointment routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/conflicts", h.CheckConflicts)
	rg.GET("/stats", h.Stats)
	rg.GET("/:id", h.GetByID)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.POST("/:id/reschedule", h.Reschedule)
	rg.POST("/:id/sync", h.Sync)
}

// RegisterSlotRoutes registers the availability slot routes.
func (h *Handler) RegisterSlotRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListSlots)
	rg.POST("", h.CreateSlot)
	rg.GET("/available", h.AvailableSlots)
	rg.DELETE("/:id", h.DeleteSlot)
}

// bind decodes the body (or query for GET) into req and validates it.
func (h *Handler) bind(c *gin.Context, req any) bool {
	var err error
	if c.Request.Method == http.MethodGet {
		err = c.ShouldBindQuery(req)
	} else {
		err = c.ShouldBindJSON(req)
	}
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return false
	}
	return true
}

// List retrieves appointments in the caller's scope.
// GET /api/v1/appointments
func (h *Handler) List(c *gin.Context) {
	var req transport.ListAppointmentsRequest
	if !h.bind(c, &req) {
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

// Create books an appointment. Overlaps answer 409 with conflict details.
// POST /api/v1/appointments
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateAppointmentRequest
	if !h.bind(c, &req) {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	appt, err := h.svc.CreateWithValidation(c.Request.Context(), p, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, appt)
}

// CheckConflicts reports overlaps for a candidate booking without writing.
// GET /api/v1/appointments/conflicts
func (h *Handler) CheckConflicts(c *gin.Context) {
	var req transport.CheckConflictsRequest
	if !h.bind(c, &req) {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	resp, err := h.svc.CheckConflictsRequest(c.Request.Context(), p, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// Stats aggregates appointments in scope.
// GET /api/v1/appointments/stats
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

// GetByID retrieves one appointment.
// GET /api/v1/appointments/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	appt, err := h.svc.Get(c.Request.Context(), p, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, appt)
}

// Delete removes an appointment and frees its slot.
// DELETE /api/v1/appointments/:id
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

// UpdateStatus moves an appointment along its lifecycle.
// PATCH /api/v1/appointments/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateStatusRequest
	if !h.bind(c, &req) {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	appt, err := h.svc.UpdateStatus(c.Request.Context(), p, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, appt)
}

// Reschedule moves an appointment to another date or time.
// POST /api/v1/appointments/:id/reschedule
func (h *Handler) Reschedule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.RescheduleRequest
	if !h.bind(c, &req) {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	appt, err := h.svc.Reschedule(c.Request.Context(), p, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, appt)
}

// Sync queues an external calendar sync. The response carries the
// appointment as it is now; the outcome arrives through syncStatus.
// POST /api/v1/appointments/:id/sync
func (h *Handler) Sync(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	appt, err := h.svc.EnqueueSync(c.Request.Context(), p, id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.JSON(http.StatusAccepted, appt)
}

// ListSlots lists availability slots.
// GET /api/v1/slots
func (h *Handler) ListSlots(c *gin.Context) {
	var req transport.ListSlotsRequest
	if !h.bind(c, &req) {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	result, err := h.svc.ListSlots(c.Request.Context(), p, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateSlot opens a bookable window.
// POST /api/v1/slots
func (h *Handler) CreateSlot(c *gin.Context) {
	var req transport.CreateSlotRequest
	if !h.bind(c, &req) {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	slot, err := h.svc.CreateSlot(c.Request.Context(), p, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, slot)
}

// AvailableSlots lists free slots that can hold the requested duration.
// GET /api/v1/slots/available
func (h *Handler) AvailableSlots(c *gin.Context) {
	var req transport.AvailableSlotsRequest
	if !h.bind(c, &req) {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	slots, err := h.svc.AvailableSlotsRequest(c.Request.Context(), p, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": slots})
}

// DeleteSlot removes an unbooked slot.
// DELETE /api/v1/slots/:id
func (h *Handler) DeleteSlot(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p := middleware.MustGetPrincipal(c)
	if p == nil {
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteSlot(c.Request.Context(), p, id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}
