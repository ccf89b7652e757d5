package handler

import (
	"net/http"

	"inmueble_backend/internal/advisors/service"
	"inmueble_backend/internal/advisors/transport"
	"inmueble_backend/platform/httpkit"
	"inmueble_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for external advisors.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new advisors handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers advisor routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Register)
	rg.GET("", h.ListByDeveloper)
	rg.GET("/lookup", h.Lookup)
}

// Register creates an advisor or refreshes the record sharing the same phone.
func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterAdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	advisor, err := h.svc.CreateOrUpdate(c.Request.Context(), service.RegisterParams{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		Position:    req.Position,
		DeveloperID: req.DeveloperID,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToAdvisorResponse(advisor))
}

// ListByDeveloper returns the advisors registered for ?developerId=.
func (h *Handler) ListByDeveloper(c *gin.Context) {
	developerID := c.Query("developerId")

	items, err := h.svc.ListByDeveloper(c.Request.Context(), developerID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToAdvisorListResponse(items))
}

// Lookup finds an advisor by ?phone= in any formatting.
func (h *Handler) Lookup(c *gin.Context) {
	advisor, err := h.svc.FindByPhone(c.Request.Context(), c.Query("phone"))
	if httpkit.HandleError(c, err) {
		return
	}
	if advisor == nil {
		httpkit.Error(c, http.StatusNotFound, "advisor not found", nil)
		return
	}

	httpkit.OK(c, transport.ToAdvisorResponse(advisor))
}
