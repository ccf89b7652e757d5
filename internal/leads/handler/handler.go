package handler

import (
	"net/http"
	"time"

	"inmueble_backend/internal/booking"
	advisorssvc "inmueble_backend/internal/advisors/service"
	"inmueble_backend/internal/leads/domain"
	"inmueble_backend/internal/leads/repository"
	"inmueble_backend/internal/leads/service"
	"inmueble_backend/internal/leads/transport"
	"inmueble_backend/platform/httpkit"
	"inmueble_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	dateLayout = "2006-01-02"
)

// Handler handles the protected lead operations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates the protected leads handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the operator-facing lead routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/history", h.History)
	rg.POST("/:id/report", h.Report)
	rg.POST("/:id/assign", h.Assign)
	rg.POST("/:id/close", h.Close)
	rg.POST("/:id/reschedule", h.Reschedule)
}

func (h *Handler) List(c *gin.Context) {
	filter := repository.ListFilter{DeveloperID: c.Query("developerId")}
	if raw := c.Query("status"); raw != "" {
		status, err := domain.Parse(raw)
		if httpkit.HandleError(c, err) {
			return
		}
		filter.Status = status
	}
	if raw := c.Query("advisorId"); raw != "" {
		advisorID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		filter.AdvisorID = &advisorID
	}

	items, err := h.svc.List(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.LeadListResponse{Items: make([]transport.LeadResponse, 0, len(items)), Total: len(items)}
	for i := range items {
		resp.Items = append(resp.Items, transport.ToLeadResponse(&items[i], service.EstimateCommission))
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead, service.EstimateCommission))
}

func (h *Handler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	entries, err := h.svc.History(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToHistoryResponse(entries))
}

func (h *Handler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	lead, err := h.svc.Report(c.Request.Context(), id, identity.UserID().String())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead, service.EstimateCommission))
}

func (h *Handler) Assign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.AssignAdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	lead, err := h.svc.AssignAdvisor(c.Request.Context(), id, advisorssvc.RegisterParams{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Position: req.Position,
	}, identity.UserID().String())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead, service.EstimateCommission))
}

func (h *Handler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.CloseLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	outcome, err := domain.Parse(req.Outcome)
	if httpkit.HandleError(c, err) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	lead, err := h.svc.Close(c.Request.Context(), id, service.CloseParams{
		Outcome:     outcome,
		FinalAmount: req.FinalAmount,
		FinalModel:  req.FinalModel,
		Reason:      req.Reason,
		ClosedBy:    identity.UserID().String(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead, service.EstimateCommission))
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.AppointmentDate, time.Local)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Reschedule(c.Request.Context(), id, date, req.AppointmentTime)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead, service.EstimateCommission))
}

// PublicHandler serves the unauthenticated intake and slot endpoints.
type PublicHandler struct {
	svc *service.Service
	val *validator.Validator
	now booking.Clock
}

// NewPublicHandler creates the intake-facing handler.
func NewPublicHandler(svc *service.Service, val *validator.Validator, now booking.Clock) *PublicHandler {
	return &PublicHandler{svc: svc, val: val, now: now}
}

// RegisterIntakeRoutes mounts the lead intake route; the caller wraps it with
// the intake rate limiter.
func (h *PublicHandler) RegisterIntakeRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Submit)
}

// RegisterBookingRoutes mounts the slot discovery routes.
func (h *PublicHandler) RegisterBookingRoutes(rg *gin.RouterGroup) {
	rg.GET("/slots", h.Slots)
	rg.GET("/max-date", h.MaxDate)
}

// Submit is the public lead intake endpoint.
func (h *PublicHandler) Submit(c *gin.Context) {
	var req transport.SubmitLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := service.SubmitParams{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		ProvidedClientID: req.ClientID,
		DevelopmentID:    req.DevelopmentID,
		DevelopmentName:  req.DevelopmentName,
		DeveloperID:      req.DeveloperID,
		ModelOfInterest:  req.ModelOfInterest,
		ReferencePrice:   req.ReferencePrice,
		CommissionPct:    req.CommissionPct,
		Origin:           req.Origin,
		Context:          req.Context,
		CreatedBy:        "public_intake",
	}
	if req.SourceURL != "" {
		params.SourceURL = &req.SourceURL
	}
	if req.AppointmentDate != "" {
		date, err := time.ParseInLocation(dateLayout, req.AppointmentDate, time.Local)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		params.AppointmentDate = &date
	}
	if req.AppointmentTime != "" {
		params.AppointmentTime = &req.AppointmentTime
	}

	result, err := h.svc.Submit(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.SubmitLeadResponse{
		Success:  true,
		LeadID:   result.LeadID,
		ClientID: result.ClientID,
		Status:   result.Status,
	})
}

// Slots returns the hourly availability for ?date=YYYY-MM-DD.
func (h *PublicHandler) Slots(c *gin.Context) {
	raw := c.Query("date")
	date, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "date must be YYYY-MM-DD", nil)
		return
	}

	now := h.now()
	httpkit.OK(c, transport.SlotsResponse{
		Date:    raw,
		Slots:   booking.GenerateSlots(date, now),
		MaxDate: booking.MaxScheduleDate(now).Format(dateLayout),
	})
}

// MaxDate returns the last bookable calendar day.
func (h *PublicHandler) MaxDate(c *gin.Context) {
	httpkit.OK(c, gin.H{"maxDate": booking.MaxScheduleDate(h.now()).Format(dateLayout)})
}
