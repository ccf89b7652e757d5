package transport

import (
	"time"

	"inmueble_backend/internal/booking"
	"inmueble_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// SubmitLeadRequest is the public intake payload. Appointment fields travel
// as "2026-04-20" plus an "HH:00" slot label, matching what the slot endpoint
// hands out.
type SubmitLeadRequest struct {
	Name             string         `json:"name" validate:"required_without=ClientID,omitempty,max=120"`
	Email            string         `json:"email,omitempty" validate:"omitempty,email"`
	Phone            string         `json:"phone,omitempty" validate:"omitempty,max=50"`
	ClientID         *uuid.UUID     `json:"clientId,omitempty"`
	DevelopmentID    string         `json:"developmentId" validate:"required,max=120"`
	DevelopmentName  string         `json:"developmentName,omitempty" validate:"omitempty,max=200"`
	DeveloperID      string         `json:"developerId" validate:"required,max=120"`
	ModelOfInterest  string         `json:"modelOfInterest,omitempty" validate:"omitempty,max=120"`
	ReferencePrice   float64        `json:"referencePrice,omitempty" validate:"omitempty,gte=0"`
	CommissionPct    float64        `json:"commissionPct,omitempty" validate:"omitempty,gte=0,lte=100"`
	AppointmentDate  string         `json:"appointmentDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AppointmentTime  string         `json:"appointmentTime,omitempty" validate:"omitempty,len=5"`
	Origin           string         `json:"origin,omitempty" validate:"omitempty,max=120"`
	SourceURL        string         `json:"sourceUrl,omitempty" validate:"omitempty,url,max=500"`
	Context          map[string]any `json:"context,omitempty"`
}

type SubmitLeadResponse struct {
	Success  bool      `json:"success"`
	LeadID   uuid.UUID `json:"leadId"`
	ClientID uuid.UUID `json:"clientId"`
	Status   string    `json:"status"`
}

type AssignAdvisorRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Phone    string `json:"phone" validate:"required,max=50"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Position string `json:"position,omitempty" validate:"omitempty,max=120"`
}

type CloseLeadRequest struct {
	Outcome     string   `json:"outcome" validate:"required,oneof=WON LOST CLOSED"`
	FinalAmount *float64 `json:"finalAmount,omitempty" validate:"omitempty,gt=0"`
	FinalModel  *string  `json:"finalModel,omitempty" validate:"omitempty,max=120"`
	Reason      *string  `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type RescheduleRequest struct {
	AppointmentDate string `json:"appointmentDate" validate:"required,datetime=2006-01-02"`
	AppointmentTime string `json:"appointmentTime" validate:"required,len=5"`
}

type AppointmentResponse struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type LeadResponse struct {
	ID                uuid.UUID            `json:"id"`
	ClientID          uuid.UUID            `json:"clientId"`
	ContactName       string               `json:"contactName"`
	ContactEmail      string               `json:"contactEmail,omitempty"`
	ContactPhone      string               `json:"contactPhone,omitempty"`
	DevelopmentID     string               `json:"developmentId"`
	DevelopmentName   string               `json:"developmentName,omitempty"`
	DeveloperID       string               `json:"developerId"`
	ModelOfInterest   string               `json:"modelOfInterest"`
	ReferencePrice    float64              `json:"referencePrice"`
	CommissionPct     float64              `json:"commissionPct"`
	EstimatedCommission float64            `json:"estimatedCommission"`
	Status            string               `json:"status"`
	AssignedAdvisorID *uuid.UUID           `json:"assignedAdvisorId,omitempty"`
	Appointment       *AppointmentResponse `json:"appointment,omitempty"`
	Origin            string               `json:"origin"`
	ReportedAt        *time.Time           `json:"reportedAt,omitempty"`
	FinalAmount       *float64             `json:"finalAmount,omitempty"`
	FinalModel        *string              `json:"finalModel,omitempty"`
	LostReason        *string              `json:"lostReason,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}

type HistoryEntryResponse struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	ChangedBy string    `json:"changedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type SlotsResponse struct {
	Date    string         `json:"date"`
	Slots   []booking.Slot `json:"slots"`
	MaxDate string         `json:"maxDate"`
}

// ToLeadResponse maps the entity, deriving the commission estimate so every
// read surface reports the same figure.
func ToLeadResponse(l *repository.Lead, estimate func(price, pct float64) float64) LeadResponse {
	resp := LeadResponse{
		ID:                  l.ID,
		ClientID:            l.ClientID,
		ContactName:         l.ContactName,
		ContactEmail:        l.ContactEmail,
		ContactPhone:        l.ContactPhone,
		DevelopmentID:       l.DevelopmentID,
		DevelopmentName:     l.DevelopmentName,
		DeveloperID:         l.DeveloperID,
		ModelOfInterest:     l.ModelOfInterest,
		ReferencePrice:      l.ReferencePrice,
		CommissionPct:       l.CommissionPct,
		EstimatedCommission: estimate(l.ReferencePrice, l.CommissionPct),
		Status:              string(l.Status),
		AssignedAdvisorID:   l.AssignedAdvisorID,
		Origin:              l.Origin,
		ReportedAt:          l.ReportedAt,
		FinalAmount:         l.FinalAmount,
		FinalModel:          l.FinalModel,
		LostReason:          l.LostReason,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
	if l.HasAppointment() {
		resp.Appointment = &AppointmentResponse{
			Date: l.AppointmentDate.Format("2006-01-02"),
			Time: *l.AppointmentTime,
		}
	}
	return resp
}

func ToHistoryResponse(entries []repository.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			Status:    string(e.Status),
			Note:      e.Note,
			ChangedBy: e.ChangedBy,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
