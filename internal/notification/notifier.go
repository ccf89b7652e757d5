// Package notification turns domain moments into queued delivery intents.
// Nothing here talks to a transport: intents land in the outbox and the
// scheduler worker delivers them later.
package notification

import (
	"context"

	"inmueble_backend/internal/leads/repository"
	"inmueble_backend/internal/notification/outbox"
	"inmueble_backend/platform/logger"

	"github.com/google/uuid"
)

// Notification kinds and templates understood by the delivery worker.
const (
	KindWhatsApp = "whatsapp"

	TemplateLeadSubmitted = "lead_submitted"
	TemplateLeadAssigned  = "lead_assigned"
)

// LeadSubmittedPayload is the outbox payload for a new lead alert to the
// sales desk.
type LeadSubmittedPayload struct {
	LeadID          uuid.UUID `json:"leadId"`
	ContactName     string    `json:"contactName"`
	ContactPhone    string    `json:"contactPhone,omitempty"`
	DevelopmentName string    `json:"developmentName,omitempty"`
	DevelopmentID   string    `json:"developmentId"`
	ModelOfInterest string    `json:"modelOfInterest,omitempty"`
	AppointmentDate string    `json:"appointmentDate,omitempty"`
	AppointmentTime string    `json:"appointmentTime,omitempty"`
}

// LeadAssignedPayload is the outbox payload for an advisor hand-off message.
type LeadAssignedPayload struct {
	LeadID          uuid.UUID `json:"leadId"`
	ContactName     string    `json:"contactName"`
	ContactPhone    string    `json:"contactPhone,omitempty"`
	DevelopmentName string    `json:"developmentName,omitempty"`
	AdvisorName     string    `json:"advisorName"`
	AdvisorPhone    string    `json:"advisorPhone"`
}

// Outbox is the persistence surface the notifier writes through.
type Outbox interface {
	Insert(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error)
}

// Notifier implements the lead service's notification port on top of the
// outbox table.
type Notifier struct {
	outbox Outbox
	log    *logger.Logger
}

// NewNotifier creates the outbox-backed notifier.
func NewNotifier(ob Outbox, log *logger.Logger) *Notifier {
	return &Notifier{outbox: ob, log: log}
}

// LeadSubmitted records the intake alert intent.
func (n *Notifier) LeadSubmitted(ctx context.Context, lead *repository.Lead) error {
	payload := LeadSubmittedPayload{
		LeadID:          lead.ID,
		ContactName:     lead.ContactName,
		ContactPhone:    lead.ContactPhone,
		DevelopmentName: lead.DevelopmentName,
		DevelopmentID:   lead.DevelopmentID,
		ModelOfInterest: lead.ModelOfInterest,
	}
	if lead.HasAppointment() {
		payload.AppointmentDate = lead.AppointmentDate.Format("2006-01-02")
		payload.AppointmentTime = *lead.AppointmentTime
	}

	_, err := n.outbox.Insert(ctx, outbox.InsertParams{
		Kind:     KindWhatsApp,
		Template: TemplateLeadSubmitted,
		Payload:  payload,
	})
	return err
}

// LeadAssigned records the advisor hand-off intent.
func (n *Notifier) LeadAssigned(ctx context.Context, lead *repository.Lead, advisorName, advisorPhone string) error {
	_, err := n.outbox.Insert(ctx, outbox.InsertParams{
		Kind:     KindWhatsApp,
		Template: TemplateLeadAssigned,
		Payload: LeadAssignedPayload{
			LeadID:          lead.ID,
			ContactName:     lead.ContactName,
			ContactPhone:    lead.ContactPhone,
			DevelopmentName: lead.DevelopmentName,
			AdvisorName:     advisorName,
			AdvisorPhone:    advisorPhone,
		},
	})
	return err
}
