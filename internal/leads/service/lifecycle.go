package service

import (
	"context"
	"strings"
	"time"

	"inmueble_backend/internal/booking"
	"inmueble_backend/internal/events"
	"inmueble_backend/internal/leads/repository"
	"inmueble_backend/platform/apperr"

	"github.com/google/uuid"
)

const defaultLeadOrigin = "web_automatico"

// SubmitParams is the full intake payload for a new lead.
type SubmitParams struct {
	// Contact details; ignored for identity resolution when
	// ProvidedClientID is set.
	Name  string
	Email string
	Phone string
	// ProvidedClientID short-circuits identity resolution for intakes from
	// authenticated surfaces that already know the client.
	ProvidedClientID *uuid.UUID

	DevelopmentID   string
	DevelopmentName string
	DeveloperID     string
	ModelOfInterest string
	ReferencePrice  float64
	CommissionPct   float64

	// Optional visit booking; both fields or neither.
	AppointmentDate *time.Time
	AppointmentTime *string

	Origin    string
	SourceURL *string
	Context   map[string]any
	CreatedBy string
}

// SubmitResult reports what intake produced.
type SubmitResult struct {
	LeadID   uuid.UUID
	ClientID uuid.UUID
	Status   string
}

// Submit runs the full intake pipeline: resolve the client identity, validate
// the requested visit slot, persist the lead with a contact snapshot, publish
// the domain event and record the notification intent. Identity and slot
// failures abort the whole submit; no partial lead is ever created.
func (s *Service) Submit(ctx context.Context, p SubmitParams) (*SubmitResult, error) {
	clientID, err := s.resolveClient(ctx, p)
	if err != nil {
		return nil, err
	}

	if p.AppointmentDate != nil || p.AppointmentTime != nil {
		if err := s.validateBooking(ctx, clientID, p); err != nil {
			return nil, err
		}
	}

	origin := strings.TrimSpace(p.Origin)
	if origin == "" {
		origin = defaultLeadOrigin
	}

	lead, err := s.leads.Create(ctx, repository.CreateParams{
		ClientID:        clientID,
		ContactName:     strings.TrimSpace(p.Name),
		ContactEmail:    strings.TrimSpace(p.Email),
		ContactPhone:    strings.TrimSpace(p.Phone),
		DevelopmentID:   p.DevelopmentID,
		DevelopmentName: p.DevelopmentName,
		DeveloperID:     p.DeveloperID,
		ModelOfInterest: strings.TrimSpace(p.ModelOfInterest),
		ReferencePrice:  p.ReferencePrice,
		CommissionPct:   p.CommissionPct,
		AppointmentDate: p.AppointmentDate,
		AppointmentTime: p.AppointmentTime,
		Origin:          origin,
		SourceURL:       p.SourceURL,
		Context:         p.Context,
		CreatedBy:       p.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        lead.ID,
		ClientID:      lead.ClientID,
		DevelopmentID: lead.DevelopmentID,
		DeveloperID:   lead.DeveloperID,
	})
	s.log.LeadEvent("lead.submitted", lead.ID.String(), string(lead.Status))

	// Notification intents never abort a committed lead.
	if err := s.notifier.LeadSubmitted(ctx, lead); err != nil {
		s.log.NotificationError("outbox.lead_submitted", lead.ID.String(), err)
	}

	return &SubmitResult{LeadID: lead.ID, ClientID: lead.ClientID, Status: string(lead.Status)}, nil
}

// Reschedule moves a lead's visit to a new validated slot.
func (s *Service) Reschedule(ctx context.Context, leadID uuid.UUID, date time.Time, timeLabel string) (*repository.Lead, error) {
	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status.IsTerminal() {
		return nil, apperr.Conflict("lead is closed; its visit cannot be rescheduled")
	}
	if err := booking.ValidateSelection(date, timeLabel, s.now()); err != nil {
		return nil, err
	}
	return s.leads.UpdateAppointment(ctx, leadID, date, timeLabel)
}

func (s *Service) resolveClient(ctx context.Context, p SubmitParams) (uuid.UUID, error) {
	if p.ProvidedClientID != nil {
		// Trusted id from an authenticated surface; refresh the phone
		// opportunistically but never fail the intake over it.
		if p.Phone != "" {
			if err := s.clients.RefreshPhone(ctx, *p.ProvidedClientID, p.Phone); err != nil {
				s.log.DatabaseError("leads.refresh_client_phone", err)
			}
		}
		return *p.ProvidedClientID, nil
	}

	client, err := s.clients.Resolve(ctx, p.Name, p.Email, p.Phone)
	if err != nil {
		return uuid.Nil, err
	}
	return client.ID, nil
}

func (s *Service) validateBooking(ctx context.Context, clientID uuid.UUID, p SubmitParams) error {
	if p.AppointmentDate == nil || p.AppointmentTime == nil {
		return apperr.Validation("appointment requires both a date and a time")
	}
	now := s.now()

	if s.cfg.GetBookingSingleActive() {
		existing, err := s.leads.FindActiveBooking(ctx, clientID, p.DevelopmentID, now)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "duplicate booking check failed", err).WithOp("leads.Submit")
		}
		if existing != nil {
			return apperr.Conflict("client already has an upcoming visit for this development")
		}
	}

	return booking.ValidateSelection(*p.AppointmentDate, *p.AppointmentTime, now)
}
