package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"inmueble_backend/internal/events"
	"inmueble_backend/internal/notification/outbox"
	"inmueble_backend/platform/config"
	"inmueble_backend/platform/logger"

	"github.com/google/uuid"
)

// maxDeliveryAttempts bounds redelivery before a record is parked as failed.
const maxDeliveryAttempts = 5

// Sender is the message transport. Satisfied by *whatsapp.Client.
type Sender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// DelivererStore is the outbox surface the deliverer drives records through.
type DelivererStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (outbox.Record, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkSucceeded(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
	MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error
}

// Deliverer renders due outbox records into WhatsApp messages and sends
// them. It subscribes to the outbox-due event published by the queue worker.
type Deliverer struct {
	store  DelivererStore
	sender Sender
	cfg    config.WhatsAppConfig
	log    *logger.Logger
}

// NewDeliverer creates the delivery handler.
func NewDeliverer(store DelivererStore, sender Sender, cfg config.WhatsAppConfig, log *logger.Logger) *Deliverer {
	return &Deliverer{store: store, sender: sender, cfg: cfg, log: log}
}

// Subscribe registers the deliverer on the bus.
func (d *Deliverer) Subscribe(bus events.Bus) {
	bus.Subscribe(events.NotificationOutboxDue{}.EventName(), d)
}

// Handle processes one due outbox record. Transient send failures put the
// record back in the pending pool until the attempt budget runs out.
func (d *Deliverer) Handle(ctx context.Context, event events.Event) error {
	due, ok := event.(events.NotificationOutboxDue)
	if !ok {
		return nil
	}

	rec, err := d.store.GetByID(ctx, due.OutboxID)
	if err != nil {
		return fmt.Errorf("load outbox record: %w", err)
	}
	if rec.Status == outbox.StatusSucceeded {
		return nil
	}

	if err := d.store.MarkProcessing(ctx, rec.ID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	recipient, message, err := d.render(rec)
	if err != nil {
		// Malformed payloads never become deliverable; park immediately.
		_ = d.store.MarkFailed(ctx, rec.ID, err.Error())
		return nil
	}

	if err := d.sender.SendMessage(ctx, recipient, message); err != nil {
		d.log.NotificationError("deliver."+rec.Template, rec.ID.String(), err)
		if rec.Attempts+1 >= maxDeliveryAttempts {
			_ = d.store.MarkFailed(ctx, rec.ID, err.Error())
			return nil
		}
		msg := err.Error()
		_ = d.store.MarkPending(ctx, rec.ID, &msg)
		return nil
	}

	return d.store.MarkSucceeded(ctx, rec.ID)
}

// render resolves the recipient and message text for a record. New-lead
// alerts go to the sales desk; hand-off messages go to the advisor.
func (d *Deliverer) render(rec outbox.Record) (recipient, message string, err error) {
	switch rec.Template {
	case TemplateLeadSubmitted:
		var p LeadSubmittedPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return "", "", fmt.Errorf("decode %s payload: %w", rec.Template, err)
		}
		recipient = d.cfg.GetSalesDeskPhone()
		if recipient == "" {
			return "", "", fmt.Errorf("sales desk phone not configured")
		}
		message = renderLeadSubmitted(p)
		return recipient, message, nil

	case TemplateLeadAssigned:
		var p LeadAssignedPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return "", "", fmt.Errorf("decode %s payload: %w", rec.Template, err)
		}
		if p.AdvisorPhone == "" {
			return "", "", fmt.Errorf("assignment payload has no advisor phone")
		}
		return p.AdvisorPhone, renderLeadAssigned(p), nil

	default:
		return "", "", fmt.Errorf("unknown notification template %q", rec.Template)
	}
}

func renderLeadSubmitted(p LeadSubmittedPayload) string {
	msg := fmt.Sprintf("Nuevo lead: %s", p.ContactName)
	if p.ContactPhone != "" {
		msg += fmt.Sprintf(" (%s)", p.ContactPhone)
	}
	if p.DevelopmentName != "" {
		msg += " interesado en " + p.DevelopmentName
	}
	if p.ModelOfInterest != "" {
		msg += ", modelo " + p.ModelOfInterest
	}
	if p.AppointmentDate != "" {
		msg += fmt.Sprintf(". Cita: %s %s", p.AppointmentDate, p.AppointmentTime)
	}
	return msg + "."
}

func renderLeadAssigned(p LeadAssignedPayload) string {
	msg := fmt.Sprintf("Hola %s, se te asignó el lead %s", p.AdvisorName, p.ContactName)
	if p.ContactPhone != "" {
		msg += fmt.Sprintf(" (%s)", p.ContactPhone)
	}
	if p.DevelopmentName != "" {
		msg += " del desarrollo " + p.DevelopmentName
	}
	return msg + "."
}
