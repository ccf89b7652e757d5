// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"inmueble_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published after a lead is persisted with its initial status.
type LeadCreated struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	ClientID      uuid.UUID `json:"clientId"`
	DevelopmentID string    `json:"developmentId"`
	DeveloperID   string    `json:"developerId"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStatusChanged is published after a successful funnel transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ChangedBy  string    `json:"changedBy"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// =============================================================================
// Notification Domain Events
// =============================================================================

// NotificationOutboxDue is published by the worker when an outbox record is
// due for delivery.
type NotificationOutboxDue struct {
	BaseEvent
	OutboxID uuid.UUID `json:"outboxId"`
}

func (e NotificationOutboxDue) EventName() string { return "notification.outbox.due" }
