// Package service implements the lead lifecycle engine and the assignment
// coordinator on top of the lead store, the client identity resolver and the
// external advisor registry.
package service

import (
	"context"
	"time"

	advisorsrepo "inmueble_backend/internal/advisors/repository"
	advisorssvc "inmueble_backend/internal/advisors/service"
	clientsrepo "inmueble_backend/internal/clients/repository"
	"inmueble_backend/internal/events"
	"inmueble_backend/internal/leads/repository"
	"inmueble_backend/platform/config"
	"inmueble_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadStore is the persistence surface of the lead funnel. Satisfied by
// *repository.Repository; narrowed for tests.
type LeadStore interface {
	Create(ctx context.Context, p repository.CreateParams) (*repository.Lead, error)
	Get(ctx context.Context, id uuid.UUID) (*repository.Lead, error)
	Transition(ctx context.Context, id uuid.UUID, p repository.TransitionParams) (*repository.Lead, error)
	FindActiveBooking(ctx context.Context, clientID uuid.UUID, developmentID string, now time.Time) (*repository.Lead, error)
	List(ctx context.Context, f repository.ListFilter) ([]repository.Lead, error)
	History(ctx context.Context, leadID uuid.UUID) ([]repository.HistoryEntry, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, date time.Time, timeLabel string) (*repository.Lead, error)
}

// ClientResolver deduplicates intake contacts into client identities.
type ClientResolver interface {
	Resolve(ctx context.Context, name, email, phoneNumber string) (*clientsrepo.Client, error)
	RefreshPhone(ctx context.Context, id uuid.UUID, phoneNumber string) error
}

// AdvisorRegistry manages external advisor identities for assignment.
type AdvisorRegistry interface {
	CreateOrUpdate(ctx context.Context, p advisorssvc.RegisterParams) (*advisorsrepo.ExternalAdvisor, error)
	RecordAssignment(ctx context.Context, advisorID, leadID uuid.UUID, summary string)
}

// Notifier records notification intents for asynchronous delivery. It is an
// outbox, not a transport: implementations must stay cheap and local.
type Notifier interface {
	LeadSubmitted(ctx context.Context, lead *repository.Lead) error
	LeadAssigned(ctx context.Context, lead *repository.Lead, advisorName, advisorPhone string) error
}

// Service drives leads through the funnel.
type Service struct {
	leads    LeadStore
	clients  ClientResolver
	advisors AdvisorRegistry
	notifier Notifier
	bus      events.Bus
	cfg      config.BookingConfig
	now      func() time.Time
	log      *logger.Logger
}

// New creates the lead service. now is injected so booking-window rules stay
// deterministic under test; production wiring passes time.Now.
func New(
	leads LeadStore,
	clients ClientResolver,
	advisors AdvisorRegistry,
	notifier Notifier,
	bus events.Bus,
	cfg config.BookingConfig,
	now func() time.Time,
	log *logger.Logger,
) *Service {
	return &Service{
		leads:    leads,
		clients:  clients,
		advisors: advisors,
		notifier: notifier,
		bus:      bus,
		cfg:      cfg,
		now:      now,
		log:      log,
	}
}

// Get returns one lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.Lead, error) {
	return s.leads.Get(ctx, id)
}

// List returns leads matching the filter, newest activity first.
func (s *Service) List(ctx context.Context, f repository.ListFilter) ([]repository.Lead, error) {
	return s.leads.List(ctx, f)
}

// History returns the lead's append-only audit trail.
func (s *Service) History(ctx context.Context, leadID uuid.UUID) ([]repository.HistoryEntry, error) {
	return s.leads.History(ctx, leadID)
}
