// Package service implements the external advisor registry: developer-side
// salespeople deduplicated globally by phone number.
package service

import (
	"context"
	"strings"

	"inmueble_backend/internal/advisors/repository"
	"inmueble_backend/platform/apperr"
	"inmueble_backend/platform/logger"
	"inmueble_backend/platform/phone"

	"github.com/google/uuid"
)

// DefaultPosition is assigned when registration omits the advisor's role.
const DefaultPosition = "Asesor Comercial"

// Store is the persistence surface the registry needs. Satisfied by
// *repository.Repository; narrowed for tests.
type Store interface {
	FindByPhoneKey(ctx context.Context, phoneKey string) (*repository.ExternalAdvisor, error)
	Upsert(ctx context.Context, p repository.UpsertParams) (*repository.ExternalAdvisor, error)
	ListByDeveloper(ctx context.Context, developerID string) ([]repository.ExternalAdvisor, error)
	AppendAssignment(ctx context.Context, advisorID, leadID uuid.UUID, summary string) error
}

// RegisterParams carries advisor registration input.
type RegisterParams struct {
	Name        string
	Phone       string
	Email       string
	Position    string
	DeveloperID string
}

// Service manages external advisor identities and their assignment history.
type Service struct {
	repo Store
	log  *logger.Logger
}

// New creates the advisor registry service.
func New(repo Store, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// FindByPhone looks up an advisor by any formatting of their phone number.
// Returns nil without error when no advisor matches.
func (s *Service) FindByPhone(ctx context.Context, phoneNumber string) (*repository.ExternalAdvisor, error) {
	key := phone.LookupKey(phoneNumber)
	if key == "" {
		return nil, apperr.Validation("advisor phone is required")
	}
	advisor, err := s.repo.FindByPhoneKey(ctx, key)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "advisor lookup failed", err).WithOp("advisors.FindByPhone")
	}
	return advisor, nil
}

// CreateOrUpdate registers an advisor or refreshes the existing record that
// shares the phone key. Name, email and position are refreshed on a match;
// the phone key, developer binding and metric counters are not.
func (s *Service) CreateOrUpdate(ctx context.Context, p RegisterParams) (*repository.ExternalAdvisor, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, apperr.Validation("advisor name is required")
	}
	if strings.TrimSpace(p.DeveloperID) == "" {
		return nil, apperr.Validation("developer id is required")
	}
	key := phone.LookupKey(p.Phone)
	if key == "" {
		return nil, apperr.Validation("advisor phone is required")
	}

	position := strings.TrimSpace(p.Position)
	if position == "" {
		position = DefaultPosition
	}

	advisor, err := s.repo.Upsert(ctx, repository.UpsertParams{
		Name:        name,
		Phone:       phone.NormalizeE164(p.Phone),
		PhoneKey:    key,
		Email:       strings.TrimSpace(p.Email),
		Position:    position,
		DeveloperID: strings.TrimSpace(p.DeveloperID),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "advisor registration failed", err).WithOp("advisors.CreateOrUpdate")
	}
	return advisor, nil
}

// ListByDeveloper returns the advisors registered for one developer.
func (s *Service) ListByDeveloper(ctx context.Context, developerID string) ([]repository.ExternalAdvisor, error) {
	developerID = strings.TrimSpace(developerID)
	if developerID == "" {
		return nil, apperr.Validation("developer id is required")
	}
	items, err := s.repo.ListByDeveloper(ctx, developerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "advisor listing failed", err).WithOp("advisors.ListByDeveloper")
	}
	return items, nil
}

// RecordAssignment appends a lead hand-off to the advisor's history. The
// entry is descriptive, not authoritative: failures are logged and swallowed
// so an assignment never rolls back over its audit trail.
func (s *Service) RecordAssignment(ctx context.Context, advisorID, leadID uuid.UUID, summary string) {
	if err := s.repo.AppendAssignment(ctx, advisorID, leadID, summary); err != nil {
		s.log.DatabaseError("advisors.record_assignment", err)
	}
}
