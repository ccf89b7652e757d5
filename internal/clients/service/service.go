// Package service implements client identity resolution: every lead is linked
// to exactly one Client, deduplicated by email first, then phone.
package service

import (
	"context"
	"strings"

	"inmueble_backend/internal/clients/repository"
	"inmueble_backend/platform/apperr"
	"inmueble_backend/platform/logger"
	"inmueble_backend/platform/phone"

	"github.com/google/uuid"
)

const defaultOrigin = "web_lead_form"

// Store is the persistence surface the resolver needs. Satisfied by
// *repository.Repository; narrowed for tests.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*repository.Client, error)
	FindByPhoneKey(ctx context.Context, phoneKey string) (*repository.Client, error)
	UpsertByEmail(ctx context.Context, p repository.CreateParams) (*repository.Client, error)
	UpsertByPhone(ctx context.Context, p repository.CreateParams) (*repository.Client, error)
	TouchLastSeen(ctx context.Context, id uuid.UUID) error
	UpdatePhone(ctx context.Context, id uuid.UUID, phoneNumber, phoneKey string) error
}

// Service resolves contact details to a single Client identity.
type Service struct {
	repo Store
	log  *logger.Logger
}

// New creates the client identity service.
func New(repo Store, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Resolve finds or creates the Client for the given contact details.
// Lookup priority: exact email, then normalized phone. Every successful
// resolution refreshes last_seen. A phone match opportunistically refreshes
// the stored phone to the freshly normalized form.
//
// Creation goes through the repository's atomic insert-if-absent upserts, so
// two concurrent intakes from the same new contact yield one row.
func (s *Service) Resolve(ctx context.Context, name, email, phoneNumber string) (*repository.Client, error) {
	email = strings.TrimSpace(email)
	normalized := phone.NormalizeE164(phoneNumber)
	phoneKey := phone.LookupKey(phoneNumber)

	if email == "" && phoneKey == "" {
		return nil, apperr.Validation("contact email or phone is required")
	}

	if email != "" {
		client, err := s.repo.FindByEmail(ctx, email)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "client lookup failed", err).WithOp("clients.Resolve")
		}
		if client != nil {
			if err := s.repo.TouchLastSeen(ctx, client.ID); err != nil {
				s.log.DatabaseError("clients.touch", err)
			}
			return client, nil
		}
	}

	if phoneKey != "" {
		client, err := s.repo.FindByPhoneKey(ctx, phoneKey)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "client lookup failed", err).WithOp("clients.Resolve")
		}
		if client != nil {
			if err := s.repo.UpdatePhone(ctx, client.ID, normalized, phoneKey); err != nil {
				s.log.DatabaseError("clients.refresh_phone", err)
			}
			client.Phone = normalized
			return client, nil
		}
	}

	params := repository.CreateParams{
		Name:     name,
		Email:    email,
		Phone:    normalized,
		PhoneKey: phoneKey,
		Origin:   defaultOrigin,
	}

	var (
		client *repository.Client
		err    error
	)
	if email != "" {
		client, err = s.repo.UpsertByEmail(ctx, params)
	} else {
		client, err = s.repo.UpsertByPhone(ctx, params)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "client creation failed", err).WithOp("clients.Resolve")
	}
	return client, nil
}

// RefreshPhone updates the stored phone for an already-resolved client.
// Used on intakes that arrive with a trusted client id.
func (s *Service) RefreshPhone(ctx context.Context, id uuid.UUID, phoneNumber string) error {
	key := phone.LookupKey(phoneNumber)
	if key == "" {
		return nil
	}
	return s.repo.UpdatePhone(ctx, id, phone.NormalizeE164(phoneNumber), key)
}
