package service

import (
	"context"
	"fmt"
	"strings"

	advisorssvc "inmueble_backend/internal/advisors/service"
	"inmueble_backend/internal/events"
	"inmueble_backend/internal/leads/domain"
	"inmueble_backend/internal/leads/repository"
	"inmueble_backend/platform/apperr"

	"github.com/google/uuid"
)

// Report hands the lead to the developer's sales desk. Idempotent: reporting
// an already-reported lead is a no-op success and appends no history.
func (s *Service) Report(ctx context.Context, leadID uuid.UUID, reportedBy string) (*repository.Lead, error) {
	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status == domain.StatusReported {
		return lead, nil
	}

	updated, err := s.leads.Transition(ctx, leadID, repository.TransitionParams{
		Status:    domain.StatusReported,
		ChangedBy: reportedBy,
		Note:      "reported to developer",
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, lead.Status, updated, reportedBy)
	return updated, nil
}

// AssignAdvisor registers (or refreshes) the advisor and moves the lead to
// ASSIGNED_EXTERNAL. The lead transition is the source of truth: the
// advisor-side history append afterwards is best-effort and never rolls the
// assignment back.
func (s *Service) AssignAdvisor(ctx context.Context, leadID uuid.UUID, advisor advisorssvc.RegisterParams, assignedBy string) (*repository.Lead, error) {
	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if advisor.DeveloperID == "" {
		advisor.DeveloperID = lead.DeveloperID
	}

	registered, err := s.advisors.CreateOrUpdate(ctx, advisor)
	if err != nil {
		return nil, err
	}

	updated, err := s.leads.Transition(ctx, leadID, repository.TransitionParams{
		Status:    domain.StatusAssignedExternal,
		ChangedBy: assignedBy,
		Note:      "assigned to " + registered.Name,
		AdvisorID: &registered.ID,
	})
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Lead: %s (%s)", updated.ContactName, updated.DevelopmentName)
	s.advisors.RecordAssignment(ctx, registered.ID, leadID, summary)

	s.publishStatusChange(ctx, lead.Status, updated, assignedBy)

	if err := s.notifier.LeadAssigned(ctx, updated, registered.Name, registered.Phone); err != nil {
		s.log.NotificationError("outbox.lead_assigned", leadID.String(), err)
	}
	return updated, nil
}

// CloseParams carries the terminal outcome and its status-specific payload.
type CloseParams struct {
	Outcome domain.Status
	// WON payload.
	FinalAmount *float64
	FinalModel  *string
	// LOST payload.
	Reason   *string
	ClosedBy string
}

// Close moves the lead to a terminal outcome.
func (s *Service) Close(ctx context.Context, leadID uuid.UUID, p CloseParams) (*repository.Lead, error) {
	switch p.Outcome {
	case domain.StatusWon:
		if p.FinalAmount == nil || p.FinalModel == nil || strings.TrimSpace(*p.FinalModel) == "" {
			return nil, apperr.Validation("closing as WON requires finalAmount and finalModel")
		}
	case domain.StatusLost:
		if p.Reason == nil || strings.TrimSpace(*p.Reason) == "" {
			return nil, apperr.Validation("closing as LOST requires a reason")
		}
	case domain.StatusClosed:
	default:
		return nil, apperr.Validation("close outcome must be WON, LOST or CLOSED")
	}

	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}

	updated, err := s.leads.Transition(ctx, leadID, repository.TransitionParams{
		Status:      p.Outcome,
		ChangedBy:   p.ClosedBy,
		Note:        closeNote(p),
		FinalAmount: p.FinalAmount,
		FinalModel:  p.FinalModel,
		LostReason:  p.Reason,
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, lead.Status, updated, p.ClosedBy)
	return updated, nil
}

// EstimateCommission computes the advisor commission estimate for a closed
// sale. Zero-safe: missing or non-positive inputs yield 0, never an error.
func EstimateCommission(referencePrice, commissionPct float64) float64 {
	if referencePrice <= 0 || commissionPct <= 0 {
		return 0
	}
	return referencePrice * commissionPct / 100
}

func closeNote(p CloseParams) string {
	switch p.Outcome {
	case domain.StatusWon:
		return fmt.Sprintf("won: %s at %.2f", *p.FinalModel, *p.FinalAmount)
	case domain.StatusLost:
		return "lost: " + *p.Reason
	default:
		return "closed without outcome"
	}
}

func (s *Service) publishStatusChange(ctx context.Context, from domain.Status, lead *repository.Lead, changedBy string) {
	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		FromStatus: string(from),
		ToStatus:   string(lead.Status),
		ChangedBy:  changedBy,
	})
	s.log.LeadEvent("lead.status_changed", lead.ID.String(), string(lead.Status))
}
