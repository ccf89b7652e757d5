package transport

import (
	"time"

	"inmueble_backend/internal/advisors/repository"

	"github.com/google/uuid"
)

type RegisterAdvisorRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Phone       string `json:"phone" validate:"required,max=50"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Position    string `json:"position,omitempty" validate:"omitempty,max=120"`
	DeveloperID string `json:"developerId" validate:"required,max=120"`
}

type AdvisorResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email,omitempty"`
	Position    string    `json:"position"`
	DeveloperID string    `json:"developerId"`
	Active      bool      `json:"active"`
	WonCount    int       `json:"wonCount"`
	LostCount   int       `json:"lostCount"`
	CloseRate   float64   `json:"closeRate"`
	CreatedAt   time.Time `json:"createdAt"`
}

type AdvisorListResponse struct {
	Items []AdvisorResponse `json:"items"`
	Total int               `json:"total"`
}

func ToAdvisorResponse(a *repository.ExternalAdvisor) AdvisorResponse {
	return AdvisorResponse{
		ID:          a.ID,
		Name:        a.Name,
		Phone:       a.Phone,
		Email:       a.Email,
		Position:    a.Position,
		DeveloperID: a.DeveloperID,
		Active:      a.Active,
		WonCount:    a.WonCount,
		LostCount:   a.LostCount,
		CloseRate:   a.CloseRate,
		CreatedAt:   a.CreatedAt,
	}
}

func ToAdvisorListResponse(items []repository.ExternalAdvisor) AdvisorListResponse {
	out := AdvisorListResponse{Items: make([]AdvisorResponse, 0, len(items)), Total: len(items)}
	for i := range items {
		out.Items = append(out.Items, ToAdvisorResponse(&items[i]))
	}
	return out
}
