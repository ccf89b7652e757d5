// Package advisors provides the external advisor registry bounded context.
package advisors

import (
	"inmueble_backend/internal/advisors/handler"
	"inmueble_backend/internal/advisors/repository"
	"inmueble_backend/internal/advisors/service"
	apphttp "inmueble_backend/internal/http"
	"inmueble_backend/platform/logger"
	"inmueble_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the advisors bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the advisors module with all its dependencies.
func NewModule(pool *pgxpool.Pool, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "advisors"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts advisor routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/advisors")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
