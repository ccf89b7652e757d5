// Package leads provides the lead lifecycle bounded context module.
package leads

import (
	"time"

	advisorssvc "inmueble_backend/internal/advisors/service"
	clientssvc "inmueble_backend/internal/clients/service"
	"inmueble_backend/internal/events"
	apphttp "inmueble_backend/internal/http"
	"inmueble_backend/internal/leads/handler"
	"inmueble_backend/internal/leads/repository"
	"inmueble_backend/internal/leads/service"
	"inmueble_backend/platform/config"
	"inmueble_backend/platform/logger"
	"inmueble_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
}

// NewModule wires the lead lifecycle engine with its collaborators: the
// client identity resolver, the advisor registry and the notification outbox.
func NewModule(
	pool *pgxpool.Pool,
	clients *clientssvc.Service,
	advisors *advisorssvc.Service,
	notifier service.Notifier,
	eventBus events.Bus,
	bookingCfg config.BookingConfig,
	log *logger.Logger,
	val *validator.Validator,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, clients, advisors, notifier, eventBus, bookingCfg, time.Now, log)
	h := handler.New(svc, val)
	ph := handler.NewPublicHandler(svc, val, time.Now)

	return &Module{handler: h, publicHandler: ph, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context. Intake
// and slot discovery are public; everything else requires auth.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	intake := ctx.V1.Group("/leads")
	intake.Use(ctx.IntakeRateLimiter.RateLimit())
	m.publicHandler.RegisterIntakeRoutes(intake)

	m.publicHandler.RegisterBookingRoutes(ctx.V1.Group("/booking"))

	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
