package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Services       *handlers.ServicesHandler
	Technicians    *handlers.TechniciansHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	admin := auth.RequireRole(domain.RoleAdmin)
	client := auth.RequireRole(domain.RoleClient)
	technician := auth.RequireRole(domain.RoleTechnician)
	staff := auth.RequireRole(domain.RoleAdmin, domain.RoleTechnician)
	anyRole := auth.RequireAuthenticated()
	authn := cfg.AuthMiddleware.Handle

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", authn, admin, cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/clients/register", cfg.Auth.RegisterClient)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", authn, anyRole, cfg.Auth.Logout)
	authGroup.Put("/password", authn, anyRole, cfg.Auth.ChangePassword)

	tickets := app.Group("/tickets", authn)
	tickets.Post("/", client, cfg.Tickets.CreateTicket)
	tickets.Get("/", admin, cfg.Tickets.ListTickets)
	tickets.Get("/client", client, cfg.Tickets.ListTickets)
	tickets.Get("/technician", technician, cfg.Tickets.ListTickets)
	tickets.Get("/:id", anyRole, cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", anyRole, cfg.Tickets.ListHistory)
	tickets.Put("/:id/status", staff, cfg.Tickets.UpdateStatus)
	tickets.Put("/:id/services", technician, cfg.Tickets.AttachServices)
	tickets.Post("/:id/additional-services", technician, cfg.Tickets.AddAdditionalService)
	tickets.Delete("/:id/services/:serviceId", technician, cfg.Tickets.DetachService)

	services := app.Group("/services", authn)
	services.Get("/", anyRole, cfg.Services.List)
	services.Post("/", admin, cfg.Services.Create)
	services.Patch("/:id", admin, cfg.Services.Update)
	services.Patch("/:id/reactivate", admin, cfg.Services.Reactivate)
	services.Delete("/:id/ticket", technician, cfg.Tickets.RemoveService)
	services.Delete("/:id/hard", admin, cfg.Services.HardDelete)
	services.Delete("/:id", admin, cfg.Services.Deactivate)

	technicians := app.Group("/technicians", authn)
	technicians.Post("/", admin, cfg.Technicians.Create)
	technicians.Get("/", admin, cfg.Technicians.List)
	technicians.Get("/:id", staff, cfg.Technicians.Get)
	technicians.Put("/:id/availability", staff, cfg.Technicians.UpdateAvailability)
	technicians.Delete("/:id", admin, cfg.Technicians.Delete)
}
