package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/comexdesk/broker-portal/internal/api/http/handlers"
	"github.com/comexdesk/broker-portal/internal/auth"
	"github.com/comexdesk/broker-portal/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Accounts.Register)
	authGroup.Post("/login", cfg.Accounts.Login)
	authGroup.Post("/logout", cfg.Accounts.Logout)

	app.Get("/address/:cep", cfg.Accounts.PostalLookup)

	profile := app.Group("/profile", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	profile.Get("", cfg.Accounts.Me)
	profile.Put("", cfg.Accounts.UpdateProfile)
	profile.Delete("", cfg.Accounts.DeleteAccount)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Get("", cfg.Tickets.List)
	tickets.Post("", auth.RequireRole(domain.RoleImporter), cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id/status", auth.RequireRole(domain.RoleBroker), cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)
	tickets.Post("/:id/messages/:messageId/important", cfg.Tickets.ToggleImportant)
	tickets.Post("/:id/edits", cfg.Tickets.ProposeEdit)
	tickets.Post("/:id/edits/decision", cfg.Tickets.ResolveEdit)
}
