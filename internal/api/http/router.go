package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/community-tickets/internal/api/http/handlers"
	"github.com/spec-kit/community-tickets/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Categories     *handlers.CategoriesHandler
	Settings       *handlers.SettingsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	communities := app.Group("/communities/:communityID", cfg.AuthMiddleware.Handle)
	communities.Get("/settings", cfg.Settings.Get)
	communities.Put("/settings", cfg.Settings.Update)

	communities.Get("/categories", cfg.Categories.List)
	communities.Post("/categories", cfg.Categories.Create)
	communities.Put("/categories/:categoryID", cfg.Categories.Update)
	communities.Delete("/categories/:categoryID", cfg.Categories.Delete)

	communities.Get("/tickets", cfg.Tickets.List)
	communities.Post("/tickets", cfg.Tickets.Open)
	communities.Get("/tickets/:number", cfg.Tickets.GetByNumber)

	tickets := app.Group("/tickets/:channelID", cfg.AuthMiddleware.Handle)
	tickets.Get("", cfg.Tickets.Get)
	tickets.Post("/claim", cfg.Tickets.Claim)
	tickets.Post("/unclaim", cfg.Tickets.Unclaim)
	tickets.Post("/transfer", cfg.Tickets.Transfer)
	tickets.Post("/close", cfg.Tickets.Close)
	tickets.Post("/rename", cfg.Tickets.Rename)
	tickets.Post("/participants", cfg.Tickets.AddParticipant)
	tickets.Post("/participants/remove", cfg.Tickets.RemoveParticipant)
}
