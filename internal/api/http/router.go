package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-platform/internal/api/http/handlers"
	"github.com/spec-kit/ticket-platform/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Messages       *handlers.MessagesHandler
	Support        *handlers.SupportHandler
	Users          *handlers.UsersHandler
	WebSocket      *handlers.WebSocketHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)
	authGroup.Patch("/me", cfg.AuthMiddleware.Handle, cfg.Users.UpdateMe)

	tickets := app.Group("/tickets")
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/stats/summary", cfg.Tickets.Stats)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", cfg.Tickets.Delete)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	tickets.Get("/:id/messages", cfg.Messages.List)
	tickets.Post("/:id/messages", cfg.Messages.Create)
	tickets.Get("/:id/unread-count", cfg.Messages.UnreadCount)
	tickets.Post("/:id/mark-read", cfg.Messages.MarkRead)

	support := app.Group("/support", cfg.AuthMiddleware.Handle)
	support.Get("/check", cfg.Support.Check)

	supportOnly := support.Group("", auth.RequireSupport())
	supportOnly.Get("/tickets/unassigned", cfg.Support.Unassigned)
	supportOnly.Get("/tickets/assigned", cfg.Support.Assigned)
	supportOnly.Post("/tickets/:id/claim", cfg.Support.Claim)

	app.Get("/ws/notifications", cfg.WebSocket.Upgrade, cfg.WebSocket.Handle())
}
