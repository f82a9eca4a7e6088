package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdeskhq/helpdesk-service/internal/api/http/handlers"
	"github.com/helpdeskhq/helpdesk-service/internal/identity"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Tickets     *handlers.TicketsHandler
	Comments    *handlers.CommentsHandler
	Categories  *handlers.CategoriesHandler
	Users       *handlers.UsersHandler
	Attachments *handlers.AttachmentsHandler
}

// RegisterRoutes wires HTTP routes. Everything except the health probes
// requires a resolved caller identity.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", identity.Middleware())

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/requester", cfg.Tickets.ChangeRequester)
	tickets.Post("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/reopen", cfg.Tickets.Reopen)
	tickets.Post("/:id/cancel", cfg.Tickets.Cancel)
	tickets.Get("/:id/actions", cfg.Tickets.ListActions)

	tickets.Post("/:id/comments", cfg.Comments.Create)
	tickets.Get("/:id/comments", cfg.Comments.ListForTicket)
	api.Patch("/comments/:id", cfg.Comments.Edit)
	api.Delete("/comments/:id", cfg.Comments.Delete)

	tickets.Post("/:id/attachments", cfg.Attachments.Register)
	tickets.Get("/:id/attachments", cfg.Attachments.ListForTicket)
	api.Delete("/attachments/:id", cfg.Attachments.Delete)

	categories := api.Group("/categories")
	categories.Post("", cfg.Categories.Create)
	categories.Get("", cfg.Categories.List)
	categories.Get("/:id", cfg.Categories.Get)
	categories.Put("/:id", cfg.Categories.Update)
	categories.Delete("/:id", cfg.Categories.Delete)

	users := api.Group("/users")
	users.Post("", cfg.Users.Create)
	users.Get("", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)
}
