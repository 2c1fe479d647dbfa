package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/catalog-hub/catalog-service/internal/api/http/handlers"
	"github.com/catalog-hub/catalog-service/internal/auth"
	"github.com/catalog-hub/catalog-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// NewApp builds the fiber app. Immutable is required: the user store and the activity
// queue keep strings taken from request bodies, and fasthttp reuses those buffers for
// the next request. A zero bodyLimit keeps fiber's default.
func NewApp(name string, bodyLimit int) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:   name,
		BodyLimit: bodyLimit,
		Immutable: true,
	})
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")
	api.Post("/auth/login", cfg.Auth.Login)
	api.Post("/auth/logout", cfg.Auth.Logout)
	api.Post("/users", cfg.Users.Register)

	api.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	adminOnly := auth.RequireRole(domain.RoleAdmin)
	api.Get("/users", cfg.AuthMiddleware.Handle, adminOnly, cfg.Users.List)
	api.Get("/users/:id", cfg.AuthMiddleware.Handle, adminOnly, cfg.Users.Get)
}
