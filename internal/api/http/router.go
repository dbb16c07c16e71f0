package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sla-service/internal/api/http/handlers"
	"github.com/spec-kit/ticket-sla-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Notifications  *handlers.NotificationsHandler
	PushTokens     *handlers.PushTokensHandler
	Settings       *handlers.SettingsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	push := app.Group("/push", cfg.AuthMiddleware.Optional)
	push.Post("/register", cfg.PushTokens.Register)
	push.Post("/unregister", cfg.PushTokens.Unregister)

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Require)
	notifications.Get("/", cfg.Notifications.List)
	notifications.Post("/read", cfg.Notifications.MarkRead)

	app.Put("/settings", cfg.AuthMiddleware.Require, cfg.Settings.Update)
}
