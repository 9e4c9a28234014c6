package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gym-targets/internal/api/http/handlers"
	"github.com/spec-kit/gym-targets/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Targets        *handlers.TargetsHandler
	TrainerTargets *handlers.TrainerTargetsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	targets := protected.Group("/targets")
	targets.Post("/", auth.RequireOperation(auth.OpCreateTarget), cfg.Targets.CreateTarget)
	targets.Get("/", cfg.Targets.ListTargets)
	targets.Get("/:id", cfg.Targets.GetTarget)
	targets.Get("/:id/rollup", cfg.Targets.GetRollup)
	targets.Patch("/:id", auth.RequireOperation(auth.OpUpdateTarget), cfg.Targets.UpdateTarget)
	targets.Patch("/:id/status", auth.RequireOperation(auth.OpTransitionStatus), cfg.Targets.TransitionStatus)
	targets.Delete("/:id", auth.RequireOperation(auth.OpDeleteTarget), cfg.Targets.DeleteTarget)

	protected.Get("/department-target/:id", cfg.Targets.GetDepartmentTarget)
	protected.Post("/trainer-targets/assign", cfg.TrainerTargets.Assign)
}
