package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/classtrack/classtrack-api/internal/config"
	"github.com/classtrack/classtrack-api/internal/handler"
	"github.com/classtrack/classtrack-api/internal/middleware"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	UserHandler         *handler.UserHandler
	ClassHandler        *handler.ClassHandler
	StudentHandler      *handler.StudentHandler
	AttendanceHandler   *handler.AttendanceHandler
	FeeHandler          *handler.FeeHandler
	NotificationHandler *handler.NotificationHandler
	ReportHandler       *handler.ReportHandler
	CronHandler         *handler.CronHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.UserHandler != nil {
		// Credential endpoints are IP-limited to slow down brute forcing.
		deps.UserHandler.RegisterAuth(api.Group("/auth", middleware.RateLimit("auth", 20, time.Minute)))

		users := api.Group("/users", jwtMiddleware)
		deps.UserHandler.Register(users)
		deps.UserHandler.RegisterAdmin(users.Group("", middleware.RequireRole(models.RoleAdmin)))
	}

	if deps.ClassHandler != nil {
		deps.ClassHandler.Register(api.Group("/classes", jwtMiddleware))
	}

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", jwtMiddleware))
	}

	if deps.AttendanceHandler != nil {
		deps.AttendanceHandler.Register(api.Group("/attendance", jwtMiddleware))
	}

	if deps.FeeHandler != nil {
		deps.FeeHandler.Register(api.Group("/fees", jwtMiddleware))
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", jwtMiddleware))
	}

	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(api.Group("/reports", jwtMiddleware))
	}

	if deps.CronHandler != nil {
		deps.CronHandler.Register(api.Group("/cron", jwtMiddleware, middleware.RequireRole(models.RoleAdmin)))
	}
}
