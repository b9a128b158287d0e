package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gau-id-api/internal/config"
	"github.com/noah-isme/gau-id-api/internal/handler"
	"github.com/noah-isme/gau-id-api/internal/middleware"
	"github.com/noah-isme/gau-id-api/internal/models"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler          *handler.AuthHandler
	StudentHandler       *handler.StudentHandler
	NotificationHandler  *handler.NotificationHandler
	AdminReviewHandler   *handler.AdminReviewHandler
	AdminStudentHandler  *handler.AdminStudentHandler
	AdminActivityHandler *handler.AdminActivityHandler
	AnnouncementHandler  *handler.AnnouncementHandler
	SettingsHandler      *handler.SettingsHandler
	JWTMiddleware        fiber.Handler
	MetricsHandler       fiber.Handler
	HealthProbes         map[string]handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))
	if deps.MetricsHandler != nil {
		api.Get("/metrics", deps.MetricsHandler)
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", cfg.RateLimitMax, cfg.RateLimitWindow))
		deps.AuthHandler.Register(auth, jwtMiddleware, adminOnly)
	}

	if deps.AnnouncementHandler != nil {
		deps.AnnouncementHandler.RegisterPublic(api, jwtMiddleware)
	}

	student := api.Group("/student", jwtMiddleware, middleware.RequireRole(models.RoleStudent))
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(student)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(student.Group("/notifications"))
	}

	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(models.RoleAdmin, models.RoleStaff))
	if deps.AdminStudentHandler != nil {
		deps.AdminStudentHandler.Register(admin, adminOnly)
	}
	if deps.AdminReviewHandler != nil {
		deps.AdminReviewHandler.Register(admin, adminOnly)
	}
	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin)
	}
	if deps.AnnouncementHandler != nil {
		deps.AnnouncementHandler.RegisterAdmin(admin)
	}
	if deps.SettingsHandler != nil {
		deps.SettingsHandler.Register(admin, adminOnly)
	}
}
