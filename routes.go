// routes.go - Fiber app and route table
package main

import (
	"time"

	"codemaster/achievements"
	"codemaster/config"
	"codemaster/handlers"
	"codemaster/handlers/admin"
	"codemaster/logger"
	"codemaster/middleware"
	"codemaster/models"
	"codemaster/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"
)

type appDeps struct {
	db       *gorm.DB
	service  *achievements.Service
	seen     handlers.SeenQueue
	notifier *services.Notifier
}

func newApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler(cfg.IsProduction()),
		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	return app
}

// setupRoutes mounts every endpoint and returns the API rate limiter, or nil
// when rate limiting is off.
func setupRoutes(app *fiber.App, cfg *config.Config, log *logger.Logger, deps appDeps) *middleware.RateLimiter {
	auth := middleware.NewAuth(cfg.JWTSecret)
	h := handlers.New(deps.db, deps.service, deps.seen, log)
	adminAchievements := admin.NewAchievementsHandler(deps.service, log)
	adminStudents := admin.NewStudentsHandler(deps.service, log)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		})
	})

	api := app.Group("/api")
	var limiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
		api.Use(limiter.Middleware())
	}
	api.Use(auth.Required)

	// Student routes
	students := api.Group("/students", middleware.RequireRoles(models.RoleStudent))
	students.Get("/progress", h.GetProgress)
	students.Post("/progress", h.RecordProgress)
	students.Get("/stats", h.GetStats)
	students.Get("/next-topics", h.GetNextTopics)

	// Forum activity
	api.Post("/forum/activities", middleware.RequireRoles(models.RoleStudent), h.RecordForumActivity)

	// Achievement routes
	ach := api.Group("/achievements")
	ach.Get("/me", h.GetMyAchievements)
	ach.Post("/check", h.CheckAchievements)
	ach.Get("/unseen", middleware.RequireRoles(models.RoleStudent), h.GetUnseenAchievements)
	ach.Post("/seen", middleware.RequireRoles(models.RoleStudent), h.MarkAchievementsSeen)

	// Admin routes
	adminGroup := api.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	adminGroup.Get("/achievements", adminAchievements.GetAchievements)
	adminGroup.Put("/achievements/:id", adminAchievements.UpdateAchievement)
	adminGroup.Get("/students/:id/achievements", adminStudents.GetStudentAchievements)
	adminGroup.Get("/ranking", adminStudents.GetRanking)

	// Live achievement toasts
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/achievements", auth.WebSocket, deps.notifier.Handler())

	return limiter
}
