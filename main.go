// main.go - server entry point
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codemaster/achievements"
	"codemaster/config"
	"codemaster/database"
	"codemaster/logger"
	"codemaster/services"
	"codemaster/telemetry"

	"github.com/gofiber/fiber/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("FATAL: invalid configuration", "error", err)
	}
	if cfg.IsProduction() && (cfg.CORSOrigins == "" || cfg.CORSOrigins == "http://localhost:3000") {
		log.Warn("CORS_ORIGINS not properly configured for production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitOTel(ctx, log, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.AppEnv,
	})
	if err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}

	db, err := database.InitDB(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			log.Warn("closing database failed", "error", err)
		}
	}()

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatal("Failed to load achievement catalog", "error", err)
	}
	if _, err := database.SeedCatalog(ctx, db, catalog.Models(), log); err != nil {
		log.Fatal("Failed to seed achievement catalog", "error", err)
	}

	loc, _ := cfg.Location()
	notifier := services.NewNotifier(log)
	svc := achievements.NewService(db, achievements.Options{
		Rules:     catalog.ModuleRules,
		Location:  loc,
		Publisher: notifier,
		Logger:    log,
	})

	seen := services.NewSeenMarker(svc, services.SeenMarkerConfig{
		QueueSize: cfg.SeenQueueSize,
		MaxTries:  cfg.SeenMaxTries,
	}, log)
	seen.Start(ctx)

	app := newApp(cfg)
	limiter := setupRoutes(app, cfg, log, appDeps{
		db:       db,
		service:  svc,
		seen:     seen,
		notifier: notifier,
	})
	if limiter != nil {
		limiter.StartJanitor(ctx)
	}

	go func() {
		log.Info("🚀 HTTP server starting", "port", cfg.Port, "env", cfg.AppEnv, "timezone", loc.String())
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("HTTP server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown failed", "error", err)
	}
	seen.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown failed", "error", err)
	}
}

func loadCatalog(path string) (*achievements.Catalog, error) {
	if path == "" {
		return achievements.DefaultCatalog()
	}
	return achievements.LoadCatalogFile(path)
}

func customErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		}

		// Don't expose internal errors in production
		if production && code == fiber.StatusInternalServerError {
			message = "An error occurred. Please try again later."
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}
