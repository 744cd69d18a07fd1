package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-food-recommender/internal/api/http"
	"github.com/i474232898/weather-food-recommender/internal/app"
	"github.com/i474232898/weather-food-recommender/internal/config"
	"github.com/i474232898/weather-food-recommender/internal/scheduler"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Weather cache, model, catalog and history behind the pipeline.
	a, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("failed to initialize recommender: %v", err)
	}
	defer a.Close()

	// Scheduler that keeps the weather cache warm.
	sched := scheduler.New(a.Cache, cfg.RefreshInterval, cfg.HTTPTimeout*3)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	server := fiber.New(fiber.Config{
		AppName:               "weather-food-recommender",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout * 4,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	server.Use(logger.New())
	server.Use(recover.New())

	// Basic health endpoint
	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-food-recommender",
			"location": a.Location.Key(),
		})
	})

	// Pages and API routes.
	httpapi.RegisterRoutes(server, httpapi.Deps{
		Pipeline: a.Pipeline,
		History:  a.History,
		Location: a.Location,
	})

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := server.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
