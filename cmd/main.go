package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"github.com/vidlearn/genai-relay/config"
	"github.com/vidlearn/genai-relay/internal/api/middleware"
	"github.com/vidlearn/genai-relay/internal/db"
	"github.com/vidlearn/genai-relay/internal/db/repos"
	"github.com/vidlearn/genai-relay/internal/events"
	"github.com/vidlearn/genai-relay/internal/logger"
	"github.com/vidlearn/genai-relay/internal/notify"
	"github.com/vidlearn/genai-relay/internal/registry"
	"github.com/vidlearn/genai-relay/pkg/api/v1/handlers"
	"github.com/vidlearn/genai-relay/pkg/api/v1/routes"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	logger.InitializeAndConfigure()

	dbPort, err := strconv.Atoi(config.GetEnv("DB_PORT", strconv.Itoa(db.DefaultPort)))
	if err != nil {
		logger.Fatalf("Invalid DB_PORT: %v", err)
	}

	database, err := db.New(db.Options{
		Host:     config.GetEnv("DB_HOST", db.DefaultHost),
		User:     config.GetEnv("DB_USER", db.DefaultUser),
		Password: config.GetEnv("DB_PASSWORD", db.DefaultPassword),
		DBName:   config.GetEnv("DB_NAME", db.DefaultDBName),
		Port:     dbPort,
	})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire the core: repositories, event bus, notifier, registry
	jobRepo := repos.NewJobRepository(database)
	taskRepo := repos.NewTaskRepository(database)

	bus := events.NewBus()
	bus.Start(ctx)

	notifier := notify.New(notify.DefaultOptions(), taskRepo)
	notifier.Register(bus)

	reg := registry.New(jobRepo, taskRepo, bus)

	secret := config.GetEnv("WEBHOOK_SECRET", "default-webhook-secret")

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})
	app.Use(middleware.Logger())

	routes.RegisterRoutes(
		app,
		handlers.NewAPIHandler(reg),
		middleware.SharedSecret(middleware.SecretHeader, secret),
		middleware.SharedSecret(middleware.SignatureHeader, secret),
	)

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("Shutdown signal received")
		cancel()
		_ = app.Shutdown()
	}()

	port := config.GetEnv("PORT", routes.DefaultPort)
	logger.Infof("Starting genAI relay on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
