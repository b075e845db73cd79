package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/timetable_service/internal/app"
	"github.com/Freeeeeet/timetable_service/internal/config"
	"github.com/Freeeeeet/timetable_service/internal/controller"
	"github.com/Freeeeeet/timetable_service/internal/external"
	"github.com/Freeeeeet/timetable_service/internal/repository"
	"github.com/Freeeeeet/timetable_service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting timetable service",
		zap.String("environment", cfg.Environment),
		zap.String("http_port", cfg.HTTPPort),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	slotRepo := repository.NewSlotRepository(pool, logger)
	sessionRepo := repository.NewSessionRepository(pool, logger)
	coreAPI := external.NewClient(cfg.CoreAPIBaseURL, logger)

	scheduleService := service.NewScheduleService(slotRepo, coreAPI, coreAPI, logger)
	generationService := service.NewGenerationService(slotRepo, sessionRepo, service.GenerationConfig{
		SkipExisting: cfg.SkipExistingInstances,
	}, logger)

	handler := controller.NewScheduleHandler(scheduleService, generationService, logger)

	fiberApp := fiber.New(fiber.Config{
		AppName: "timetable_service",
	})

	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE",
		AllowHeaders: "Content-Type,X-Actor-ID",
	}))
	fiberApp.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	controller.SetupRoutes(fiberApp, handler)

	scheduler := app.NewScheduler(generationService, cfg.GenerationCronSpec, cfg.GenerationHorizonWeeks, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start background scheduler", zap.Error(err))
	}

	go func() {
		if err := fiberApp.Listen(":" + cfg.HTTPPort); err != nil {
			logger.Fatal("HTTP server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	scheduler.Stop()
	if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
}
