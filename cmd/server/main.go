package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evolvia/student-lab-backend/internal/app"
	"github.com/evolvia/student-lab-backend/internal/infrastructure/auth"
	"github.com/evolvia/student-lab-backend/internal/infrastructure/db"
	"github.com/evolvia/student-lab-backend/internal/infrastructure/services"
	"github.com/evolvia/student-lab-backend/internal/router"
	"github.com/evolvia/student-lab-backend/internal/usecase"
	"github.com/evolvia/student-lab-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(cfg.App.LogLevel)
	appLogger.Info("Starting server", logger.String("environment", cfg.App.Environment))

	// Connect to the state store
	redisClient, err := db.Connect(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to state store", logger.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("State store connected", logger.String("addr", cfg.Redis.Addr()))

	// Initialize bearer token verification
	verifier, err := auth.NewVerifier(cfg.Auth0, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize token verifier", logger.Error(err))
	}

	// Initialize repositories
	labRepo := db.NewLabRepository(redisClient)

	// Initialize outbound integrations
	dispatcher := services.NewGitHubDispatcher(cfg.GitHub, appLogger)
	messenger := services.NewMessenger(cfg.Messenger, appLogger)
	labVerifier := services.NewLabVerifier(cfg.Verify, appLogger)
	webhook := services.NewStatusWebhook(cfg.Webhook, appLogger)
	if webhook.Enabled() {
		appLogger.Info("Content webhook enabled")
	}

	// Initialize use cases
	labUseCase := usecase.NewLabUseCase(labRepo, dispatcher, messenger, labVerifier, webhook, appLogger)

	// Setup router with all dependencies
	deps := &router.Dependencies{
		LabUseCase: labUseCase,
		Verifier:   verifier,
		Logger:     appLogger,
		Config:     cfg,
	}
	r := app.SetupRouter(cfg, deps)

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		appLogger.Info("Server started", logger.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", logger.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.Error(err))
	}

	appLogger.Info("Server shutdown complete")
}
