package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plateful/recipe-api/internal/api"
	"github.com/plateful/recipe-api/internal/auth"
	"github.com/plateful/recipe-api/internal/config"
	"github.com/plateful/recipe-api/internal/images"
	"github.com/plateful/recipe-api/internal/logger"
	"github.com/plateful/recipe-api/internal/service"
	"github.com/plateful/recipe-api/internal/storage/sql"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Log.Level)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create data directory if needed (for SQLite)
	if cfg.Database.Driver == "sqlite3" {
		if err := os.MkdirAll("data", 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	// Initialize storage
	store, err := sql.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Initialize media storage
	imageStore, err := images.NewStore(cfg.Media.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	tokens := auth.NewTokens([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)

	// Initialize services
	userService := service.NewUserService(store, imageStore)
	recipeService := service.NewRecipeService(store, userService, imageStore)
	services := api.Services{
		Users:         userService,
		Recipes:       recipeService,
		Relations:     service.NewRelationService(store),
		Subscriptions: service.NewSubscriptionService(store, userService),
		ShoppingList:  service.NewShoppingListService(store),
	}

	// Create router
	router := api.NewRouter(store, services, tokens, imageStore, cfg.Server.BaseURL, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Infof("Starting recipe API on http://%s", cfg.Server.Addr())

	// Start server in goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped")
}
