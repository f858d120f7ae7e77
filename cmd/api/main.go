package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"learninglog-backend/application/services"
	"learninglog-backend/infrastructure/ai"
	"learninglog-backend/infrastructure/config"
	"learninglog-backend/infrastructure/observability"
	"learninglog-backend/infrastructure/persistence/sqlite"
	"learninglog-backend/interfaces/graph"
	"learninglog-backend/interfaces/http/rest"
	"learninglog-backend/interfaces/http/rest/handlers"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	// Open storage
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	metrics := observability.NewCollector(cfg.MetricsNamespace)

	// Wire the application
	logService := services.NewLogService(db, logger, metrics)

	aiClient := ai.NewClient(ai.Config{
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
	}, ai.NewQuota(), logger)
	insightsService := ai.NewService(aiClient, logger, metrics)

	graphqlHandler, err := graph.NewHandler(graph.NewResolver(logService, logger), logger)
	if err != nil {
		logger.Fatal("Failed to build GraphQL schema", zap.Error(err))
	}

	insightsHandler := handlers.NewInsightsHandler(logService, insightsService, logger)

	router := rest.NewRouter(graphqlHandler, insightsHandler, metrics, db, logger, cfg.AllowedOrigins)
	handler := router.Setup()

	// Hot-reload the overlay file in development
	if cfg.OverlayPath != "" && cfg.IsDevelopment() {
		watcher, err := config.NewWatcher(cfg, logger)
		if err != nil {
			logger.Warn("Config watcher unavailable", zap.Error(err))
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.Bool("aiEnabled", aiClient.Enabled()),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var zapCfg zap.Config
	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
