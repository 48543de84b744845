package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "practicum-portal/portal-backend/api/v1"
	"practicum-portal/portal-backend/internal/config"
)

func main() {
	bootstrap, _ := zap.NewProduction()
	defer bootstrap.Sync()

	cfg, logger, err := config.Bootstrap(envOr("CONFIG_PATH", "config.json"), bootstrap)
	if err != nil {
		bootstrap.Fatal("Failed to initialize", zap.Error(err))
	}
	defer logger.Sync()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := v1.SetupAPI(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to set up API", zap.Error(err))
	}

	// Roster snapshots only run in-process when a schedule is configured.
	if cfg.Reports.SnapshotCron != "" {
		snapshots, err := api.NewSnapshotManager(cfg.Reports, logger)
		if err != nil {
			logger.Fatal("Failed to set up snapshot schedule", zap.Error(err))
		}
		if err := snapshots.Start(); err != nil {
			logger.Fatal("Failed to start snapshot schedule", zap.Error(err))
		}
		defer snapshots.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      v1.NewRouter(api, cfg.Server, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("addr", srv.Addr),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("storage", cfg.Storage.Driver))

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
