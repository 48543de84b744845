package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	v1 "practicum-portal/portal-backend/api/v1"
	"practicum-portal/portal-backend/internal/config"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON configuration file")
	once := flag.Bool("once", false, "take a single roster snapshot and exit")
	timeout := flag.Duration("timeout", 30*time.Minute, "timeout for a single snapshot")
	flag.Parse()

	bootstrap, _ := zap.NewProduction()
	defer bootstrap.Sync()

	cfg, logger, err := config.Bootstrap(*configPath, bootstrap)
	if err != nil {
		bootstrap.Fatal("Failed to initialize", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := v1.SetupAPI(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to set up services", zap.Error(err))
	}

	manager, err := api.NewSnapshotManager(cfg.Reports, logger)
	if err != nil {
		logger.Fatal("Failed to set up snapshot schedule", zap.Error(err))
	}

	if *once {
		runCtx, cancel := context.WithTimeout(ctx, *timeout)
		defer cancel()
		snapshot, err := manager.RunOnce(runCtx)
		if err != nil {
			logger.Error("Snapshot failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("Snapshot complete", zap.String("location", snapshot.Location))
		return
	}

	if err := manager.Start(); err != nil {
		logger.Fatal("Failed to start snapshot worker", zap.Error(err))
	}
	logger.Info("Snapshot worker running", zap.Time("next_run", manager.NextRun()))

	<-ctx.Done()
	manager.Stop()
	logger.Info("Snapshot worker stopped")
}
