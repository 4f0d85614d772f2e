package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/icsr-triage-engine/internal/api"
	"github.com/icsr-triage-engine/internal/config"
	"github.com/icsr-triage-engine/internal/setup"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := setup.Logger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reference, err := setup.BuildReference(ctx, cfg.Reference, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build reference data provider")
	}
	defer reference.Close()

	terms, err := setup.Terms(cfg.MedDRA, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load MedDRA mapping")
	}

	_, runner := setup.BuildPipeline(cfg, reference.Provider, terms, logger)
	server := api.NewServer(*cfg, runner, reference.Health, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}
