// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     main
// Description: Entry point of the laplace gRPC daemon
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msto63/laplace/internal/server"
	"github.com/msto63/laplace/pkg/core/config"
	"github.com/msto63/laplace/pkg/core/logging"
	"github.com/msto63/laplace/pkg/core/version"
)

func main() {
	// Load configuration
	appCfg, err := config.LoadFromEnv()
	if err != nil {
		logging.New("laplaced").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Configure(appCfg.General.LogLevel, appCfg.General.LogFormat, os.Stderr)

	logger := logging.New("laplaced")
	logger.Info("Starting laplace server", "version", version.Server, "environment", appCfg.General.Environment)

	cfg, err := server.ConfigFrom(appCfg)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	cfg.Logger = logger

	// Create server
	srv, err := server.New(cfg)
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	// Start server
	if err := srv.StartAsync(); err != nil {
		logger.Error("Failed to start server", "error", err)
		os.Exit(1)
	}

	logger.Info("laplace server started", "address", srv.Address(), "store", cfg.StorePath)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutdown signal received, stopping server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	srv.Stop(ctx)

	logger.Info("laplace server stopped")
}
