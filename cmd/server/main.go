// Package main is the entry point for the lookbook API server: it accepts
// product photos, fans out AI image generation, and delivers upscaled
// lookbook imagery, video, and listing reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/oselle/lookbook-api/internal/config"
	"github.com/oselle/lookbook-api/internal/platform/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	slogger := logger.Setup(cfg.Server)
	slogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"storage_backend", cfg.Storage.Backend,
		"archive_enabled", cfg.Database.URL != "")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := buildApp(ctx, cfg, slogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	application.runner.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           application.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slogger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		application.cleanup()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slogger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slogger.Error("server shutdown failed", "error", err)
		application.cleanup()
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	application.cleanup()
	slogger.Info("server shutdown completed")
	return nil
}
