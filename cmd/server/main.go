package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hellosteadman/ghostexporter/app/api"
	"github.com/hellosteadman/ghostexporter/app/cfg"
	"github.com/hellosteadman/ghostexporter/app/export"
)

func main() {
	appCfg, err := cfg.LoadServer(os.Args[1:])
	if err != nil {
		if errors.Is(err, cfg.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	slog.SetDefault(cfg.NewLogger(os.Stderr, appCfg.LogLevel))

	slog.Info("Starting Ghost Exporter server", "version", appCfg.Version)

	exporter, err := export.New(appCfg, &http.Client{})
	if err != nil {
		slog.Error("Failed to initialize exporter", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(exporter, appCfg.DocVersion, appCfg.Version)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "providers", exporter.Providers())

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Ghost Exporter server shutdown complete")
}
