package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hellosteadman/ghostexporter/app/cfg"
	"github.com/hellosteadman/ghostexporter/app/export"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	appCfg, err := cfg.Load(args)
	if err != nil {
		if errors.Is(err, cfg.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if len(appCfg.Args) != 1 {
		fmt.Fprintln(stderr, "usage: ghostexporter [OPTIONS] URL")
		return exitUsage
	}

	slog.SetDefault(cfg.NewLogger(stderr, appCfg.LogLevel))

	exporter, err := export.New(appCfg, &http.Client{})
	if err != nil {
		slog.Error("Failed to initialize exporter", "error", err)
		return exitError
	}

	if err := exporter.Write(ctx, stdout, appCfg.Args[0], appCfg.DocVersion); err != nil {
		slog.Error("Export failed", "url", appCfg.Args[0], "error", err)
		return exitError
	}

	return exitOK
}
