package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"nexus/internal/app"
	"nexus/internal/relayserver"
)

func main() {
	log, err := app.NewLogger(os.Stderr, envOr("RELAY_LOG_LEVEL", "info"), envOr("RELAY_LOG_FORMAT", "text"))
	if err != nil {
		slog.Error("logger", slog.String("error", err.Error()))
		os.Exit(2)
	}
	cfg, err := relayserver.LoadConfig()
	if err != nil {
		log.Error("config", slog.String("error", err.Error()))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := relayserver.New(cfg, log).Run(ctx); err != nil {
		log.Error("relay stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
