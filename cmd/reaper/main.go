package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/markdave123-py/docscope/internal/app"
	"github.com/markdave123-py/docscope/internal/config"
	"github.com/markdave123-py/docscope/internal/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	slog.SetDefault(config.NewLogger(os.Stdout, cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, closers, err := app.OpenDeps(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	services.NewSessionReaper(deps.DB, deps.Objects).Run(ctx, cfg.SessionCleanupInterval)
}
