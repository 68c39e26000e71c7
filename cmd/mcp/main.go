package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/faqbot/faq-assistant/internal/adapters/mcp"
	"github.com/faqbot/faq-assistant/internal/bootstrap"
	"github.com/faqbot/faq-assistant/internal/config"
	"github.com/faqbot/faq-assistant/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	cfg.NATSURL = ""
	// stdout carries the protocol, logs go to stderr.
	logger := logging.New(os.Stderr, "faq-mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.ChatUC, app.ReindexUC, bootstrap.Version, logger)
	if err := srv.ServeStdio(ctx); err != nil && ctx.Err() == nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
