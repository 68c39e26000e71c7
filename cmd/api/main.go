package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/faqbot/faq-assistant/internal/adapters/http"
	"github.com/faqbot/faq-assistant/internal/bootstrap"
	"github.com/faqbot/faq-assistant/internal/config"
	"github.com/faqbot/faq-assistant/internal/observability/logging"
	"github.com/faqbot/faq-assistant/internal/observability/metrics"
)

const serviceName = "faq-api"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(
		app.ChatUC,
		app.ReindexUC,
		app.Scheduler(),
		app.Store,
		metrics.NewHTTPServerMetrics(serviceName),
		logger,
		httpadapter.Options{
			Version:             bootstrap.Version,
			RolesConfigured:     func() bool { return len(app.Roles.Snapshot()) > 0 },
			GenerationAvailable: app.Generator.Available(),
			RateLimitRPS:        cfg.APIRateLimitRPS,
			RateLimitBurst:      cfg.APIRateLimitBurst,
			MaxInFlight:         cfg.APIMaxInFlight,
		},
	)
	handler, err := router.Handler()
	if err != nil {
		logger.Error("router_init_failed", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		logger.Error("api_listen_failed", "addr", server.Addr, "error", err)
		os.Exit(1)
	}
	if cfg.APIMaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.APIMaxConnections)
	}

	go func() {
		logger.Info("api_listening", "addr", server.Addr, "max_connections", cfg.APIMaxConnections)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
