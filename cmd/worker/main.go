package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faqbot/faq-assistant/internal/bootstrap"
	"github.com/faqbot/faq-assistant/internal/config"
	"github.com/faqbot/faq-assistant/internal/core/domain"
	"github.com/faqbot/faq-assistant/internal/observability/logging"
	"github.com/faqbot/faq-assistant/internal/observability/metrics"
)

const serviceName = "faq-worker"

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

	if app.Queue == nil {
		logger.Error("worker_requires_queue", "hint", "set NATS_URL")
		os.Exit(1)
	}

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeReindexJobs(ctx, func(handlerCtx context.Context, job domain.ReindexJob) error {
		if !job.EnqueuedAt.IsZero() {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(job.EnqueuedAt))
		}
		workerMetrics.StartJob()
		start := time.Now()

		runCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Minute)
		defer cancel()
		result, runErr := app.ReindexUC.Run(runCtx, job.Request)

		workerMetrics.FinishJob(serviceName, string(job.Request.Source), result.Upserts, time.Since(start), runErr)
		if runErr != nil {
			logger.Error("reindex_job_failed", "job_id", job.ID, "error", runErr)
			return runErr
		}
		logger.Info("reindex_job_completed", "job_id", job.ID, "upserts", result.Upserts, "skipped", result.Skipped)
		return nil
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
