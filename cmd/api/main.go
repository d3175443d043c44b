package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fadhlirmn/esports-sync/external/jobqueue"
	"github.com/fadhlirmn/esports-sync/internal/app"
	"github.com/fadhlirmn/esports-sync/internal/config"
	"github.com/fadhlirmn/esports-sync/internal/observability"
	"github.com/fadhlirmn/esports-sync/internal/platform/logging"
	"github.com/fadhlirmn/esports-sync/internal/platform/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	baseLogger := logging.NewJSON(cfg.LogLevel)

	logger, betterStackShutdown, err := observability.InitBetterStackLogger(cfg, baseLogger)
	if err != nil {
		baseLogger.Error("init betterstack logger", "error", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	uptraceShutdown, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}

	pyroscopeStop, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	pprofServer, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof server", "error", err)
		os.Exit(1)
	}

	srv, closeDB, err := app.NewHTTPServer(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	startJobScheduler(schedulerCtx, cfg, logger)

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := observability.StopPprofServer(pprofServer, logger, 5*time.Second); err != nil {
		logger.Error("stop pprof server", "error", err)
	}
	if err := pyroscopeStop(); err != nil {
		logger.Error("stop pyroscope", "error", err)
	}
	if err := uptraceShutdown(shutdownCtx); err != nil {
		logger.Error("shutdown uptrace", "error", err)
	}
	if err := betterStackShutdown(shutdownCtx); err != nil {
		logger.Error("shutdown betterstack logger", "error", err)
	}
	if err := closeDB(); err != nil {
		logger.Error("close database", "error", err)
	}

	logger.Info("http server stopped")
}

// startJobScheduler enqueues the recurring sync jobs through QStash so
// they arrive back on the internal job endpoints. Deduplication ids are
// bucketed to the interval, which keeps overlapping schedulers from
// double-dispatching the same window.
func startJobScheduler(ctx context.Context, cfg config.Config, logger *logging.Logger) {
	if !cfg.QStashEnabled {
		logger.Info("job scheduler disabled", "reason", "QSTASH_ENABLED=false")
		return
	}
	if !cfg.SyncEnabled {
		logger.Info("job scheduler disabled", "reason", "SYNC_ENABLED=false")
		return
	}

	publisher := jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.QStashCircuitEnabled,
			FailureThreshold: cfg.QStashCircuitFailureCount,
			OpenTimeout:      cfg.QStashCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
		},
	}, logger)

	go scheduleJob(ctx, publisher, logger, "sync-upcoming", "/v1/internal/jobs/sync-upcoming", cfg.SyncUpcomingInterval)
	go scheduleJob(ctx, publisher, logger, "sync-results", "/v1/internal/jobs/sync-results", cfg.SyncResultsInterval)
}

func scheduleJob(ctx context.Context, publisher *jobqueue.QStashPublisher, logger *logging.Logger, jobName, path string, interval time.Duration) {
	enqueue := func(now time.Time) {
		dispatchID := jobName + "-" + now.UTC().Truncate(interval).Format("20060102T150405Z")
		payload := map[string]any{"dispatch_id": dispatchID}
		if err := publisher.Enqueue(ctx, path, payload, 0, dispatchID); err != nil {
			logger.WarnContext(ctx, "enqueue scheduled job failed", "job_name", jobName, "dispatch_id", dispatchID, "error", err)
			return
		}
	}

	enqueue(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			enqueue(now)
		}
	}
}
