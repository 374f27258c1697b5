package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/api"
	"github.com/applyhub/priority-pipeline/internal/bus"
	"github.com/applyhub/priority-pipeline/internal/config"
	"github.com/applyhub/priority-pipeline/internal/metrics"
	"github.com/applyhub/priority-pipeline/internal/queue"
	"github.com/applyhub/priority-pipeline/internal/ratelimiter"
	"github.com/applyhub/priority-pipeline/internal/scheduler"
	"github.com/applyhub/priority-pipeline/internal/service"
	"github.com/applyhub/priority-pipeline/internal/transport"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.LoadGateway()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- message bus ----
	ctx := context.Background()
	redisClient, err := bus.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("failed to connect to message bus", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	publisher := bus.NewRedisPublisher(redisClient, cfg.AppStream, cfg.ResultStream, logger)

	// ---- file transport ----
	fileClient := transport.NewClient(cfg.FileStoreURL, cfg.FileStoreTimeout, logger)
	if err := fileClient.Health(ctx); err != nil {
		// Not fatal: the file fan-out leg degrades to logged failures
		// until the filestore comes back.
		logger.Warn("filestore unreachable at startup", zap.Error(err))
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	queues := queue.New()
	limiter := ratelimiter.New(cfg.SubmitRate, cfg.SubmitBurst)
	admission := service.NewAdmissionService(queues, logger, m.AdmissionHook())

	// ---- weighted scheduler ----
	schedCtx, cancelSched := context.WithCancel(ctx)
	defer cancelSched()

	onDispatched, onDropped := m.SchedulerHooks()
	sched := scheduler.New(
		queues,
		publisher,
		fileClient,
		scheduler.UniformDelay(cfg.MinDelay, cfg.MaxDelay),
		cfg.IdleSleep,
		logger,
		scheduler.MetricHooks{OnDispatched: onDispatched, OnDropped: onDropped},
	)

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(schedCtx)
	}()

	// ---- queue depth gauges ----
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-schedCtx.Done():
				return
			case <-ticker.C:
				m.ObserveQueueDepths(queues.Depths())
			}
		}
	}()

	// ---- HTTP server ----
	router := api.NewGatewayRouter(admission, queues, limiter, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("gateway starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new submissions.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the scheduler loop and wait for its current cycle to unwind.
	cancelSched()
	<-schedDone

	logger.Info("gateway stopped cleanly")
}
