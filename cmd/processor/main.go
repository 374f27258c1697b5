package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/api"
	"github.com/applyhub/priority-pipeline/internal/bus"
	"github.com/applyhub/priority-pipeline/internal/config"
	"github.com/applyhub/priority-pipeline/internal/db"
	"github.com/applyhub/priority-pipeline/internal/metrics"
	"github.com/applyhub/priority-pipeline/internal/repository"
	"github.com/applyhub/priority-pipeline/internal/stats"
	"github.com/applyhub/priority-pipeline/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.LoadProcessor()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- message bus ----
	redisClient, err := bus.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("failed to connect to message bus", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	publisher := bus.NewRedisPublisher(redisClient, cfg.AppStream, cfg.ResultStream, logger)
	consumer, err := bus.NewRedisConsumer(ctx, redisClient, cfg.AppStream, cfg.ConsumerGroup, cfg.ConsumerName, cfg.FetchBlock)
	if err != nil {
		logger.Fatal("failed to create bus consumer", zap.Error(err))
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	repo := repository.NewPgApplicationRepository(pool)
	agg := stats.NewAggregator()

	// ---- worker pool + intake ----
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	intakeCtx, cancelIntake := context.WithCancel(ctx)
	defer cancelIntake()

	onProcessed, onFailed := m.WorkerHooks()
	pool2 := worker.NewPool(cfg.Workers, cfg.WorkBuffer, repo, publisher, agg, logger,
		worker.MetricHooks{OnProcessed: onProcessed, OnFailed: onFailed})
	pool2.Start(workerCtx)

	intake := worker.NewIntake(consumer, pool2, cfg.FetchBatch, logger)
	intakeDone := make(chan struct{})
	go func() {
		defer close(intakeDone)
		intake.Run(intakeCtx)
	}()

	// ---- periodic statistics save ----
	reporter := stats.NewReporter(agg, repository.NewPgStatsExporter(pool), cfg.StatsInterval, logger)
	go reporter.Run(workerCtx)

	// ---- HTTP server ----
	router := api.NewProcessorRouter(repo, agg, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("processor starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 1. Stop admitting new work: halt the intake, leaving unpushed
	//    deliveries unacked for the next incarnation.
	cancelIntake()
	<-intakeDone

	// 2. Close the work channel so workers drain what is already in flight.
	pool2.Close()
	pool2.Wait()

	// 3. Stop the remaining background loops and release collaborators.
	cancelWorkers()

	logger.Info("processor stopped cleanly")
}
