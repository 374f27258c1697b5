package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/config"
	"github.com/applyhub/priority-pipeline/internal/objectstore"
	"github.com/applyhub/priority-pipeline/internal/service"
	"github.com/applyhub/priority-pipeline/internal/staging"
	"github.com/applyhub/priority-pipeline/internal/transport"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.LoadFileStore()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- object store ----
	ctx := context.Background()
	objects, err := objectstore.NewMinioStore(objectstore.MinioConfig{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create object store client", zap.Error(err))
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		logger.Fatal("failed to ensure bucket", zap.Error(err))
	}

	// ---- staging + sweeper ----
	store := staging.NewStore(cfg.StagingTTL, logger)
	sweeper := staging.NewSweeper(store, cfg.SweepInterval, logger)

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go sweeper.Run(sweepCtx)

	// ---- RPC server ----
	promotion := service.NewPromotionService(store, objects, cfg.URLExpiry, logger)
	server := transport.NewServer(store, promotion, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      server.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("filestore starting", zap.String("addr", srv.Addr))
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

	cancelSweep()

	logger.Info("filestore stopped cleanly")
}
