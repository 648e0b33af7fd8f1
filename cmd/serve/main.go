// Command serve answers soil temperature predictions over HTTP from the
// artifacts under ARTIFACT_DIR.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/soil-temp-model/internal/adapter/filestore"
	httpadapter "github.com/couchcryptid/soil-temp-model/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/soil-temp-model/internal/adapter/kafka"
	"github.com/couchcryptid/soil-temp-model/internal/config"
	"github.com/couchcryptid/soil-temp-model/internal/inference"
	"github.com/couchcryptid/soil-temp-model/internal/observability"
)

func main() {
	_ = godotenv.Load() // optional .env

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	store := filestore.New(cfg.ArtifactDir, logger)
	svc := inference.NewService(store, cfg.ArtifactCacheSize, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, cfg.PredictTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the cache; readiness flips once every listed station is loaded.
	go func() {
		if err := svc.Preload(ctx, cfg.PreloadStations...); err != nil {
			logger.Error("preload failed", "error", err)
			return
		}
		logger.Info("artifacts preloaded", "stations", len(cfg.PreloadStations))
	}()

	var listener *kafkaadapter.Listener
	if cfg.KafkaEnabled {
		listener = kafkaadapter.NewListener(cfg, svc, logger)
		go func() {
			if err := listener.Run(ctx); err != nil {
				logger.Error("model listener error", "error", err)
			}
		}()
	} else {
		logger.Info("model notifications disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if listener != nil {
		if err := listener.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
