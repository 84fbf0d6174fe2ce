package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/hazard-score/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/hazard-score/internal/adapter/kafka"
	"github.com/couchcryptid/hazard-score/internal/adapter/mapbox"
	"github.com/couchcryptid/hazard-score/internal/classifier"
	"github.com/couchcryptid/hazard-score/internal/config"
	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/couchcryptid/hazard-score/internal/features"
	"github.com/couchcryptid/hazard-score/internal/layers"
	"github.com/couchcryptid/hazard-score/internal/observability"
	"github.com/couchcryptid/hazard-score/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	set := layers.LoadSet(cfg.LayerPaths(), logger)
	metrics.SetLayersLoaded(set.Available())
	extractor := features.NewExtractor(set, logger)

	// Labels come from the rules until a trained model is available.
	var model pipeline.Predictor
	m, err := classifier.Load(cfg.ModelPath)
	switch {
	case err == nil:
		model = m
		logger.Info("model loaded", "path", cfg.ModelPath, "model_id", m.ID, "kind", m.Kind, "trained_at", m.TrainedAt)
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("no model artifact, serving rule labels", "path", cfg.ModelPath)
	default:
		logger.Error("model load failed, serving rule labels", "path", cfg.ModelPath, "error", err)
	}
	metrics.SetModelLoaded(model != nil)

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.SetGeocodeEnabled(true)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAssessmentTopic)
	}

	svc := pipeline.NewAssessor(extractor, model, geocoder, publisher, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
