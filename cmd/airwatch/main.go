package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/airwatch-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/airwatch-service/internal/adapter/kafka"
	"github.com/couchcryptid/airwatch-service/internal/adapter/mapbox"
	"github.com/couchcryptid/airwatch-service/internal/adapter/upstream"
	"github.com/couchcryptid/airwatch-service/internal/cache"
	"github.com/couchcryptid/airwatch-service/internal/config"
	"github.com/couchcryptid/airwatch-service/internal/domain"
	"github.com/couchcryptid/airwatch-service/internal/model"
	"github.com/couchcryptid/airwatch-service/internal/observability"
	"github.com/couchcryptid/airwatch-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	scorer := model.NewAdapter(model.FileLoader{
		ModelPath:       cfg.ModelPath,
		FeatureListPath: cfg.FeatureListPath,
	}, logger, metrics)

	if cfg.AirNowAPIKey == "" {
		logger.Warn("AIRNOW_API_KEY not set, current AQI will use defaults")
	}
	airnow := upstream.NewAirNow(cfg.AirNowBaseURL, cfg.AirNowAPIKey, cfg.UpstreamTimeout, logger, metrics)
	nws := upstream.NewNWS(cfg.NWSBaseURL, cfg.NWSUserAgent, cfg.UpstreamTimeout, logger, metrics)

	// Geocoding for ZIP codes outside the built-in table (feature-flagged via
	// MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxBaseURL, cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	svc := pipeline.NewService(
		scorer,
		cfg.PredictionThreshold,
		cache.New(cfg.CacheSize, metrics),
		airnow,
		nws,
		geocoder,
		clock,
		logger,
		metrics,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc.Preload(ctx)

	// Decision publisher (feature-flagged via PUBLISH_ENABLED). When enabled it
	// gates readiness until its first batch is written.
	var (
		writer    *kafkaadapter.Writer
		publisher *pipeline.Publisher
		readiness []httpadapter.ReadinessChecker
	)
	if cfg.PublishEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = pipeline.NewPublisher(svc, writer, cfg.PublishLocations, cfg.PublishInterval, clock, logger, metrics)
		readiness = append(readiness, publisher)
	} else {
		logger.Info("decision publishing disabled")
	}

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:       cfg.HTTPAddr,
		APIPrefix:  cfg.APIPrefix,
		DefaultZIP: cfg.DefaultZIP,
		Readiness:  readiness,
	}, svc, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	publisherDone := make(chan struct{})
	if publisher != nil {
		go func() {
			defer close(publisherDone)
			if err := publisher.Run(ctx); err != nil {
				logger.Error("publisher error", "error", err)
			}
		}()
	} else {
		close(publisherDone)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-publisherDone:
	case <-shutdownCtx.Done():
		logger.Warn("publisher did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
