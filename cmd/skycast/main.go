package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/skycast-app/skycast/internal/adapter/httpapi"
	"github.com/skycast-app/skycast/internal/adapter/kafkanotify"
	"github.com/skycast-app/skycast/internal/adapter/nominatim"
	"github.com/skycast-app/skycast/internal/adapter/openmeteo"
	"github.com/skycast-app/skycast/internal/alert"
	"github.com/skycast-app/skycast/internal/config"
	"github.com/skycast-app/skycast/internal/fetcher"
	"github.com/skycast-app/skycast/internal/geocode"
	"github.com/skycast-app/skycast/internal/observability"
	"github.com/skycast-app/skycast/internal/ratelimit"
	"github.com/skycast-app/skycast/internal/scheduler"
	"github.com/skycast-app/skycast/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	forecastClient := openmeteo.NewForecastClient(cfg.RequestTimeout, logger)
	airClient := openmeteo.NewAirQualityClient(cfg.RequestTimeout, logger)
	archiveClient := openmeteo.NewArchiveClient(cfg.RequestTimeout, logger)
	geocodeClient := openmeteo.NewGeocodeClient(cfg.RequestTimeout, logger)
	reverseClient := nominatim.NewClient(cfg.RequestTimeout, logger)

	weatherLimiter := ratelimit.New("weather", cfg.WeatherMaxRequests, cfg.WeatherWindow)
	airLimiter := ratelimit.New("air-quality", cfg.AirQualityMaxRequests, cfg.AirQualityWindow)

	fetch := fetcher.New(forecastClient, airClient, archiveClient,
		weatherLimiter, airLimiter, metrics, logger)
	resolver := geocode.NewCachedResolver(
		geocode.NewResolver(geocodeClient, reverseClient, metrics, logger),
		cfg.GeocodeCacheSize)

	dispatcher := alert.NewDispatcher(metrics, logger)
	dispatcher.Register("log", alert.NewLogNotifier(logger))

	// Kafka delivery is feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED.
	var kafkaWriter *kafkanotify.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkanotify.NewWriter(cfg, logger)
		dispatcher.Register("kafka", kafkaWriter)
		logger.Info("kafka notifications enabled", "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("kafka notifications disabled")
	}

	sched := scheduler.New(fetch, st, dispatcher, cfg, metrics, logger)

	srv := httpapi.NewServer(cfg.HTTPAddr, st, resolver, fetch, sched, cfg.DefaultUnit, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
