package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/port-traffic-monitor/internal/adapter/filecache"
	"github.com/couchcryptid/port-traffic-monitor/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/port-traffic-monitor/internal/adapter/kafka"
	"github.com/couchcryptid/port-traffic-monitor/internal/config"
	"github.com/couchcryptid/port-traffic-monitor/internal/observability"
	"github.com/couchcryptid/port-traffic-monitor/internal/pipeline"
	"github.com/couchcryptid/port-traffic-monitor/internal/provider"
	"github.com/couchcryptid/port-traffic-monitor/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	settings, err := loadProviderSettings(cfg)
	if err != nil {
		logger.Error("failed to load provider settings", "error", err)
		os.Exit(1)
	}
	logger.Info("provider settings loaded", "settings", settings.Masked())

	registry := provider.NewDefaultRegistry(logger,
		provider.WithLogger(logger),
		provider.WithMetrics(metrics),
	)
	client, err := newVesselClient(cfg, registry, settings, logger, metrics)
	if err != nil {
		logger.Error("failed to build provider chain", "error", err)
		os.Exit(1)
	}

	// Report publishing is feature-flagged via KAFKA_REPORTS_ENABLED.
	var sink pipeline.ReportSink
	var writer *kafkaadapter.Writer
	if cfg.KafkaReportsEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sink = writer
		logger.Info("kafka report publishing enabled", "topic", cfg.KafkaReportTopic)
	} else {
		logger.Info("kafka report publishing disabled")
	}

	monitor, err := pipeline.New(client, sink, pipeline.Options{
		Ports:                   cfg.TargetPorts,
		RadiusKm:                cfg.SearchRadiusKm,
		MaxBerths:               cfg.MaxBerths,
		PriorityHours:           cfg.PriorityHours,
		ArrivalWindowHours:      cfg.ArrivalWindowHours,
		SeriesProjections:       cfg.SeriesProjections,
		ProjectionHorizonHours:  cfg.ProjectionHorizonHours,
		ProjectionIntervalHours: cfg.ProjectionIntervalHours,
		Concurrency:             cfg.MonitorConcurrency,
		Interval:                cfg.MonitorInterval,
	}, logger, metrics)
	if err != nil {
		logger.Error("invalid monitor options", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, monitor, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start monitoring loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := monitor.Run(ctx); err != nil {
			logger.Error("monitor error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("monitor did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// loadProviderSettings reads PROVIDER_CONFIG_FILE, if set, and overlays the
// provider keys found in the environment.
func loadProviderSettings(cfg *config.Config) (provider.Settings, error) {
	settings := provider.Settings{}
	if cfg.ProviderConfigFile != "" {
		fromFile, err := provider.LoadSettingsFile(cfg.ProviderConfigFile)
		if err != nil {
			return nil, err
		}
		settings = fromFile
	}
	return settings.Merge(provider.SettingsFromEnv()), nil
}

// newVesselClient assembles the fallback chain: the resolved provider, the
// commercial provider when credentials exist, the disk cache and finally
// simulated traffic.
func newVesselClient(
	cfg *config.Config,
	registry *provider.Registry,
	settings provider.Settings,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (*resilience.Client, error) {
	primary := registry.Resolve(settings)

	fallback, err := registry.CreateFromSettings("commercial", settings)
	if err != nil {
		logger.Warn("commercial provider unavailable", "error", err)
		fallback = nil
	}

	simulated, err := registry.Create("simulated", provider.SimulatedConfig{
		Seed: uint64(max(settings.Int(provider.KeySimulatedSeed, 0), 0)),
	})
	if err != nil {
		return nil, err
	}

	opts := []resilience.Option{
		resilience.WithSimulated(simulated),
		resilience.WithCache(filecache.New(cfg.CacheDir, cfg.CacheTTL)),
		resilience.WithCacheFirst(cfg.CacheFirst),
		resilience.WithLogger(logger),
		resilience.WithMetrics(metrics),
	}
	if primary != nil {
		opts = append(opts, resilience.WithPrimary(primary))
	}
	if fallback != nil {
		opts = append(opts, resilience.WithFallback(fallback))
	}

	client := resilience.New(opts...)
	logger.Info("vessel source chain ready",
		"providers", client.Chain(),
		"cache_dir", cfg.CacheDir,
		"cache_ttl", cfg.CacheTTL.String(),
		"cache_first", cfg.CacheFirst,
	)
	return client, nil
}
