// Package main provides the entrypoint for the wslny API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/wslny/wslny/internal/api"
	"github.com/wslny/wslny/internal/api/middleware"
	"github.com/wslny/wslny/internal/auth"
	"github.com/wslny/wslny/internal/config"
	"github.com/wslny/wslny/internal/database"
	"github.com/wslny/wslny/internal/extraction"
	"github.com/wslny/wslny/internal/fare"
	"github.com/wslny/wslny/internal/history"
	"github.com/wslny/wslny/internal/location"
	"github.com/wslny/wslny/internal/orchestrator"
	"github.com/wslny/wslny/internal/provider/resilience"
	"github.com/wslny/wslny/internal/routing"
	"github.com/wslny/wslny/internal/routing/engine"
	"github.com/wslny/wslny/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = telemetry.ServiceName

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting wslny API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Float64("sample_ratio", cfg.Telemetry.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	providerMetrics, err := middleware.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	// History store
	var store history.Store
	if cfg.UsesPostgres() {
		pool, err := database.Open(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open history database")
		}
		defer pool.Close()

		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")
		store = history.NewPostgresStore(pool)
	} else {
		log.Warn().Msg("using in-memory history store - records are lost on restart")
		store = history.NewInMemoryStore()
	}

	// History writer: the store itself, or Pub/Sub for the ingestion worker
	var writer history.Writer = store
	if cfg.History.Publisher == config.PublisherPubSub {
		publisher, err := history.NewPubSubPublisher(ctx, history.PubSubConfig{
			ProjectID: cfg.History.ProjectID,
			Topic:     cfg.History.Topic,
			Logger:    log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create history publisher")
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close history publisher")
			}
		}()
		writer = publisher
		log.Info().
			Str("topic", cfg.History.Topic).
			Msg("history records published to Pub/Sub")
	}

	sink := history.NewSink(history.SinkConfig{
		Writer:    writer,
		QueueSize: cfg.History.QueueSize,
		Logger:    log,
	})

	// Upstream clients. A construction failure is not fatal: every route
	// request then reports a service configuration error.
	registry := resilience.NewRegistry()
	var bootErr error

	extractionClient, err := extraction.NewClient(extraction.ClientConfig{
		BaseURL:  cfg.Extraction.BaseURL,
		Timeout:  cfg.Extraction.Timeout,
		Registry: registry,
		Logger:   log,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create extraction client")
		bootErr = err
	}

	routingClient, err := engine.NewClient(engine.ClientConfig{
		BaseURL:  cfg.Routing.BaseURL,
		Timeout:  cfg.Routing.Timeout,
		Registry: registry,
		Logger:   log,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create routing client")
		bootErr = errors.Join(bootErr, err)
	}

	orchCfg := orchestrator.Config{
		Estimator: fare.NewEstimator(cfg.Fares),
		History:   sink,
		BootError: bootErr,
		Logger:    log,
	}
	if bootErr == nil {
		orchCfg.Resolver = location.NewResolver(location.ResolverConfig{
			Extractor: extraction.NewService(extraction.ServiceConfig{
				Provider: extractionClient,
				Timeout:  cfg.Extraction.Timeout,
				Metrics:  providerMetrics,
				Logger:   log,
			}),
			Suggester: location.NewSuggester(location.SuggesterConfig{
				Source:   store,
				Limit:    cfg.Suggestion.HistoryLimit,
				MinScore: cfg.Suggestion.MinScore,
				Logger:   log,
			}),
			Logger: log,
		})
		orchCfg.Router = routing.NewService(routing.ServiceConfig{
			Provider: routingClient,
			Timeout:  cfg.Routing.Timeout,
			Metrics:  providerMetrics,
			Logger:   log,
		})
	}
	orch := orchestrator.New(orchCfg)

	routerCfg := api.RouterConfig{
		Version:      Version,
		BuildTime:    BuildTime,
		Logger:       log,
		ServiceName:  serviceName,
		Metrics:      metrics,
		RequireTLS:   cfg.RequireTLS,
		Orchestrator: orch,
		HistoryStore: store,
		Registry:     registry,
		SinkStats:    sink.Stats,
	}
	if verifier := auth.NewVerifier(cfg.Auth); verifier != nil {
		routerCfg.Verifier = verifier
		log.Info().Msg("bearer token authentication enabled")
	} else {
		log.Warn().Msg("JWT_SIGNING_KEY not set - requests are anonymous")
	}

	router := api.NewRouter(routerCfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	if err := sink.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("history records lost on shutdown")
	}

	stats := sink.Stats()
	log.Info().
		Int64("history_written", stats.Written).
		Int64("history_failed", stats.Failed).
		Int64("history_dropped", stats.Dropped).
		Msg("server stopped")
}
