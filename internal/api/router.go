// Package api provides the HTTP API for wslny.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/wslny/wslny/internal/api/handler"
	"github.com/wslny/wslny/internal/api/middleware"
	"github.com/wslny/wslny/internal/api/response"
	"github.com/wslny/wslny/internal/history"
	"github.com/wslny/wslny/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// RequireTLS rejects requests not forwarded over HTTPS.
	RequireTLS bool

	// Verifier authenticates bearer tokens. Nil means anonymous access.
	Verifier middleware.TokenVerifier

	Orchestrator handler.Orchestrator
	HistoryStore history.Store
	Registry     *resilience.Registry

	// SinkStats reports history sink counters on /ops/status (optional).
	SinkStats func() history.SinkStats
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "wslny-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no such endpoint")
	})

	var pinger handler.Pinger
	if cfg.HistoryStore != nil {
		pinger = cfg.HistoryStore
	}

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Store:     pinger,
		Registry:  cfg.Registry,
		SinkStats: cfg.SinkStats,
		Logger:    cfg.Logger,
	})
	routeHandler := handler.NewRouteHandler(cfg.Orchestrator, cfg.Logger)
	historyHandler := handler.NewHistoryHandler(cfg.HistoryStore, cfg.Logger)
	metadataHandler := handler.NewMetadataHandler()

	r.Route("/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.Get("/status", opsHandler.SystemStatus)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Verifier))
		r.Use(middleware.RequireJSON)

		r.Post("/route", routeHandler.Route)

		r.Route("/routes", func(r chi.Router) {
			r.Post("/search", routeHandler.Search)
			r.Post("/search/confirm", routeHandler.Confirm)
			r.Post("/validate", routeHandler.Validate)
			r.Get("/metadata", metadataHandler.GetMetadata)
		})

		r.Route("/route/history", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/", historyHandler.List)
			r.Post("/{requestId}/selection", historyHandler.RecordSelection)
		})
	})

	return r
}
