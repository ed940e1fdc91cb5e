// Package handler provides HTTP handlers for the wslny API.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/wslny/wslny/internal/api/models"
	"github.com/wslny/wslny/internal/api/response"
	"github.com/wslny/wslny/internal/history"
	"github.com/wslny/wslny/internal/provider/resilience"
)

const readyTimeout = 2 * time.Second

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsConfig holds the dependencies reported by the ops endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Store is the history store checked for readiness (optional).
	Store Pinger

	// Registry reports upstream provider health (optional).
	Registry *resilience.Registry

	// SinkStats reports history sink counters (optional).
	SinkStats func() history.SinkStats

	Logger zerolog.Logger
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	store     Pinger
	registry  *resilience.Registry
	sinkStats func() history.SinkStats
	logger    zerolog.Logger
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		store:     cfg.Store,
		registry:  cfg.Registry,
		sinkStats: cfg.SinkStats,
		logger:    cfg.Logger,
	}
}

// HealthCheck handles GET /ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /ops/ready - the history store is reachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	store := h.storeStatus(r.Context())

	health := models.Health{
		Status: store.Status,
		Time:   models.Timestamp(time.Now()),
	}
	if store.Status != models.HealthStatusOK {
		health.Details = map[string]interface{}{store.Name: *store.Detail}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{h.storeStatus(r.Context())},
		Providers:  []models.ProviderStatus{},
	}

	if h.sinkStats != nil {
		stats := h.sinkStats()
		detail := "written=" + strconv.FormatInt(stats.Written, 10) +
			" failed=" + strconv.FormatInt(stats.Failed, 10) +
			" dropped=" + strconv.FormatInt(stats.Dropped, 10)
		sink := models.SubsystemStatus{Name: "history-sink", Status: models.HealthStatusOK, Detail: &detail}
		if stats.Dropped > 0 || stats.Failed > 0 {
			sink.Status = models.HealthStatusDegraded
		}
		status.Subsystems = append(status.Subsystems, sink)
	}

	if h.registry != nil {
		for _, p := range h.registry.All() {
			status.Providers = append(status.Providers, providerStatus(p))
		}
	}

	for _, s := range status.Subsystems {
		status.Status = worst(status.Status, s.Status)
	}
	for _, p := range status.Providers {
		status.Status = worst(status.Status, p.Status)
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) storeStatus(ctx context.Context) models.SubsystemStatus {
	s := models.SubsystemStatus{Name: "history-store", Status: models.HealthStatusOK}
	if h.store == nil {
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("history store ping failed")
		detail := err.Error()
		s.Status = models.HealthStatusFail
		s.Detail = &detail
	}
	return s
}

func providerStatus(p *resilience.ProviderHealth) models.ProviderStatus {
	out := models.ProviderStatus{
		Provider:     p.Name,
		Status:       models.HealthStatusOK,
		CircuitState: p.CircuitState.String(),
	}

	switch {
	case p.IsUnhealthy():
		out.Status = models.HealthStatusFail
	case p.IsDegraded():
		out.Status = models.HealthStatusDegraded
	}

	if p.LastSuccessAt != nil {
		ts := models.Timestamp(*p.LastSuccessAt)
		out.LastSuccessAt = &ts
	}
	if p.LastFailureAt != nil {
		ts := models.Timestamp(*p.LastFailureAt)
		out.LastFailureAt = &ts
	}
	if p.LastError != "" {
		msg := p.LastError
		out.Message = &msg
	}
	return out
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	rank := map[models.HealthStatus]int{
		models.HealthStatusOK:       0,
		models.HealthStatusDegraded: 1,
		models.HealthStatusFail:     2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
