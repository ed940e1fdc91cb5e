package routing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wslny/wslny/internal/geo"
	"github.com/wslny/wslny/internal/preference"
	"github.com/wslny/wslny/internal/provider"
)

// DefaultTimeout is the default per-call deadline for route requests.
const DefaultTimeout = 10 * time.Second

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the routing backend (required).
	Provider Provider

	// Timeout is the per-call deadline (default: 10 seconds).
	Timeout time.Duration

	// Metrics receives per-call latency (optional).
	Metrics provider.Recorder

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service validates coordinates and applies the per-call deadline around a
// routing Provider. Results are never cached or shared between requests and
// calls are never retried.
type Service struct {
	provider Provider
	timeout  time.Duration
	metrics  provider.Recorder
	logger   zerolog.Logger
}

var _ Gateway = (*Service)(nil)

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		provider: cfg.Provider,
		timeout:  timeout,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// GetRoute returns the routing result between two points.
// Invalid coordinates are rejected without calling the provider.
func (s *Service) GetRoute(ctx context.Context, origin, destination geo.Point, mode preference.Filter) (*Result, error) {
	if !origin.Valid() {
		return nil, provider.NewError(s.provider.Name(), provider.CodeInvalidArgument, "invalid origin coordinates")
	}
	if !destination.Valid() {
		return nil, provider.NewError(s.provider.Name(), provider.CodeInvalidArgument, "invalid destination coordinates")
	}
	if !mode.Valid() {
		mode = preference.Optimal
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Debug().
		Float64("origin_lat", origin.Lat).
		Float64("origin_lon", origin.Lon).
		Float64("dest_lat", destination.Lat).
		Float64("dest_lon", destination.Lon).
		Str("mode", mode.String()).
		Str("provider", s.provider.Name()).
		Msg("fetching route from provider")

	start := time.Now()
	result, err := s.provider.GetRoute(ctx, origin, destination, mode)
	duration := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordRequest(s.provider.Name(), "get_route", duration, err)
	}

	if err != nil {
		pe := provider.Normalize(ctx, s.provider.Name(), err)
		s.logger.Warn().
			Err(pe).
			Str("code", string(pe.Code)).
			Str("mode", mode.String()).
			Dur("latency", duration).
			Msg("failed to fetch route")
		return nil, pe
	}

	if result == nil {
		return nil, provider.NewError(s.provider.Name(), provider.CodeUnknown, "empty routing response")
	}

	return result, nil
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
